package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrateUp,
	}
	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE:  runMigrateDown,
	}
	migrateGotoCmd = &cobra.Command{
		Use:   "goto [version]",
		Short: "Migrate up or down to the given version",
		Args:  cobra.ExactArgs(1),
		RunE:  runMigrateGoto,
	}
	migrateVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE:  runMigrateVersion,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateGotoCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, log, false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.RunMigrations()
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, log, false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.MigrateDown()
}

func runMigrateGoto(cmd *cobra.Command, args []string) error {
	version, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, log, false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.MigrateToVersion(uint(version))
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, log, false)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := db.MigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
	return nil
}
