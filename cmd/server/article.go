package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/threaded-comments-api/internal/repository"
	"github.com/threaded-comments-api/internal/service"
)

var articleTitle string

var (
	articleCmd = &cobra.Command{
		Use:   "article",
		Short: "Manage the articles comments attach to",
	}
	articleCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an article and print its id",
		Args:  cobra.NoArgs,
		RunE:  runArticleCreate,
	}
)

func init() {
	rootCmd.AddCommand(articleCmd)
	articleCmd.AddCommand(articleCreateCmd)
	articleCreateCmd.Flags().StringVar(&articleTitle, "title", "", "Article title")
	articleCreateCmd.MarkFlagRequired("title")
}

func runArticleCreate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, log, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	services := service.NewServices(repository.New(db), cfg, log)
	article, err := services.Articles.Create(cmd.Context(), articleTitle)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", article.ID)
	return nil
}
