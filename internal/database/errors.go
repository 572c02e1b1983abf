package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
)

const (
	pqForeignKeyViolation = "23503"

	// SQLite result codes: SQLITE_CONSTRAINT and its FOREIGNKEY extension
	sqliteConstraint           = 19
	sqliteConstraintForeignKey = 787
)

// IsForeignKeyViolation reports whether err is a foreign key failure from
// either supported driver
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqForeignKeyViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqliteConstraintForeignKey ||
			(code&0xff == sqliteConstraint && strings.Contains(liteErr.Error(), "FOREIGN KEY"))
	}

	return false
}
