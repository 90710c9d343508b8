// Package repository defines the MySQL data access layer and the sentinel
// errors shared by all repositories.  Services translate these into
// client-facing error kinds.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique key
// (users.email, stores.email, refresh_tokens.token, ratings(user_id, store_id)).
var ErrDuplicate = errors.New("duplicate entry")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// sortColumn resolves a client-supplied sort key against a whitelist.
func sortColumn(allowed map[string]string, key, fallback string) string {
	if col, ok := allowed[key]; ok {
		return col
	}
	return fallback
}
