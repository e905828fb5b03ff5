package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Dialect names as reported by the GORM dialectors in use.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// DialectName returns the name of the connection's dialector.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// IsSQLite reports whether the connection speaks SQLite.
func IsSQLite(conn *gorm.DB) bool {
	return DialectName(conn) == DialectSQLite
}

// TextMatchExpr returns the dialect's case-insensitive substring condition
// for one column, with a single pattern placeholder. Record search builds an
// OR group of these over a surface's search columns.
func TextMatchExpr(conn *gorm.DB, column string) string {
	if IsSQLite(conn) {
		return "LOWER(" + column + ") LIKE ?"
	}
	return column + " ILIKE ?"
}

// TextMatchPattern wraps a search term into the pattern TextMatchExpr binds.
func TextMatchPattern(conn *gorm.DB, term string) string {
	pattern := "%" + term + "%"
	if IsSQLite(conn) {
		return strings.ToLower(pattern)
	}
	return pattern
}

// JSONFieldExpr returns an expression reading one top-level key of a JSON
// column as text. The migration audit listing filters on payload keys this
// way without unpacking rows in Go.
func JSONFieldExpr(conn *gorm.DB, column, key string) string {
	if IsSQLite(conn) {
		return fmt.Sprintf("json_extract(%s, '$.%s')", column, key)
	}
	return fmt.Sprintf("%s->>'%s'", column, key)
}
