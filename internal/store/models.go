package store

import (
	"database/sql"
	"time"
)

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// unixOrNow stores zero times as the current instant.
func unixOrNow(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UTC().Unix()
	}
	return t.UTC().Unix()
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
