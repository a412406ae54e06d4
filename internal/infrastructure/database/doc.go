// Package database manages the SQLite connection for Taskforge Core.
//
// It wraps database/sql with lifecycle management, health checks, and an
// embedded-migration runner. Migrations are .sql files compiled into the
// binary via the top-level migrations package.
package database
