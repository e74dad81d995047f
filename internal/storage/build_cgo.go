//go:build sqlite_cgo && !purego
// +build sqlite_cgo,!purego

package storage

// This file is compiled when building with CGO and the sqlite_cgo tag.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
//
// Driver used: github.com/mattn/go-sqlite3, registered under its own name so
// every connection gets the zealScore function through ConnectHook.

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3_docset"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(ScoreFunctionName, zealScore, true)
		},
	})
}
