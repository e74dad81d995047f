//go:build purego || !sqlite_cgo
// +build purego !sqlite_cgo

package storage

// This file is compiled when building without CGO or with the purego tag.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// Driver used: modernc.org/sqlite. Scalar functions are registered
// process-wide and are visible to every connection the driver opens.

import (
	"database/sql/driver"

	"modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(ScoreFunctionName, 2,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return zealScore(args[0], args[1]), nil
		})
}
