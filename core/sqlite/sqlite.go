// Package sqlite opens SQLite databases through either the pure Go
// (modernc.org/sqlite) or the CGO (mattn/go-sqlite3) driver.
//
// Build modes:
//   - Default (CGO_ENABLED=0): uses modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): uses mattn/go-sqlite3
//
// Use Open() instead of sql.Open() so the driver matching the build is used
// and the connection pragmas are set the same way for both.
package sqlite

import (
	"database/sql"
	"strings"
)

// BusyTimeoutMS is how long a connection waits on a locked database.
const BusyTimeoutMS = 5000

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database with foreign keys enabled and a busy timeout.
func Open(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, false))
}

// OpenReadOnly opens a SQLite database in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open(driverName, dsn(path, true))
}

// dsn appends the driver pragmas to path. Both drivers strip query
// parameters from plain paths, so read-only access uses a file: URI.
func dsn(path string, readOnly bool) string {
	params := connParams()
	if readOnly {
		params = append(params, "mode=ro")
		if !strings.HasPrefix(path, "file:") {
			path = "file:" + path
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
