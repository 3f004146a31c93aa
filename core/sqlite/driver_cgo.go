//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
//
// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package sqlite

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)

func connParams() []string {
	return []string{
		fmt.Sprintf("_busy_timeout=%d", BusyTimeoutMS),
		"_foreign_keys=1",
	}
}
