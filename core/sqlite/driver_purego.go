//go:build !cgo_sqlite

package sqlite

import (
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

func connParams() []string {
	return []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", BusyTimeoutMS),
		"_pragma=foreign_keys(1)",
	}
}
