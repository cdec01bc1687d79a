//go:build libsql

package sqlstore

import (
	_ "github.com/tursodatabase/go-libsql" // register the libSQL driver as "libsql"
)

// LibSQL uses github.com/tursodatabase/go-libsql. It links its own SQLite
// build, so it is only compiled in with the libsql build tag.
var LibSQL = Dialect{
	Name:       "libsql",
	DriverName: "libsql",
	Returning:  true,
	SingleConn: true,
	Schema:     sqliteSchema,
}

func init() {
	registerDialect(LibSQL)
}
