// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. Importing it makes the following
// storage kinds available at runtime:
//
//   - "sqlite"   (diagetl/internal/storage/sqlite)
//   - "postgres" (diagetl/internal/storage/postgres)
//   - "mssql"    (diagetl/internal/storage/mssql)
//   - "mysql"    (diagetl/internal/storage/mysql)
//
// A binary that supports only a subset of backends can blank-import the
// required backend packages directly instead.
package all

import (
	_ "diagetl/internal/storage/mssql"
	_ "diagetl/internal/storage/mysql"
	_ "diagetl/internal/storage/postgres"
	_ "diagetl/internal/storage/sqlite"
)
