package storage

import (
	"fmt"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Drivers lists every backend Open understands.
var Drivers = []string{DriverMemory, DriverFile, DriverBadger, DriverSQLite, DriverPostgres, DriverMySQL}

// Open builds the backend named by driver. dsn is a directory for file and
// badger, a connection string for the sql drivers and ignored for memory.
func Open(driver, dsn string) (Storage, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(dsn)
	case DriverBadger:
		return NewBadger(dsn)
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return OpenSQL(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
