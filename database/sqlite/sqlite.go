package sqlite

import (
	"embed"

	"github.com/aquilax/eightd/database/sqldb"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

//go:embed migrations/*.sql
var migrations embed.FS

type SQLite struct {
	*sqldb.DB
}

func New() *SQLite {
	return &SQLite{sqldb.New("sqlite3", migrations)}
}
