package postgres

import (
	"embed"

	"github.com/aquilax/eightd/database/sqldb"
	_ "github.com/lib/pq"
)

const DriverName = "postgres"

//go:embed migrations/*.sql
var migrations embed.FS

type Postgres struct {
	*sqldb.DB
}

func New() *Postgres {
	return &Postgres{sqldb.New("postgres", migrations)}
}
