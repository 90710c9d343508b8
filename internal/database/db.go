package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options describes how to reach MySQL and how large the pool may grow.
type Options struct {
	User     string
	Pass     string
	Host     string
	Port     string
	Name     string
	MaxConns int
}

// DSN renders the driver connection string.  parseTime maps DATETIME to
// time.Time and loc=UTC keeps stored expiries comparable with Go clocks.
// clientFoundRows makes RowsAffected count matched rows, so an UPDATE that
// leaves values unchanged is not mistaken for a missing row.
func (o Options) DSN() string {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Pass
	c.Net = "tcp"
	c.Addr = o.Host + ":" + o.Port
	c.DBName = o.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.ClientFoundRows = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	maxConns := o.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
