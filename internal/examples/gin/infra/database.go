package infra

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type DBConfig struct {
	Path string
}

//go:embed schema.sql
var schema string

func NewDB(config DBConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CloseDB is registered as the deactivation hook of the *sql.DB singleton.
func CloseDB(instance any) error {
	db, ok := instance.(*sql.DB)
	if !ok {
		return fmt.Errorf("expected *sql.DB, got %T", instance)
	}
	return db.Close()
}
