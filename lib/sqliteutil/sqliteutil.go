package sqliteutil

import (
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// OpenDB opens an sqlite database at path (":memory:" works) and
// ensures the given schema exists.
func OpenDB(schema, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return applySchema(db, schema)
}

// OpenLibsql connects to a remote libsql database instead of a local
// file, e.g. "libsql://dbname.turso.io?authToken=...".
func OpenLibsql(schema, url string) (*sql.DB, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, err
	}
	return applySchema(db, schema)
}

func applySchema(db *sql.DB, schema string) (*sql.DB, error) {
	_, err := db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return nil, err
	}
	return db, nil
}
