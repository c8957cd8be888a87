package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"iconscrape/internal/results"

	_ "modernc.org/sqlite"
)

const schema = `
create table if not exists results (
	key text primary key,
	name text not null default '',
	main_category text not null default '',
	sub_category text not null default '',
	file text not null default '',
	error text not null default ''
);
`

const upsert = `
insert into results (key, name, main_category, sub_category, file, error)
values (?, ?, ?, ?, ?, ?)
on conflict (key) do update set
	name = excluded.name,
	main_category = excluded.main_category,
	sub_category = excluded.sub_category,
	file = excluded.file,
	error = excluded.error
`

// SQLiteSink mirrors every snapshot into a queryable SQLite table.
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, snapshot map[string]results.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for key, e := range snapshot {
		_, err := stmt.ExecContext(ctx, key, e.Name, e.MainCategory, e.SubCategory, e.File, e.Error)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// DB exposes the underlying handle for queries.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
