package output

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/phyten/commentx/internal/engine"
)

// SQLiteSchemaVersion は comments テーブルの版
const SQLiteSchemaVersion = 1

// WriteSQLite stores items in the SQLite database at path, creating the schema
// on first use. Rows from earlier runs are kept; every call is one transaction.
func WriteSQLite(ctx context.Context, path string, items []engine.Item) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := createSchema(ctx, db); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comments (uri, file, lang, kind, start_offset, start_line, start_col, end_line, end_col, byte_start, byte_end, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		_, err := stmt.ExecContext(ctx,
			it.URI,
			it.File,
			it.Lang,
			string(it.Kind),
			it.Offset,
			it.Span.StartLine,
			it.Span.StartCol,
			it.Span.EndLine,
			it.Span.EndCol,
			it.Span.ByteStart,
			it.Span.ByteEnd,
			it.Text,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting comment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return err
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", SQLiteSchemaVersion); err != nil {
			return err
		}
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uri TEXT NOT NULL,
			file TEXT NOT NULL,
			lang TEXT NOT NULL,
			kind TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			start_col INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_col INTEGER NOT NULL,
			byte_start INTEGER NOT NULL,
			byte_end INTEGER NOT NULL,
			comment TEXT NOT NULL
		)
	`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_comments_file ON comments(file)")
	return err
}
