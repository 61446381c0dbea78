package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/miku/nipsharvest/paper"
	_ "modernc.org/sqlite"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS papers (
	format TEXT NOT NULL,
	source_id TEXT,
	year TEXT,
	title TEXT,
	abstract TEXT,
	full_text TEXT,
	pdf_url TEXT
);
CREATE TABLE IF NOT EXISTS paper_authors (
	format TEXT NOT NULL,
	source_id TEXT,
	first_name TEXT,
	last_name TEXT,
	institution TEXT,
	name TEXT
);
CREATE INDEX IF NOT EXISTS idx_paper_authors_source_id ON paper_authors(source_id);
`

func insertStatement(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (format, %s) VALUES (?%s)",
		table,
		strings.Join(columns, ", "),
		strings.Repeat(", ?", len(columns)))
}

func args(schema paper.Schema, vs []sql.NullString) []any {
	result := []any{schema.String()}
	for _, v := range vs {
		result = append(result, v)
	}
	return result
}

// WriteDatabase stores papers and authors in a SQLite database, using the
// same column union as the CSV tables. Absent fields are NULL. Rows are
// appended to existing tables.
func WriteDatabase(ctx context.Context, path string, papers []paper.Paper, authors []paper.Author) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	paperStmt, err := tx.PrepareContext(ctx, insertStatement("papers", PaperColumns))
	if err != nil {
		return err
	}
	defer paperStmt.Close()
	for _, p := range papers {
		vs, err := PaperValues(p)
		if err != nil {
			return err
		}
		if _, err := paperStmt.ExecContext(ctx, args(p.Schema(), vs)...); err != nil {
			return err
		}
	}
	authorStmt, err := tx.PrepareContext(ctx, insertStatement("paper_authors", AuthorColumns))
	if err != nil {
		return err
	}
	defer authorStmt.Close()
	for _, a := range authors {
		vs, err := AuthorValues(a)
		if err != nil {
			return err
		}
		if _, err := authorStmt.ExecContext(ctx, args(a.Schema(), vs)...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
