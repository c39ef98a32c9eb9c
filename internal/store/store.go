// Package store persists precomputed tables to a SQLite database. Each export
// replaces its table as a whole inside one transaction, the same
// full-overwrite semantics as the flat files.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

// Default table names.
const (
	TableMeans    = "means"
	TableYouth    = "youth"
	TableExtremes = "extremes"
	TableTax      = "tax_summary"
)

// ErrBadTableName rejects table names that are not plain identifiers.
var ErrBadTableName = errors.New("invalid table name")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is an open SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("ensure db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// ExportWide replaces table with w: TEXT key columns Country and Wave, one
// REAL column per question, NULL for absent values.
func (s *Store) ExportWide(ctx context.Context, table string, w *survey.Wide) error {
	cols := []column{{name: survey.DefaultKeyNames[0], typ: "TEXT NOT NULL"}, {name: survey.DefaultKeyNames[1], typ: "TEXT NOT NULL"}}
	for _, q := range w.Questions {
		cols = append(cols, column{name: q, typ: "REAL"})
	}
	rows := make([][]any, 0, len(w.Rows))
	for _, r := range w.Rows {
		rec := []any{r.Country, r.Wave}
		for _, q := range w.Questions {
			if v, ok := r.Values[q]; ok {
				rec = append(rec, v)
			} else {
				rec = append(rec, nil)
			}
		}
		rows = append(rows, rec)
	}
	return s.replace(ctx, table, cols, rows)
}

// ExportPricing replaces table with the carbon pricing summary.
func (s *Store) ExportPricing(ctx context.Context, table string, summary []pricing.Adoption) error {
	cols := []column{
		{name: pricing.SummaryHeader[0], typ: "TEXT NOT NULL"},
		{name: pricing.SummaryHeader[1], typ: "TEXT"},
		{name: pricing.SummaryHeader[2], typ: "INTEGER NOT NULL"},
		{name: pricing.SummaryHeader[3], typ: "INTEGER NOT NULL"},
	}
	rows := make([][]any, 0, len(summary))
	for _, a := range summary {
		rows = append(rows, []any{a.ISO3, a.Country, a.CarbonTax, a.ETS})
	}
	return s.replace(ctx, table, cols, rows)
}

// ReadWide loads a table written by ExportWide.
func (s *Store) ReadWide(ctx context.Context, table string) (*survey.Wide, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrBadTableName, table)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quote(table)+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}
	if len(names) < 2 {
		return nil, fmt.Errorf("table %s: need country and wave columns", table)
	}
	l := &survey.Long{Questions: append([]string(nil), names[2:]...)}
	for rows.Next() {
		var k survey.Key
		vals := make([]sql.NullFloat64, len(names)-2)
		dest := []any{&k.Country, &k.Wave}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		for i, v := range vals {
			if v.Valid {
				l.Cells = append(l.Cells, survey.Cell{Key: k, Question: l.Questions[i], Value: v.Float64})
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return survey.Pivot(l)
}

// Tables lists user tables in name order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type column struct {
	name string
	typ  string
}

func (s *Store) replace(ctx context.Context, table string, cols []column, rows [][]any) (err error) {
	if !identRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrBadTableName, table)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c.name) + " " + c.typ
		names[i] = quote(c.name)
		marks[i] = "?"
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(table), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()
	for i, r := range rows {
		if _, err = stmt.ExecContext(ctx, r...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i+1, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
