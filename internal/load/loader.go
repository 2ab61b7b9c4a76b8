// Package load bulk-loads denormalized per-quarter artifacts into Postgres
// for downstream SQL analysis. It is an optional export target; the CSV
// artifacts remain the primary output.
package load

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fedscope-etl/internal/debug"
	"github.com/fedscope-etl/internal/schema"
)

// Loader loads artifacts into the employment_denormalized table.
type Loader struct {
	db *sql.DB
}

// NewLoader creates a new loader
func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// EnsureSchema creates the denormalized table and its indexes if missing.
// Everything is text except year and employment; salary and los are numeric.
func (l *Loader) EnsureSchema() error {
	cols := schema.Columns()
	defs := make([]string, 0, len(cols))
	for _, col := range cols {
		switch col {
		case "year", "employment":
			defs = append(defs, col+" integer")
		case "salary", "los":
			defs = append(defs, col+" numeric")
		default:
			defs = append(defs, col+" text")
		}
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS employment_denormalized (%s)", strings.Join(defs, ", "))
	if _, err := l.db.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create employment_denormalized: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_denorm_dataset ON employment_denormalized (dataset_key)",
		"CREATE INDEX IF NOT EXISTS idx_denorm_year ON employment_denormalized (year)",
		"CREATE INDEX IF NOT EXISTS idx_denorm_agysub ON employment_denormalized (agysub)",
	}
	for _, indexSQL := range indexes {
		if _, err := l.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// LoadArtifacts loads every artifact in outputDir. Each quarter is replaced
// wholesale (delete then insert) so reloading is idempotent.
func (l *Loader) LoadArtifacts(localDebug bool, outputDir string) (int, error) {
	if err := l.EnsureSchema(); err != nil {
		return 0, err
	}

	matches, err := filepath.Glob(filepath.Join(outputDir, "fedscope_employment_*.csv"))
	if err != nil {
		return 0, fmt.Errorf("failed to list artifacts: %w", err)
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("no artifacts found in %s", outputDir)
	}
	sort.Strings(matches)

	total := 0
	for _, path := range matches {
		count, err := l.loadArtifact(localDebug, path)
		if err != nil {
			return total, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
		}
		total += count
		debug.Output(localDebug, "loaded %d rows from %s", count, filepath.Base(path))
	}
	return total, nil
}

// loadArtifact streams one quarter's artifact into the table inside a
// transaction.
func (l *Loader) loadArtifact(localDebug bool, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	want := schema.Columns()
	if len(header) != len(want) {
		return 0, fmt.Errorf("artifact has %d columns, canonical schema has %d", len(header), len(want))
	}

	tx, err := l.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// First row carries the dataset_key; peek it to clear the quarter.
	first, err := reader.Read()
	if err == io.EOF {
		return 0, tx.Commit()
	}
	if err != nil {
		return 0, err
	}
	datasetKey := first[0]
	if _, err := tx.Exec("DELETE FROM employment_denormalized WHERE dataset_key = $1", datasetKey); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", datasetKey, err)
	}

	stmt, err := tx.Prepare(insertSQL(want))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	record := first
	for {
		args := make([]interface{}, len(want))
		for i, v := range record {
			args[i] = nullIfEmpty(v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return count, fmt.Errorf("failed to insert row %d: %w", count+1, err)
		}
		count++
		debug.Progress(localDebug, count, 10000, "loaded %d rows from %s", count, filepath.Base(path))

		record, err = reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("failed to commit: %w", err)
	}
	return count, nil
}

func insertSQL(cols []string) string {
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO employment_denormalized (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
