// Package export writes the per-quarter denormalized artifacts and the
// cross-corpus audit documents.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fedscope-etl/internal/dataset"
)

// ArtifactName returns the output file name for a quarter.
func ArtifactName(key dataset.Key) string {
	return fmt.Sprintf("fedscope_employment_%s_%d.csv", key.Quarter, key.Year)
}

// ArtifactPath returns the output path for a quarter's artifact.
func ArtifactPath(outputDir string, key dataset.Key) string {
	return filepath.Join(outputDir, ArtifactName(key))
}

// ArtifactWriter streams denormalized rows to a quarter's output artifact.
// Rows are written to a temporary file and renamed on Close so a failed run
// never leaves a partial artifact behind.
type ArtifactWriter struct {
	path    string
	tmpPath string
	file    *os.File
	writer  *csv.Writer
	rows    int
}

// NewArtifactWriter creates the output directory if needed and opens a
// writer for one quarter, emitting the canonical header immediately.
func NewArtifactWriter(outputDir string, key dataset.Key, header []string) (*ArtifactWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := ArtifactPath(outputDir, key)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}

	w := &ArtifactWriter{
		path:    path,
		tmpPath: tmpPath,
		file:    file,
		writer:  csv.NewWriter(file),
	}

	if err := w.writer.Write(header); err != nil {
		w.Abort()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return w, nil
}

// Write appends one denormalized row.
func (w *ArtifactWriter) Write(row []string) error {
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (w *ArtifactWriter) Rows() int { return w.rows }

// Close flushes the writer and moves the artifact into place.
func (w *ArtifactWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.Abort()
		return fmt.Errorf("failed to flush artifact: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return nil
}

// Abort discards the partially written artifact.
func (w *ArtifactWriter) Abort() {
	w.file.Close()
	os.Remove(w.tmpPath)
}
