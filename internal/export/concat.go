package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fedscope-etl/internal/debug"
)

// Concatenate streams every per-quarter artifact in the output directory
// into one combined table. Artifacts share the canonical header, so the
// header is written once and each file contributes its data rows. Files are
// processed in name order for reproducibility.
func Concatenate(outputDir, destPath string, localDebug bool) (int, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "fedscope_employment_*.csv"))
	if err != nil {
		return 0, fmt.Errorf("failed to list artifacts: %w", err)
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("no artifacts found in %s", outputDir)
	}
	sort.Strings(matches)

	dest, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create combined file: %w", err)
	}
	defer dest.Close()

	writer := csv.NewWriter(dest)
	defer writer.Flush()

	total := 0
	headerWritten := false

	for _, path := range matches {
		rows, err := appendArtifact(writer, path, &headerWritten)
		if err != nil {
			return total, fmt.Errorf("failed to append %s: %w", filepath.Base(path), err)
		}
		total += rows
		debug.Output(localDebug, "appended %d rows from %s", rows, filepath.Base(path))
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return total, fmt.Errorf("failed to flush combined file: %w", err)
	}
	return total, nil
}

func appendArtifact(writer *csv.Writer, path string, headerWritten *bool) (int, error) {
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
	if !*headerWritten {
		if err := writer.Write(header); err != nil {
			return 0, err
		}
		*headerWritten = true
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if err := writer.Write(record); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}
