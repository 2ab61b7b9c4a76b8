package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ArtifactStats summarizes one quarter's artifact for validation.
type ArtifactStats struct {
	File    string
	Records int
	// NullPct maps checked columns to their null percentage.
	NullPct map[string]float64
}

// checkedColumns are the columns whose null rates matter for data quality:
// salary is legitimately redacted, descriptions go null on orphan codes.
var checkedColumns = []string{"salary", "agysubt", "occt", "loct", "ppgrdt"}

// ValidateArtifacts scans every artifact in the output directory and reports
// record counts and null percentages on the checked columns.
func ValidateArtifacts(outputDir string) ([]ArtifactStats, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "fedscope_employment_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no artifacts found in %s", outputDir)
	}
	sort.Strings(matches)

	stats := make([]ArtifactStats, 0, len(matches))
	for _, path := range matches {
		s, err := validateArtifact(path)
		if err != nil {
			return stats, fmt.Errorf("failed to validate %s: %w", filepath.Base(path), err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func validateArtifact(path string) (ArtifactStats, error) {
	stats := ArtifactStats{File: filepath.Base(path), NullPct: make(map[string]float64)}

	f, err := os.Open(path)
	if err != nil {
		return stats, err
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return stats, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	nulls := make(map[string]int, len(checkedColumns))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Records++

		for _, name := range checkedColumns {
			idx, ok := col[name]
			if !ok || idx >= len(record) || record[idx] == "" {
				nulls[name]++
			}
		}
	}

	for _, name := range checkedColumns {
		if stats.Records > 0 {
			stats.NullPct[name] = float64(nulls[name]) / float64(stats.Records) * 100
		}
	}
	return stats, nil
}
