package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fedscope-etl/internal/lookup"
)

// DatasetSummary is the per-quarter section of the run report.
type DatasetSummary struct {
	DatasetKey string         `json:"dataset_key"`
	State      string         `json:"state"`
	Records    int            `json:"records"`
	Duplicates int            `json:"duplicate_events"`
	Orphans    map[string]int `json:"orphan_codes,omitempty"`
	Skipped    bool           `json:"skipped,omitempty"`
	Error      string         `json:"error,omitempty"`
	ElapsedMS  int64          `json:"elapsed_ms"`
}

// RunReport is the consolidated result of one corpus run.
type RunReport struct {
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Succeeded       int              `json:"datasets_succeeded"`
	Failed          int              `json:"datasets_failed"`
	Skipped         int              `json:"datasets_skipped"`
	TotalRecords    int              `json:"total_records"`
	DuplicateEvents int              `json:"duplicate_events"`
	OrphanEvents    int              `json:"orphan_events"`
	UnknownColumns  []string         `json:"unknown_columns,omitempty"`
	Failures        []string         `json:"failures,omitempty"`
	Datasets        []DatasetSummary `json:"datasets"`
}

// WriteRunReport persists the consolidated run report as JSON.
func WriteRunReport(outputDir string, report *RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	path := filepath.Join(outputDir, "run_report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

// WriteDuplicateLog persists the duplicate-resolution audit trail twice: a
// machine-readable JSON log grouped by table, and a human-readable summary
// explaining the first-occurrence policy.
func WriteDuplicateLog(outputDir string, events []lookup.DuplicateEvent) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	byTable := make(map[string][]lookup.DuplicateEvent)
	for _, ev := range events {
		byTable[ev.Table] = append(byTable[ev.Table], ev)
	}
	for _, evs := range byTable {
		sort.Slice(evs, func(i, j int) bool {
			if evs[i].DatasetKey != evs[j].DatasetKey {
				return evs[i].DatasetKey < evs[j].DatasetKey
			}
			return evs[i].Code < evs[j].Code
		})
	}

	data, err := json.MarshalIndent(byTable, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal duplicate log: %w", err)
	}
	jsonPath := filepath.Join(outputDir, "lookup_duplicates_log.json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write duplicate log: %w", err)
	}

	var b strings.Builder
	b.WriteString("FedScope Lookup Table Duplicates Summary\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	b.WriteString("This file documents cases where lookup tables contain multiple records\n")
	b.WriteString("for the same code within a dataset. When joining, the first occurrence\n")
	b.WriteString("in file order is kept and the others are discarded.\n\n")
	b.WriteString(fmt.Sprintf("SUMMARY: Found %d duplicate codes across %d tables\n", len(events), len(byTable)))
	b.WriteString("Most duplicates are from early years (1998-2003) when agencies were renamed.\n")

	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	for _, table := range tables {
		evs := byTable[table]
		b.WriteString(fmt.Sprintf("\n%s %s TABLE %s\n", strings.Repeat("=", 20), strings.ToUpper(table), strings.Repeat("=", 20)))
		b.WriteString(fmt.Sprintf("Found %d duplicate codes in this table\n\n", len(evs)))

		for _, ev := range evs {
			b.WriteString(fmt.Sprintf("Dataset: %s | Code: '%s' | %d duplicates\n", ev.DatasetKey, ev.Code, len(ev.Discarded)+1))
			b.WriteString(strings.Repeat("-", 60) + "\n")
			b.WriteString(fmt.Sprintf("KEPT (first occurrence): %s\n", ev.Kept))
			b.WriteString("DISCARDED:\n")
			for i, disc := range ev.Discarded {
				b.WriteString(fmt.Sprintf("   #%d: %s\n", i+1, disc))
			}
			b.WriteString("\n")
		}
	}

	textPath := filepath.Join(outputDir, "lookup_duplicates_summary.txt")
	if err := os.WriteFile(textPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write duplicate summary: %w", err)
	}
	return nil
}
