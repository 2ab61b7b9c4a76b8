package assembler

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeQuarter lays out one synthetic extracted quarter: a dataset directory
// holding a FACTDATA file and its lookup tables.
func writeQuarter(t *testing.T, extractedDir, dirName, factName, factContent string, lookups map[string]string) {
	t.Helper()
	dir := filepath.Join(extractedDir, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dirName, err)
	}
	files := map[string]string{factName: factContent}
	for name, content := range lookups {
		files[name] = content
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func readArtifact(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	return records
}

func TestRunSingleQuarter(t *testing.T) {
	extractedDir := t.TempDir()
	outputDir := t.TempDir()

	// Three fact rows; the agency table duplicates one code and the third row
	// carries a location code the lookup table does not know.
	writeQuarter(t, extractedDir, "FedScope_Employment_September_2018",
		"FACTDATA_SEP2018.TXT",
		"AGYSUB,LOC,EMPLOYMENT,SALARY,LOS\n"+
			"AF03,48,1,65000,12.3\n"+
			"TR40,48,1,*****,5.0\n"+
			"AF03,99,1,52000,8.0\n",
		map[string]string{
			"DTagy.txt": "AGYSUB,AGY,AGYSUBT\nAF03,AF,AIR FORCE\nTR40,TR,TREASURY OLD\nTR40,TR,TREASURY NEW\n",
			"DTloc.txt": "LOC,LOCT\n48,TEXAS\n",
		})

	a := New(Options{ExtractedDir: extractedDir, OutputDir: outputDir, Workers: 2})
	report, err := a.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Succeeded != 1 || report.Failed != 0 {
		t.Errorf("succeeded = %d, failed = %d, want 1 and 0", report.Succeeded, report.Failed)
	}
	if report.TotalRecords != 3 {
		t.Errorf("total records = %d, want 3", report.TotalRecords)
	}
	if report.DuplicateEvents != 1 {
		t.Errorf("duplicate events = %d, want 1", report.DuplicateEvents)
	}
	if report.OrphanEvents != 1 {
		t.Errorf("orphan events = %d, want 1", report.OrphanEvents)
	}

	records := readArtifact(t, filepath.Join(outputDir, "fedscope_employment_September_2018.csv"))
	if len(records) != 4 {
		t.Fatalf("artifact has %d lines, want header plus 3 rows", len(records))
	}
	col := make(map[string]int)
	for i, name := range records[0] {
		col[name] = i
	}
	// Duplicate resolution kept the first TREASURY entry.
	if got := records[2][col["agysubt"]]; got != "TREASURY OLD" {
		t.Errorf("agysubt = %q, want first-occurrence TREASURY OLD", got)
	}
	// Redacted salary is null, never zero.
	if got := records[2][col["salary"]]; got != "" {
		t.Errorf("salary = %q, want null", got)
	}
	// The orphan location code keeps its code with a null description.
	if got := records[3][col["loc"]]; got != "99" {
		t.Errorf("loc = %q, want 99", got)
	}
	if got := records[3][col["loct"]]; got != "" {
		t.Errorf("loct = %q, want null", got)
	}

	for _, name := range []string{"run_report.json", "lookup_duplicates_log.json", "lookup_duplicates_summary.txt"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

// A quarter whose artifact already exists is skipped without reprocessing
// unless forced.
func TestRunIdempotent(t *testing.T) {
	extractedDir := t.TempDir()
	outputDir := t.TempDir()

	writeQuarter(t, extractedDir, "FedScope_Employment_June_2013",
		"FACTDATA_JUN2013.TXT",
		"AGYSUB,LOC,EMPLOYMENT,SALARY,LOS\nAF03,48,1,65000,12.3\n",
		map[string]string{"DTloc.txt": "LOC,LOCT\n48,TEXAS\n"})

	a := New(Options{ExtractedDir: extractedDir, OutputDir: outputDir, Workers: 1})
	if _, err := a.Run(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	report, err := a.Run()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if report.Skipped != 1 || report.Succeeded != 0 {
		t.Errorf("second run skipped = %d, succeeded = %d, want 1 and 0", report.Skipped, report.Succeeded)
	}

	forced := New(Options{ExtractedDir: extractedDir, OutputDir: outputDir, Workers: 1, Force: true})
	report, err = forced.Run()
	if err != nil {
		t.Fatalf("forced run failed: %v", err)
	}
	if report.Succeeded != 1 || report.Skipped != 0 {
		t.Errorf("forced run succeeded = %d, skipped = %d, want 1 and 0", report.Succeeded, report.Skipped)
	}
}

// One unparseable dataset fails alone; the rest of the corpus completes.
func TestRunIsolatesFailedDataset(t *testing.T) {
	extractedDir := t.TempDir()
	outputDir := t.TempDir()

	writeQuarter(t, extractedDir, "FedScope_Employment_March_2013",
		"FACTDATA_MAR2013.TXT",
		"AGYSUB,LOC,EMPLOYMENT,SALARY,LOS\nAF03,48,1,65000,12.3\n",
		map[string]string{"DTloc.txt": "LOC,LOCT\n48,TEXAS\n"})

	// A dataset directory with no FACTDATA file at all.
	badDir := filepath.Join(extractedDir, "FedScope_Employment_June_2013")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatal(err)
	}

	a := New(Options{ExtractedDir: extractedDir, OutputDir: outputDir, Workers: 2})
	report, err := a.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("succeeded = %d, failed = %d, want 1 and 1", report.Succeeded, report.Failed)
	}
	if len(report.Failures) != 1 || !strings.Contains(report.Failures[0], "2013_June") {
		t.Errorf("failures = %v, want one entry for 2013_June", report.Failures)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "fedscope_employment_March_2013.csv")); err != nil {
		t.Errorf("healthy quarter's artifact missing: %v", err)
	}
}

// An unrecognized fact column is corpus-fatal: the run reports the column and
// returns an error instead of silently dropping data.
func TestRunUnknownColumnIsFatal(t *testing.T) {
	extractedDir := t.TempDir()
	outputDir := t.TempDir()

	writeQuarter(t, extractedDir, "FedScope_Employment_March_2026",
		"FACTDATA_MAR2026.TXT",
		"AGYSUB,LOC,TELEWORK,EMPLOYMENT,SALARY,LOS\nAF03,48,Y,1,65000,12.3\n",
		map[string]string{"DTloc.txt": "LOC,LOCT\n48,TEXAS\n"})

	a := New(Options{ExtractedDir: extractedDir, OutputDir: outputDir, Workers: 1})
	report, err := a.Run()
	if err == nil {
		t.Fatal("expected corpus-fatal error for unrecognized column")
	}
	if report == nil {
		t.Fatal("report should still be produced")
	}
	if len(report.UnknownColumns) != 1 || report.UnknownColumns[0] != "TELEWORK" {
		t.Errorf("unknown columns = %v, want [TELEWORK]", report.UnknownColumns)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "fedscope_employment_March_2026.csv")); err == nil {
		t.Error("no artifact should exist for the failed quarter")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Pending, "Pending"},
		{Exported, "Exported"},
		{Failed, "Failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Pending.Terminal() || Denormalized.Terminal() {
		t.Error("intermediate states must not be terminal")
	}
	if !Exported.Terminal() || !Failed.Terminal() {
		t.Error("exported and failed are terminal")
	}
}
