package denorm

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fedscope-etl/internal/dataset"
	"github.com/fedscope-etl/internal/lookup"
	"github.com/fedscope-etl/internal/schema"
)

var testHeader = []string{"AGYSUB", "LOC", "AGELVL", "EDLVL", "GSEGRD", "LOSLVL",
	"OCC", "PATCO", "PP", "PPGRD", "SALLVL", "STEMOCC", "SUPERVIS", "TOA",
	"WORKSCH", "WORKSTAT", "DATECODE", "EMPLOYMENT", "SALARY", "LOS"}

// testRecord returns a fact record aligned with testHeader.
func testRecord() []string {
	return []string{"AF03", "48", "E", "13", "12", "F",
		"0302", "P", "GS", "GS-12", "J", "XXXX", "8", "10",
		"F", "1", "201809", "1", "65000", "12.3"}
}

func testLookups(t *testing.T, files map[string]string) lookup.Set {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	set, _, err := lookup.LoadDir(dir, "2018_September", false)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	return set
}

func testPlan(t *testing.T) *schema.Plan {
	t.Helper()
	plan, err := schema.BuildPlan("2018_September", testHeader)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	return plan
}

func rowValues(d *Denormalizer, record []string) map[string]string {
	row := d.Row(record)
	out := make(map[string]string, len(row))
	for i, col := range d.Columns() {
		out[col] = row[i]
	}
	return out
}

func TestRowResolvesDescriptions(t *testing.T) {
	lookups := testLookups(t, map[string]string{
		"DTagy.txt": "AGYSUB,AGY,AGYSUBT\nAF03,AF,AIR FORCE MATERIEL COMMAND\n",
		"DTloc.txt": "LOC,LOCT\n48,TEXAS\n",
		"DTocc.txt": "OCC,OCCT,OCC,OCCFAMT\n0302,MESSENGER,0300,CLERICAL GROUP\n",
	})
	d := New(dataset.Key{Year: 2018, Quarter: "September"}, testPlan(t), lookups)

	got := rowValues(d, testRecord())

	want := map[string]string{
		"dataset_key": "2018_September",
		"quarter":     "September",
		"year":        "2018",
		"agysub":      "AF03",
		"agy":         "AF",
		"agysubt":     "AIR FORCE MATERIEL COMMAND",
		"loc":         "48",
		"loct":        "TEXAS",
		"occ":         "0302",
		"occt":        "MESSENGER",
		"occfam":      "0300",
		"occfamt":     "CLERICAL GROUP",
		"wrksch":      "F",
		"wkstat":      "1",
		"employment":  "1",
		"salary":      "65000",
		"los":         "12.3",
	}
	for col, v := range want {
		if got[col] != v {
			t.Errorf("%s = %q, want %q", col, got[col], v)
		}
	}

	if d.OrphanTotal() != 0 {
		t.Errorf("orphans = %v, want none", d.Orphans())
	}
}

// The same record and lookups must always produce byte-identical output.
func TestRowDeterministic(t *testing.T) {
	lookups := testLookups(t, map[string]string{
		"DTagy.txt": "AGYSUB,AGY,AGYSUBT\nAF03,AF,AIR FORCE MATERIEL COMMAND\n",
		"DTloc.txt": "LOC,LOCT\n48,TEXAS\n",
	})
	d := New(dataset.Key{Year: 2018, Quarter: "September"}, testPlan(t), lookups)

	first := d.Row(testRecord())
	for i := 0; i < 10; i++ {
		if next := d.Row(testRecord()); !reflect.DeepEqual(first, next) {
			t.Fatalf("run %d differed: %v vs %v", i, first, next)
		}
	}
}

// A redacted code yields a null code and null descriptions, never a
// placeholder and never an orphan count.
func TestRowRedactedCode(t *testing.T) {
	lookups := testLookups(t, map[string]string{
		"DTloc.txt": "LOC,LOCT\n48,TEXAS\n",
	})
	d := New(dataset.Key{Year: 2018, Quarter: "September"}, testPlan(t), lookups)

	record := testRecord()
	record[1] = "****" // loc

	got := rowValues(d, record)
	if got["loc"] != "" || got["loct"] != "" {
		t.Errorf("loc = %q, loct = %q, want both null", got["loc"], got["loct"])
	}
	if d.OrphanTotal() != 0 {
		t.Errorf("redaction must not count as orphan, got %v", d.Orphans())
	}
}

// A code with no lookup entry keeps the code, nulls the descriptions, and
// bumps the orphan counter for that table.
func TestRowOrphanCode(t *testing.T) {
	lookups := testLookups(t, map[string]string{
		"DTloc.txt": "LOC,LOCT\n48,TEXAS\n",
	})
	d := New(dataset.Key{Year: 2018, Quarter: "September"}, testPlan(t), lookups)

	record := testRecord()
	record[1] = "99" // loc code absent from the table

	got := rowValues(d, record)
	if got["loc"] != "99" {
		t.Errorf("loc = %q, want orphan code kept", got["loc"])
	}
	if got["loct"] != "" {
		t.Errorf("loct = %q, want null", got["loct"])
	}
	if d.Orphans()["location"] != 1 {
		t.Errorf("orphans = %v, want location: 1", d.Orphans())
	}
}

// When a whole lookup table is absent for the quarter, descriptions stay null
// without counting orphans; the condition is expected, not a data defect.
func TestRowAbsentTable(t *testing.T) {
	d := New(dataset.Key{Year: 2018, Quarter: "September"}, testPlan(t), lookup.Set{})

	got := rowValues(d, testRecord())
	if got["loc"] != "48" {
		t.Errorf("loc = %q, want code kept", got["loc"])
	}
	if got["loct"] != "" {
		t.Errorf("loct = %q, want null", got["loct"])
	}
	if d.OrphanTotal() != 0 {
		t.Errorf("absent tables must not count orphans, got %v", d.Orphans())
	}
}

// Location codes are zero-padded on the fact side so single-digit state codes
// join against the padded lookup keys.
func TestRowPadsLocationCode(t *testing.T) {
	lookups := testLookups(t, map[string]string{
		"DTloc.txt": "LOC,LOCT\n9,MAINE\n",
	})
	d := New(dataset.Key{Year: 2018, Quarter: "September"}, testPlan(t), lookups)

	record := testRecord()
	record[1] = "9"

	got := rowValues(d, record)
	if got["loc"] != "09" {
		t.Errorf("loc = %q, want padded 09", got["loc"])
	}
	if got["loct"] != "MAINE" {
		t.Errorf("loct = %q, want MAINE", got["loct"])
	}
}

func TestRowRedactedSalary(t *testing.T) {
	d := New(dataset.Key{Year: 2018, Quarter: "September"}, testPlan(t), lookup.Set{})

	record := testRecord()
	record[18] = "*****" // salary

	got := rowValues(d, record)
	if got["salary"] != "" {
		t.Errorf("salary = %q, want null", got["salary"])
	}
	if got["employment"] != "1" {
		t.Errorf("employment = %q, want constant 1", got["employment"])
	}
}

// A quarter without the PP column still produces the full canonical header;
// the pp and ppt columns are simply null on every row.
func TestRowStableSchemaAcrossEras(t *testing.T) {
	earlyHeader := []string{"AGYSUB", "LOC", "AGELVL", "EDLVL", "GSEGRD", "LOSLVL",
		"OCC", "PATCO", "PPGRD", "SALLVL", "SUPERVIS", "TOA",
		"WORKSCH", "WORKSTAT", "DATECODE", "EMPLOYMENT", "SALARY", "LOS"}
	plan, err := schema.BuildPlan("2001_June", earlyHeader)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}

	d := New(dataset.Key{Year: 2001, Quarter: "June"}, plan, lookup.Set{})
	record := []string{"AF03", "48", "E", "13", "12", "F",
		"0302", "P", "GS-12", "J", "8", "10",
		"F", "1", "200106", "1", "52000", "8"}

	if !reflect.DeepEqual(d.Columns(), schema.Columns()) {
		t.Fatal("early-era header must equal the canonical header")
	}

	got := rowValues(d, record)
	if got["pp"] != "" || got["ppt"] != "" {
		t.Errorf("pp = %q, ppt = %q, want null for pre-2016 quarters", got["pp"], got["ppt"])
	}
	if got["ppgrd"] != "GS-12" {
		t.Errorf("ppgrd = %q, want GS-12", got["ppgrd"])
	}
}
