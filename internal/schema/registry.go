// Package schema owns the canonical output schema and maps each quarter's
// observed fact-table columns onto it. The canonical schema is the union of
// every field observed across the corpus since 1998 and is append-only: new
// fields may be registered, existing ones never change meaning.
package schema

// Kind classifies a canonical field.
type Kind int

const (
	// Meta fields restate the dataset identity on every row.
	Meta Kind = iota
	// Code fields carry short coded values resolved against lookup tables.
	Code
	// Data fields carry measured or constant values.
	Data
)

// Field is one entry in the canonical field registry.
type Field struct {
	// Name is the canonical output column name.
	Name string
	// Source is the fact-file header name that feeds this field. Empty for
	// meta fields, which are synthesized. Matching is case-insensitive and
	// exact; a couple of fields were renamed on output (worksch -> wrksch).
	Source string
	Kind   Kind
	// Domain names the lookup table used to resolve a code field.
	Domain string
	// Descs lists the canonical description columns this field contributes,
	// in output order. Naming convention: code field x pairs with x + "t".
	Descs []string
	// Since is the first year the source column appears in fact files.
	// Zero means present since the start of the corpus (1998).
	Since int
}

// Registry is the canonical field registry, in output order for each kind.
var Registry = []Field{
	{Name: "dataset_key", Kind: Meta},
	{Name: "quarter", Kind: Meta},
	{Name: "year", Kind: Meta},

	{Name: "agysub", Source: "agysub", Kind: Code, Domain: "agency", Descs: []string{"agy", "agysubt"}},
	{Name: "loc", Source: "loc", Kind: Code, Domain: "location", Descs: []string{"loct"}},
	{Name: "agelvl", Source: "agelvl", Kind: Code, Domain: "agelvl", Descs: []string{"agelvlt"}},
	{Name: "edlvl", Source: "edlvl", Kind: Code, Domain: "education", Descs: []string{"edlvlt"}},
	{Name: "gsegrd", Source: "gsegrd", Kind: Code, Domain: "gsegrd", Descs: []string{"gsegrdt"}},
	{Name: "loslvl", Source: "loslvl", Kind: Code, Domain: "loslvl", Descs: []string{"loslvlt"}},
	{Name: "occ", Source: "occ", Kind: Code, Domain: "occupation", Descs: []string{"occfam", "occt", "occfamt"}},
	{Name: "patco", Source: "patco", Kind: Code, Domain: "patco", Descs: []string{"patcot"}},
	{Name: "pp", Source: "pp", Kind: Code, Domain: "payplan", Descs: []string{"ppt"}, Since: 2016},
	{Name: "ppgrd", Source: "ppgrd", Kind: Code, Domain: "ppgrd", Descs: []string{"ppgrdt"}},
	{Name: "sallvl", Source: "sallvl", Kind: Code, Domain: "salary_level", Descs: []string{"sallvlt"}},
	{Name: "stemocc", Source: "stemocc", Kind: Code, Domain: "stemocc", Descs: []string{"stemocct"}},
	{Name: "supervis", Source: "supervis", Kind: Code, Domain: "supervisory", Descs: []string{"supervist"}},
	{Name: "toa", Source: "toa", Kind: Code, Domain: "appointment", Descs: []string{"toat"}},
	{Name: "wrksch", Source: "worksch", Kind: Code, Domain: "work_schedule", Descs: []string{"wrkscht"}},
	{Name: "wkstat", Source: "workstat", Kind: Code, Domain: "work_status", Descs: []string{"wkstatt"}},
	{Name: "datecode", Source: "datecode", Kind: Code, Domain: "date"},

	{Name: "employment", Source: "employment", Kind: Data},
	{Name: "salary", Source: "salary", Kind: Data},
	{Name: "los", Source: "los", Kind: Data},
}

// columns is the canonical output header. The ordering is part of the output
// contract, identical for all 73 quarters, and append-only: new fields go at
// the end of their section, existing positions never move. A registry test
// keeps this list and Registry in sync.
var columns = []string{
	"dataset_key", "quarter", "year",
	"agysub", "loc", "agelvl", "edlvl", "gsegrd", "loslvl", "occ", "patco",
	"pp", "ppgrd", "sallvl", "stemocc", "supervis", "toa", "wrksch", "wkstat",
	"datecode",
	"employment", "salary", "los",
	"agelvlt", "agy", "agysubt", "edlvlt", "gsegrdt", "loct", "loslvlt",
	"occfam", "occt", "occfamt", "patcot", "ppt", "ppgrdt", "sallvlt",
	"stemocct", "supervist", "toat", "wrkscht", "wkstatt",
}

// Columns returns the canonical output header shared by every quarter.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// FieldByName returns the registry entry for a canonical field name.
func FieldByName(name string) (Field, bool) {
	for _, f := range Registry {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// sourceIndex maps fact-file header names to registry entries.
func sourceIndex() map[string]Field {
	idx := make(map[string]Field, len(Registry))
	for _, f := range Registry {
		if f.Source != "" {
			idx[f.Source] = f
		}
	}
	return idx
}
