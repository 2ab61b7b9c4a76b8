package lookup

// DescColumn maps a source description column onto its canonical output name.
// A handful of lookup files carry description columns whose names drifted
// from the fact-file convention (workscht vs wrkscht), so the mapping is
// explicit per domain.
type DescColumn struct {
	Source string
	Output string
}

// Domain describes one per-quarter lookup table.
type Domain struct {
	Name      string
	File      string
	KeyColumn string
	Descs     []DescColumn

	// KeyIsDescription marks domains whose file carries only the code column;
	// the code itself serves as the description (DTgsegrd).
	KeyIsDescription bool
	// DescFallbackOutput names the output column for positional fallback: when
	// none of the named Descs exist, the column after the key is used.
	DescFallbackOutput string
	// PadKeyWidth left-pads the join key with zeros to this width, on both the
	// lookup side and the fact side (location codes).
	PadKeyWidth int
	// Joined is false for tables loaded for completeness but never joined
	// against fact rows (DTdate).
	Joined bool
}

// Domains lists every lookup table a quarter may ship. Files absent for a
// given quarter are expected for early eras (DTpp does not exist before 2016)
// and are not errors.
var Domains = []Domain{
	{Name: "agelvl", File: "DTagelvl.txt", KeyColumn: "agelvl",
		Descs: []DescColumn{{"agelvlt", "agelvlt"}}, Joined: true},
	{Name: "agency", File: "DTagy.txt", KeyColumn: "agysub",
		Descs: []DescColumn{{"agy", "agy"}, {"agysubt", "agysubt"}}, Joined: true},
	{Name: "date", File: "DTdate.txt", KeyColumn: "datecode",
		Descs: []DescColumn{{"datecodet", "datecodet"}}, Joined: false},
	{Name: "education", File: "DTedlvl.txt", KeyColumn: "edlvl",
		Descs: []DescColumn{{"edlvlt", "edlvlt"}}, Joined: true},
	{Name: "gsegrd", File: "DTgsegrd.txt", KeyColumn: "gsegrd",
		KeyIsDescription: true, DescFallbackOutput: "gsegrdt", Joined: true},
	{Name: "location", File: "DTloc.txt", KeyColumn: "loc",
		Descs: []DescColumn{{"loct", "loct"}}, PadKeyWidth: 2, Joined: true},
	{Name: "loslvl", File: "DTloslvl.txt", KeyColumn: "loslvl",
		Descs: []DescColumn{{"loslvlt", "loslvlt"}}, Joined: true},
	{Name: "occupation", File: "DTocc.txt", KeyColumn: "occ",
		Descs: []DescColumn{{"occt", "occt"}, {"occfam", "occfam"}, {"occfamt", "occfamt"}}, Joined: true},
	{Name: "patco", File: "DTpatco.txt", KeyColumn: "patco",
		Descs: []DescColumn{{"patcot", "patcot"}}, Joined: true},
	{Name: "payplan", File: "DTpp.txt", KeyColumn: "pp",
		Descs: []DescColumn{{"ppt", "ppt"}}, Joined: true},
	{Name: "ppgrd", File: "DTppgrd.txt", KeyColumn: "ppgrd",
		Descs: []DescColumn{{"ppgrdt", "ppgrdt"}}, DescFallbackOutput: "ppgrdt", Joined: true},
	{Name: "salary_level", File: "DTsallvl.txt", KeyColumn: "sallvl",
		Descs: []DescColumn{{"sallvlt", "sallvlt"}}, Joined: true},
	{Name: "stemocc", File: "DTstemocc.txt", KeyColumn: "stemocc",
		Descs: []DescColumn{{"stemocct", "stemocct"}}, Joined: true},
	{Name: "supervisory", File: "DTsuper.txt", KeyColumn: "supervis",
		Descs: []DescColumn{{"supervist", "supervist"}}, Joined: true},
	{Name: "appointment", File: "DTtoa.txt", KeyColumn: "toa",
		Descs: []DescColumn{{"toat", "toat"}}, Joined: true},
	{Name: "work_schedule", File: "DTwrksch.txt", KeyColumn: "worksch",
		Descs: []DescColumn{{"workscht", "wrkscht"}, {"wrkscht", "wrkscht"}}, Joined: true},
	{Name: "work_status", File: "DTwkstat.txt", KeyColumn: "workstat",
		Descs: []DescColumn{{"workstatt", "wkstatt"}, {"wkstatt", "wkstatt"}}, Joined: true},
}

// DomainByName returns the domain entry for a lookup table name.
func DomainByName(name string) (Domain, bool) {
	for _, d := range Domains {
		if d.Name == name {
			return d, true
		}
	}
	return Domain{}, false
}
