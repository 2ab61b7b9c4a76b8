package schema

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownColumnError reports a fact-file column that the canonical registry
// does not recognize. This is fatal for the corpus run: an unrecognized
// column means the registry itself needs a deliberate update, and silently
// dropping the data is worse than stopping.
type UnknownColumnError struct {
	DatasetKey string
	Column     string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("dataset %s: unrecognized fact column %q: canonical field registry needs review", e.DatasetKey, e.Column)
}

// Plan maps one quarter's observed fact-file columns onto the canonical
// schema: for each canonical field, either the source column index or
// "absent, emit null".
type Plan struct {
	DatasetKey string
	// index maps canonical field name -> column position in the fact file.
	index map[string]int
	// absent lists canonical fields with no source column this quarter.
	absent []string
}

// BuildPlan matches a fact-file header against the canonical registry.
// Matching is exact and case-insensitive. Canonical fields missing from the
// header are recorded as absent, which is expected for early-era quarters
// (pp does not exist before 2016). Header columns the registry does not know
// produce an UnknownColumnError.
func BuildPlan(datasetKey string, header []string) (*Plan, error) {
	bySource := sourceIndex()

	plan := &Plan{
		DatasetKey: datasetKey,
		index:      make(map[string]int, len(header)),
	}

	seen := make(map[string]bool, len(header))
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, "-", "_")
		// The Latin-1 decode renders a UTF-8 BOM as these three runes.
		name = strings.TrimPrefix(name, "\ufeff")
		name = strings.TrimPrefix(name, "\u00ef\u00bb\u00bf")

		f, ok := bySource[name]
		if !ok {
			return nil, &UnknownColumnError{DatasetKey: datasetKey, Column: raw}
		}
		if !seen[f.Name] {
			plan.index[f.Name] = i
			seen[f.Name] = true
		}
	}

	for _, f := range Registry {
		if f.Source == "" {
			continue
		}
		if !seen[f.Name] {
			plan.absent = append(plan.absent, f.Name)
		}
	}
	sort.Strings(plan.absent)

	return plan, nil
}

// SourceIndex returns the fact-file column position for a canonical field,
// or false when the field is absent this quarter.
func (p *Plan) SourceIndex(name string) (int, bool) {
	i, ok := p.index[name]
	return i, ok
}

// Absent returns the canonical fields that have no source column this
// quarter and will be emitted as null.
func (p *Plan) Absent() []string {
	out := make([]string, len(p.absent))
	copy(out, p.absent)
	return out
}
