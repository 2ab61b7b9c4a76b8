// Package lookup loads a quarter's code-to-description tables and resolves
// them into deduplicated mappings with an audit trail of discarded entries.
package lookup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fedscope-etl/internal/debug"
)

// ParseError reports a lookup file that could not be parsed. It aborts the
// owning dataset only; the rest of the corpus run continues.
type ParseError struct {
	DatasetKey string
	Table      string
	File       string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset %s: lookup table %s (%s): %v", e.DatasetKey, e.Table, e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateEvent records one code that appeared more than once in a lookup
// file. The first occurrence in file order is kept; every later description
// is listed in Discarded, in file order.
type DuplicateEvent struct {
	DatasetKey string   `json:"dataset_key"`
	Table      string   `json:"table"`
	Code       string   `json:"code"`
	Kept       string   `json:"kept"`
	Discarded  []string `json:"discarded"`
}

// Resolved is one domain's deduplicated code→description mapping for a
// single quarter.
type Resolved struct {
	Domain Domain
	// byCode maps a code to its canonical description columns.
	byCode map[string]map[string]string
}

// Lookup returns the description columns for a code, and whether the code is
// present in the table at all. Missing codes are orphans, handled by policy
// upstream.
func (r *Resolved) Lookup(code string) (map[string]string, bool) {
	descs, ok := r.byCode[code]
	return descs, ok
}

// Len returns the number of distinct codes in the mapping.
func (r *Resolved) Len() int { return len(r.byCode) }

// Set holds every resolved lookup table for one quarter, keyed by domain name.
type Set map[string]*Resolved

// padKey left-pads a join key with zeros where the domain requires it, so
// fact codes like "9" and lookup codes like "09" land on the same key.
func padKey(d Domain, code string) string {
	if d.PadKeyWidth > 0 && len(code) < d.PadKeyWidth {
		return strings.Repeat("0", d.PadKeyWidth-len(code)) + code
	}
	return code
}

// PadFactCode applies the same key normalization to a code read from the
// fact file, keeping both sides of the join on identical keys.
func PadFactCode(domainName, code string) string {
	if d, ok := DomainByName(domainName); ok {
		return padKey(d, code)
	}
	return code
}

// Load reads and resolves one domain's lookup file. Duplicate codes are not
// errors: the first occurrence wins and later ones are recorded as discarded.
func Load(path, datasetKey string, d Domain) (*Resolved, []DuplicateEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &ParseError{DatasetKey: datasetKey, Table: d.Name, File: d.File, Err: err}
	}
	defer f.Close()

	cr := NewSourceReader(f)

	header, err := cr.Read()
	if err != nil {
		return nil, nil, &ParseError{DatasetKey: datasetKey, Table: d.Name, File: d.File, Err: fmt.Errorf("reading header: %w", err)}
	}
	header = CleanHeader(header)

	keyIdx := -1
	for i, col := range header {
		if col == d.KeyColumn {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return nil, nil, &ParseError{DatasetKey: datasetKey, Table: d.Name, File: d.File,
			Err: fmt.Errorf("key column %q not found in header %v", d.KeyColumn, header)}
	}

	// Resolve which source columns feed which canonical description columns.
	descIdx := make(map[string]int) // output name -> source index
	for _, dc := range d.Descs {
		for i, col := range header {
			if col == dc.Source {
				if _, taken := descIdx[dc.Output]; !taken {
					descIdx[dc.Output] = i
				}
			}
		}
	}
	if len(descIdx) == 0 && d.DescFallbackOutput != "" && !d.KeyIsDescription {
		// No named description column matched; fall back to the column after
		// the key, which is where these files keep their description.
		if keyIdx+1 < len(header) {
			descIdx[d.DescFallbackOutput] = keyIdx + 1
		}
	}

	resolved := &Resolved{Domain: d, byCode: make(map[string]map[string]string)}
	var duplicates []DuplicateEvent
	dupIndex := make(map[string]int) // code -> index into duplicates

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &ParseError{DatasetKey: datasetKey, Table: d.Name, File: d.File,
				Err: fmt.Errorf("line %d: %w", line, err)}
		}
		if keyIdx >= len(record) {
			return nil, nil, &ParseError{DatasetKey: datasetKey, Table: d.Name, File: d.File,
				Err: fmt.Errorf("line %d: %d fields, key column %d missing", line, len(record), keyIdx)}
		}

		code := padKey(d, strings.TrimSpace(record[keyIdx]))
		if code == "" {
			continue
		}

		descs := make(map[string]string, len(descIdx)+1)
		for out, idx := range descIdx {
			if idx < len(record) {
				descs[out] = strings.TrimSpace(record[idx])
			}
		}
		if d.KeyIsDescription && d.DescFallbackOutput != "" {
			descs[d.DescFallbackOutput] = code
		}

		if _, exists := resolved.byCode[code]; exists {
			// First occurrence wins; log everything else.
			if i, seen := dupIndex[code]; seen {
				duplicates[i].Discarded = append(duplicates[i].Discarded, describeRow(descs))
			} else {
				dupIndex[code] = len(duplicates)
				duplicates = append(duplicates, DuplicateEvent{
					DatasetKey: datasetKey,
					Table:      d.Name,
					Code:       code,
					Kept:       describeRow(resolved.byCode[code]),
					Discarded:  []string{describeRow(descs)},
				})
			}
			continue
		}
		resolved.byCode[code] = descs
	}

	return resolved, duplicates, nil
}

// describeRow renders a row's description columns as a single stable string
// for the audit trail.
func describeRow(descs map[string]string) string {
	if len(descs) == 1 {
		for _, v := range descs {
			return v
		}
	}
	keys := make([]string, 0, len(descs))
	for k := range descs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, descs[k]))
	}
	return strings.Join(parts, "; ")
}

// LoadDir loads every lookup table found in a quarter's data directory.
// Files missing entirely are expected for early eras and are skipped; the
// returned Set simply has no entry for those domains.
func LoadDir(dir, datasetKey string, localDebug bool) (Set, []DuplicateEvent, error) {
	set := make(Set, len(Domains))
	var duplicates []DuplicateEvent

	for _, d := range Domains {
		path := filepath.Join(dir, d.File)
		if _, err := os.Stat(path); err != nil {
			debug.Output(localDebug, "lookup file not found, skipping: %s", path)
			continue
		}

		resolved, dups, err := Load(path, datasetKey, d)
		if err != nil {
			return nil, nil, err
		}
		set[d.Name] = resolved
		duplicates = append(duplicates, dups...)
		debug.Output(localDebug, "loaded %d codes into %s (%d duplicates)", resolved.Len(), d.Name, len(dups))
	}

	return set, duplicates, nil
}
