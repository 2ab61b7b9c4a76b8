// Package denorm turns raw fact rows into denormalized canonical rows by
// resolving every coded field against the quarter's lookup tables and
// arranging the result per the schema plan.
package denorm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fedscope-etl/internal/clean"
	"github.com/fedscope-etl/internal/dataset"
	"github.com/fedscope-etl/internal/lookup"
	"github.com/fedscope-etl/internal/schema"
)

// FactParseError reports a fact file that could not be parsed. It aborts the
// owning dataset only.
type FactParseError struct {
	DatasetKey string
	File       string
	Err        error
}

func (e *FactParseError) Error() string {
	return fmt.Sprintf("dataset %s: fact file %s: %v", e.DatasetKey, e.File, e.Err)
}

func (e *FactParseError) Unwrap() error { return e.Err }

// Denormalizer produces one canonical output row per fact row for a single
// quarter. It is deterministic: the same fact row and lookups always yield
// byte-identical output.
type Denormalizer struct {
	key     dataset.Key
	plan    *schema.Plan
	lookups lookup.Set
	columns []string
	orphans map[string]int
}

// New creates a denormalizer for one quarter.
func New(key dataset.Key, plan *schema.Plan, lookups lookup.Set) *Denormalizer {
	return &Denormalizer{
		key:     key,
		plan:    plan,
		lookups: lookups,
		columns: schema.Columns(),
		orphans: make(map[string]int),
	}
}

// Columns returns the output header for rows produced by this denormalizer.
func (d *Denormalizer) Columns() []string {
	return d.columns
}

// Orphans returns the per-lookup-table count of fact codes that had no
// matching lookup entry. Orphans resolve to null descriptions; they are a
// tolerated data-quality condition, not a failure.
func (d *Denormalizer) Orphans() map[string]int {
	out := make(map[string]int, len(d.orphans))
	for k, v := range d.orphans {
		out[k] = v
	}
	return out
}

// OrphanTotal returns the total orphan-code count for the quarter.
func (d *Denormalizer) OrphanTotal() int {
	total := 0
	for _, v := range d.orphans {
		total += v
	}
	return total
}

// Row denormalizes one fact record into canonical column order. Null values
// are emitted as empty strings.
func (d *Denormalizer) Row(record []string) []string {
	values := make(map[string]string, len(d.columns))

	values["dataset_key"] = d.key.String()
	values["quarter"] = d.key.Quarter
	values["year"] = strconv.Itoa(d.key.Year)

	for _, f := range schema.Registry {
		switch f.Kind {
		case schema.Code:
			d.resolveCode(f, record, values)
		case schema.Data:
			values[f.Name] = d.dataValue(f, record)
		}
	}

	row := make([]string, len(d.columns))
	for i, col := range d.columns {
		row[i] = values[col]
	}
	return row
}

// resolveCode fills a code field and its description columns. A null or
// absent code always yields null descriptions; a code with no lookup entry
// yields null descriptions and bumps the orphan counter.
func (d *Denormalizer) resolveCode(f schema.Field, record []string, values map[string]string) {
	raw, present := d.rawValue(f, record)
	if !present {
		return
	}

	code := clean.Code(raw)
	if code == nil {
		return
	}

	normalized := lookup.PadFactCode(f.Domain, *code)
	values[f.Name] = normalized

	if len(f.Descs) == 0 {
		return
	}

	resolved, ok := d.lookups[f.Domain]
	if !ok {
		// Whole lookup table absent this quarter (early-era condition);
		// descriptions stay null without counting orphans.
		return
	}

	descs, ok := resolved.Lookup(normalized)
	if !ok {
		d.orphans[f.Domain]++
		return
	}
	for _, name := range f.Descs {
		if v, exists := descs[name]; exists {
			values[name] = v
		}
	}
}

// dataValue canonicalizes a data field.
func (d *Denormalizer) dataValue(f schema.Field, record []string) string {
	switch f.Name {
	case "employment":
		return strconv.Itoa(clean.Employment())
	case "salary":
		raw, _ := d.rawValue(f, record)
		return clean.FormatNumeric(clean.Salary(raw))
	case "los":
		raw, _ := d.rawValue(f, record)
		return clean.FormatNumeric(clean.LengthOfService(raw))
	default:
		raw, _ := d.rawValue(f, record)
		return strings.TrimSpace(raw)
	}
}

// rawValue reads a field's raw source value from the record, reporting
// whether the field has a source column this quarter.
func (d *Denormalizer) rawValue(f schema.Field, record []string) (string, bool) {
	idx, ok := d.plan.SourceIndex(f.Name)
	if !ok || idx >= len(record) {
		return "", false
	}
	return record[idx], true
}
