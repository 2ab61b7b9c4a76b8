// Package analysis reads finished artifacts back for cross-quarter
// comparison and validation reporting.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fedscope-etl/internal/dataset"
	"github.com/fedscope-etl/internal/denorm"
	"github.com/fedscope-etl/internal/export"
)

// GradeCount is one row of a cross-quarter comparison: employment headcount
// for a grade category in each of the two quarters.
type GradeCount struct {
	Key    string
	Before int
	After  int
}

// Comparison summarizes two quarters against each other.
type Comparison struct {
	Before dataset.Key
	After  dataset.Key

	TotalBefore int
	TotalAfter  int
	ByGrade     []GradeCount
	ByAgency    []GradeCount
}

// CompareQuarters aggregates employment headcounts from two quarters'
// artifacts by the deterministic grade key and by agency. The grade key is
// what makes the join meaningful: the same logical category produces an
// identical key in both quarters regardless of how the source formatted it.
func CompareQuarters(outputDir string, before, after dataset.Key) (*Comparison, error) {
	gradeBefore, agencyBefore, totalBefore, err := aggregate(export.ArtifactPath(outputDir, before))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s artifact: %w", before, err)
	}
	gradeAfter, agencyAfter, totalAfter, err := aggregate(export.ArtifactPath(outputDir, after))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s artifact: %w", after, err)
	}

	cmp := &Comparison{
		Before:      before,
		After:       after,
		TotalBefore: totalBefore,
		TotalAfter:  totalAfter,
		ByGrade:     mergeCounts(gradeBefore, gradeAfter),
		ByAgency:    mergeCounts(agencyBefore, agencyAfter),
	}
	return cmp, nil
}

// aggregate streams one artifact and counts employment by grade key and by
// agency description.
func aggregate(path string) (byGrade, byAgency map[string]int, total int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	ppgrdIdx, okGrade := col["ppgrd"]
	agyIdx, okAgy := col["agysubt"]
	if !okGrade || !okAgy {
		return nil, nil, 0, fmt.Errorf("artifact missing canonical columns")
	}

	byGrade = make(map[string]int)
	byAgency = make(map[string]int)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, err
		}
		total++

		if ppgrdIdx < len(record) && record[ppgrdIdx] != "" {
			if key := denorm.GradeKey(record[ppgrdIdx]); key != "" {
				byGrade[key]++
			}
		}
		if agyIdx < len(record) && record[agyIdx] != "" {
			byAgency[record[agyIdx]]++
		}
	}
	return byGrade, byAgency, total, nil
}

// mergeCounts joins two count maps into sorted rows covering every key seen
// in either quarter. Absent keys count zero, so gains and losses both show.
func mergeCounts(before, after map[string]int) []GradeCount {
	keys := make(map[string]bool, len(before)+len(after))
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}

	out := make([]GradeCount, 0, len(keys))
	for k := range keys {
		out = append(out, GradeCount{Key: k, Before: before[k], After: after[k]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
