package lookup

import (
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// NewSourceReader wraps a FedScope source file in a CSV reader. The quarterly
// text files are Latin-1 encoded and occasionally carry ragged quoting, so
// the reader decodes to UTF-8 and tolerates lazy quotes.
func NewSourceReader(r io.Reader) *csv.Reader {
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	cr := csv.NewReader(decoded)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	// Early-era files sometimes pad trailing fields inconsistently.
	cr.FieldsPerRecord = -1
	return cr
}

// CleanHeader normalizes source column names: trimmed, lowercased, spaces and
// hyphens folded to underscores. A repeated "occ" column (the occupation
// table carries the code once for the occupation and once for its family)
// has its second occurrence renamed to "occfam".
func CleanHeader(header []string) []string {
	out := make([]string, len(header))
	seenOcc := false
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = trimBOM(name)
		if name == "occ" {
			if seenOcc {
				name = "occfam"
			}
			seenOcc = true
		}
		out[i] = name
	}
	return out
}

// trimBOM strips a leading UTF-8 byte order mark from the first column name.
// The Latin-1 decode in NewSourceReader maps the BOM's three bytes to
// U+00EF U+00BB U+00BF, so both that form and a plain BOM are handled.
func trimBOM(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.TrimPrefix(name, "\u00ef\u00bb\u00bf")
}
