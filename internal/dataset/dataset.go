package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Quarters in calendar order. FedScope snapshots are issued four times a year.
var Quarters = []string{"March", "June", "September", "December"}

var monthAbbrevs = map[string]string{
	"MAR": "March",
	"JUN": "June",
	"SEP": "September",
	"DEC": "December",
}

var (
	abbrevPattern = regexp.MustCompile(`([A-Z]{3})(\d{4})`)
	namePattern   = regexp.MustCompile(`(March|June|September|December)[_\s]*(\d{4})`)
)

// Key identifies one quarterly snapshot.
type Key struct {
	Year    int
	Quarter string
}

// String renders the key in the YYYY_Quarter form used throughout the corpus,
// e.g. "2013_March".
func (k Key) String() string {
	return fmt.Sprintf("%d_%s", k.Year, k.Quarter)
}

// Valid reports whether the key names a real quarter.
func (k Key) Valid() bool {
	if k.Year < 1998 || k.Year > 2100 {
		return false
	}
	for _, q := range Quarters {
		if k.Quarter == q {
			return true
		}
	}
	return false
}

// ParseKey parses a YYYY_Quarter dataset key.
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return Key{}, fmt.Errorf("invalid dataset key %q: expected YYYY_Quarter", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Key{}, fmt.Errorf("invalid dataset key %q: bad year: %w", s, err)
	}
	k := Key{Year: year, Quarter: parts[1]}
	if !k.Valid() {
		return Key{}, fmt.Errorf("invalid dataset key %q", s)
	}
	return k, nil
}

// PeriodFromName extracts the quarter and year from FedScope file or
// directory names. Both the FACTDATA_DEC2018.TXT style and the
// FedScope_Employment_December_2018 style are recognized.
func PeriodFromName(name string) (Key, bool) {
	if m := abbrevPattern.FindStringSubmatch(strings.ToUpper(name)); m != nil {
		if quarter, ok := monthAbbrevs[m[1]]; ok {
			year, _ := strconv.Atoi(m[2])
			k := Key{Year: year, Quarter: quarter}
			if k.Valid() {
				return k, true
			}
		}
	}

	if m := namePattern.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[2])
		k := Key{Year: year, Quarter: m[1]}
		if k.Valid() {
			return k, true
		}
	}

	return Key{}, false
}
