package dataset

import "testing"

func TestKeyString(t *testing.T) {
	k := Key{Year: 2013, Quarter: "March"}
	if got := k.String(); got != "2013_March" {
		t.Errorf("String() = %q, want %q", got, "2013_March")
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		input   string
		want    Key
		wantErr bool
	}{
		{"2013_March", Key{2013, "March"}, false},
		{"1998_September", Key{1998, "September"}, false},
		{"2024_December", Key{2024, "December"}, false},
		{"2013_April", Key{}, true},
		{"March_2013", Key{}, true},
		{"2013", Key{}, true},
		{"", Key{}, true},
		{"1997_March", Key{}, true},
	}

	for _, tt := range tests {
		got, err := ParseKey(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseKey(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKey(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKey(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPeriodFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
		ok   bool
	}{
		{"FACTDATA_DEC2018.TXT", Key{2018, "December"}, true},
		{"FACTDATA_MAR2013.TXT", Key{2013, "March"}, true},
		{"factdata_sep2024.txt", Key{2024, "September"}, true},
		{"FedScope_Employment_December_2018", Key{2018, "December"}, true},
		{"FedScope_Employment_June_2001.zip", Key{2001, "June"}, true},
		{"September 2010 stuff", Key{2010, "September"}, true},
		{"FACTDATA_JAN2018.TXT", Key{}, false},
		{"DTagy.txt", Key{}, false},
		{"a1b2c3d4-uuid-name.zip", Key{}, false},
	}

	for _, tt := range tests {
		got, ok := PeriodFromName(tt.name)
		if ok != tt.ok {
			t.Errorf("PeriodFromName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("PeriodFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
