package config

import (
	"reflect"
	"testing"
)

func TestParseSuperadmins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  , ,\t", nil},
		{"single", "root@x.com", []string{"root@x.com"}},
		{"trims and lowercases", " Root@X.com , ops@x.com ", []string{"root@x.com", "ops@x.com"}},
		{"dedupes case-insensitively", "a@x.com,A@X.com,b@x.com,a@x.com", []string{"a@x.com", "b@x.com"}},
		{"keeps first-appearance order", "c@x.com,a@x.com,b@x.com", []string{"c@x.com", "a@x.com", "b@x.com"}},
		{"skips empty entries", "a@x.com,,b@x.com,", []string{"a@x.com", "b@x.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSuperadmins(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSuperadmins(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSuperadminSet(t *testing.T) {
	set := SuperadminSet([]string{"a@x.com", "b@x.com"})
	if len(set) != 2 {
		t.Fatalf("len = %d, want 2", len(set))
	}
	if _, ok := set["a@x.com"]; !ok {
		t.Error("a@x.com missing from set")
	}
	if _, ok := set["c@x.com"]; ok {
		t.Error("c@x.com unexpectedly present")
	}
}
