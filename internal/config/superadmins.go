package config

import "strings"

// ParseSuperadmins parses the comma-separated superadmin email list from
// deployment configuration into a normalized set. Entries are trimmed and
// lower-cased; empty entries and duplicates are dropped. Order of first
// appearance is preserved.
func ParseSuperadmins(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// SuperadminSet converts a normalized superadmin list into a lookup set.
func SuperadminSet(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		set[e] = struct{}{}
	}
	return set
}
