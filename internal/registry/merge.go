package registry

import (
	"sort"
	"strings"

	"github.com/gatehouse/gatehouse/internal/model"
)

// staticIDPrefix namespaces synthetic ids so they can never collide with
// persisted ids, which come from the identity provider's key space.
const staticIDPrefix = "static:"

// Merge combines the statically configured superadmin emails with the
// persisted directory into one de-duplicated registry view. For each static
// email with no persisted record, a synthetic superadmin entry is generated;
// where the same email appears in both sources the persisted record wins.
// The result holds at most one record per email, sorted case-insensitively
// by email.
//
// Merge is pure: it performs no I/O and never fails.
func Merge(staticEmails []string, persisted []model.Admin) []model.Admin {
	byEmail := make(map[string]struct{}, len(persisted))
	merged := make([]model.Admin, 0, len(staticEmails)+len(persisted))

	for _, admin := range persisted {
		admin.Email = strings.ToLower(admin.Email)
		byEmail[admin.Email] = struct{}{}
		merged = append(merged, admin)
	}

	for _, email := range staticEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if _, exists := byEmail[email]; exists {
			continue
		}
		byEmail[email] = struct{}{}
		merged = append(merged, model.Admin{
			ID:     staticIDPrefix + email,
			Email:  email,
			Role:   model.RoleSuperadmin,
			Active: true,
			Static: true,
		})
	}

	sort.Slice(merged, func(i, j int) bool {
		return strings.ToLower(merged[i].Email) < strings.ToLower(merged[j].Email)
	})
	return merged
}
