package model

import "time"

// Administrator roles. Superadmins may manage the admin directory itself;
// regular admins may only use the content console.
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Admin represents one entry in the merged administrator registry. Entries
// come from two sources: records persisted in the directory store, and
// synthetic entries generated for statically configured superadmin emails
// that have no persisted record. Passwords are stored as bcrypt hashes in
// the directory store and never appear on this struct.
type Admin struct {
	ID             string     `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	Role           string     `json:"role" db:"role"`
	Active         bool       `json:"active" db:"active"`
	DisplayName    string     `json:"display_name,omitempty" db:"display_name"`
	CreatedAt      *time.Time `json:"created_at,omitempty" db:"created_at"`
	CreatedByEmail string     `json:"created_by_email,omitempty" db:"created_by_email"`

	// Static marks an entry synthesized from deployment configuration.
	// Static entries are regenerated on every listing and never persisted.
	Static bool `json:"static,omitempty" db:"-"`
}

// IsSuperadmin reports whether the record carries the superadmin role.
func (a *Admin) IsSuperadmin() bool {
	return a.Role == RoleSuperadmin
}
