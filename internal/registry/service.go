// Package registry maintains the merged administrator registry: the union of
// the statically configured superadmin allow-list and the persisted admin
// directory. It gates creation of new administrators behind superadmin
// privilege and serves as the authorization source for the route guard.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gatehouse/gatehouse/internal/directory"
	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/model"
)

// MinPasswordLength is the minimum accepted password length for new admins.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Directory is the subset of the directory store the registry needs.
type Directory interface {
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	CreateAdmin(ctx context.Context, admin *model.Admin) error
}

// Service merges the two sources of administrator truth and enforces the
// privilege rules around listing and creating entries.
type Service struct {
	dir         Directory
	provisioner identity.Provisioner
	superadmins map[string]struct{}
	staticList  []string // configuration order, used for synthesis
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a registry Service. staticEmails is the normalized superadmin
// allow-list from deployment configuration.
func New(dir Directory, provisioner identity.Provisioner, staticEmails []string, logger *slog.Logger) *Service {
	set := make(map[string]struct{}, len(staticEmails))
	ordered := make([]string, 0, len(staticEmails))
	for _, e := range staticEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := set[e]; ok {
			continue
		}
		set[e] = struct{}{}
		ordered = append(ordered, e)
	}
	return &Service{
		dir:         dir,
		provisioner: provisioner,
		superadmins: set,
		logger:      logger,
		staticList:  ordered,
		now:         time.Now,
	}
}

// IsSuperadmin reports whether an email is in the static superadmin list.
func (s *Service) IsSuperadmin(email string) bool {
	_, ok := s.superadmins[strings.ToLower(email)]
	return ok
}

// List returns the merged administrator registry. Only static superadmins
// may call it. If the directory is unreachable the listing degrades to the
// synthesized static entries alone: losing the static superadmin view would
// itself be a security regression, so directory faults are logged and
// absorbed here.
func (s *Service) List(ctx context.Context, callerEmail string) ([]model.Admin, error) {
	if !s.IsSuperadmin(callerEmail) {
		return nil, ErrForbidden
	}

	persisted, err := s.dir.ListAdmins(ctx)
	if err != nil {
		s.logger.Error("admin directory unreachable, serving static entries only",
			"error", err)
		persisted = nil
	}

	return Merge(s.staticList, persisted), nil
}

// CreateRequest is the input to Create.
type CreateRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// CreateResult is the outcome of a successful Create.
type CreateResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Create provisions a credential with the identity provider and, only after
// that succeeds, writes the administrator record to the directory keyed by
// the new subject id. Validation failures are reported before any side
// effect. If the directory write fails after provisioning succeeded, the
// credential is left behind and flagged for manual reconciliation; no
// rollback is attempted.
func (s *Service) Create(ctx context.Context, callerEmail string, req CreateRequest) (*CreateResult, error) {
	if !s.IsSuperadmin(callerEmail) {
		return nil, ErrForbidden
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	role := req.Role
	if role == "" {
		role = model.RoleAdmin
	}
	if role != model.RoleAdmin && role != model.RoleSuperadmin {
		return nil, ErrInvalidRole
	}

	subjectID, err := s.provisioner.Provision(ctx, email, req.Password)
	if err != nil {
		return nil, mapProviderError(err)
	}

	now := s.now().UTC()
	admin := &model.Admin{
		ID:             subjectID,
		Email:          email,
		Role:           role,
		Active:         true,
		DisplayName:    req.DisplayName,
		CreatedAt:      &now,
		CreatedByEmail: strings.ToLower(callerEmail),
	}

	if err := s.dir.CreateAdmin(ctx, admin); err != nil {
		// The credential exists but the directory entry does not. This
		// account can authenticate yet is untracked by the registry until
		// an operator reconciles it by hand.
		s.logger.Error("directory write failed after credential provisioning; manual reconciliation required",
			"email", email, "subject_id", subjectID, "error", err)
		return nil, errors.Join(ErrUnavailable, err)
	}

	return &CreateResult{ID: subjectID, Email: email, Role: role}, nil
}

// Authorize is the live authorization probe consumed by the route guard: it
// confirms the email still maps to a recognized, active administrator.
// Directory faults here are propagated, not masked, since silently passing
// or failing the probe would be wrong in both directions.
func (s *Service) Authorize(ctx context.Context, email string) error {
	email = strings.ToLower(email)
	if s.IsSuperadmin(email) {
		return nil
	}

	admin, err := s.dir.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ErrForbidden
		}
		return errors.Join(ErrUnavailable, err)
	}
	if !admin.Active {
		return ErrForbidden
	}
	return nil
}

// mapProviderError translates the identity provider's native failure modes
// onto the registry's error taxonomy so callers see one consistent shape
// whether a rule was enforced locally or by the provider.
func mapProviderError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, identity.ErrInvalidEmail):
		return ErrInvalidEmail
	case errors.Is(err, identity.ErrWeakPassword):
		return ErrWeakPassword
	default:
		return errors.Join(ErrUnavailable, err)
	}
}
