// Package identity defines the contract with the identity provider: verifying
// bearer credentials and provisioning new login credentials. The admin console
// treats the provider as a black box; a local JWT-backed implementation is
// included so gatehouse runs self-contained.
package identity

import (
	"context"
	"errors"
)

// Provisioning failure modes reported natively by the provider. The registry
// maps these onto the same error taxonomy as its own validation so callers
// see one consistent shape.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
)

// Identity is a verified principal: the provider's subject id plus the
// email the credential was issued for.
type Identity struct {
	SubjectID string
	Email     string
}

// Verifier checks a bearer credential and returns the verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Provisioner creates a new login credential and returns the subject id it
// was provisioned under.
type Provisioner interface {
	Provision(ctx context.Context, email, password string) (subjectID string, err error)
}
