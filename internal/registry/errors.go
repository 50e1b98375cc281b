package registry

import "errors"

// Error taxonomy for registry operations. Handlers map these onto HTTP
// statuses; each validation rule gets its own sentinel so callers can
// trigger and test them independently.
var (
	// ErrForbidden: the caller is authenticated but not a superadmin.
	ErrForbidden = errors.New("superadmin access required")

	// ErrMalformedBody: the request body was not a JSON object.
	ErrMalformedBody = errors.New("malformed body")

	// ErrMissingFields: email or password missing from the request.
	ErrMissingFields = errors.New("missing fields")

	// ErrInvalidEmail: the email does not match local@domain.tld shape.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrWeakPassword: the password is shorter than the minimum length.
	ErrWeakPassword = errors.New("weak password")

	// ErrInvalidRole: the requested role is not a known role name.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmailTaken: an identity already exists for the email.
	ErrEmailTaken = errors.New("email already in use")

	// ErrUnavailable: a dependency was unreachable during an operation
	// whose fault must be propagated rather than degraded.
	ErrUnavailable = errors.New("dependency unavailable")
)
