package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse/gatehouse/internal/directory"
)

// minPasswordLength matches the provider-side weak password rule.
const minPasswordLength = 6

// CredentialStore is the subset of the directory store the local provider
// needs for its credential key space.
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred *directory.Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*directory.Credential, error)
	UpdateLastLogin(ctx context.Context, subjectID string) error
}

// LocalProvider is a self-contained identity provider: credentials are
// bcrypt hashes in the local store, bearer tokens are HS256 JWTs. It
// implements both Verifier and Provisioner.
type LocalProvider struct {
	store     CredentialStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewLocalProvider creates a LocalProvider signing tokens with jwtSecret.
func NewLocalProvider(store CredentialStore, jwtSecret string, tokenTTL time.Duration) *LocalProvider {
	return &LocalProvider{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verify parses and validates a bearer token and returns the identity it
// was issued for.
func (p *LocalProvider) Verify(ctx context.Context, tokenStr string) (*Identity, error) {
	c := &claims{}

	token, err := jwt.ParseWithClaims(tokenStr, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return &Identity{
		SubjectID: c.Subject,
		Email:     strings.ToLower(c.Email),
	}, nil
}

// Provision creates a new credential and returns its subject id. The
// provider enforces its own email and password rules, mirroring what a
// hosted provider rejects natively.
func (p *LocalProvider) Provision(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}

	if _, err := p.store.GetCredentialByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, directory.ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	subjectID := uuid.Must(uuid.NewV7()).String()
	cred := &directory.Credential{
		SubjectID:    subjectID,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.store.CreateCredential(ctx, cred); err != nil {
		return "", err
	}
	return subjectID, nil
}

// Login verifies an email/password pair and issues a signed bearer token.
func (p *LocalProvider) Login(ctx context.Context, email, password string) (token string, id *Identity, err error) {
	cred, err := p.store.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err = p.issueToken(cred.SubjectID, cred.Email)
	if err != nil {
		return "", nil, err
	}

	// Stamp last login; failures here don't fail the login.
	_ = p.store.UpdateLastLogin(ctx, cred.SubjectID)

	return token, &Identity{SubjectID: cred.SubjectID, Email: cred.Email}, nil
}

// TokenTTL returns the lifetime of issued tokens.
func (p *LocalProvider) TokenTTL() time.Duration {
	return p.tokenTTL
}

func (p *LocalProvider) issueToken(subjectID, email string) (string, error) {
	now := time.Now()
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
			Issuer:    "gatehouse",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(p.jwtSecret)
}
