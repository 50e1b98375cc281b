package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gatehouse/gatehouse/internal/directory"
)

func testProvider(t *testing.T) *LocalProvider {
	t.Helper()
	store, err := directory.NewStore("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewLocalProvider(store, "test-secret", time.Hour)
}

func TestLocalProvider_ProvisionAndLogin(t *testing.T) {
	p := testProvider(t)
	ctx := context.Background()

	subjectID, err := p.Provision(ctx, "Ops@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if subjectID == "" {
		t.Fatal("empty subject id")
	}

	token, id, err := p.Login(ctx, "ops@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if id.SubjectID != subjectID {
		t.Errorf("login subject = %q, want %q", id.SubjectID, subjectID)
	}
	if id.Email != "ops@example.com" {
		t.Errorf("login email = %q, want normalized ops@example.com", id.Email)
	}
}

func TestLocalProvider_ProvisionValidation(t *testing.T) {
	p := testProvider(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"no at sign", "not-an-email", "secret1", ErrInvalidEmail},
		{"short password", "a@x.com", "12345", ErrWeakPassword},
		{"empty password", "a@x.com", "", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Provision(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("Provision(%q, %q) = %v, want %v", tt.email, tt.password, err, tt.want)
			}
		})
	}
}

func TestLocalProvider_ProvisionDuplicateEmail(t *testing.T) {
	p := testProvider(t)
	ctx := context.Background()

	if _, err := p.Provision(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("first Provision: %v", err)
	}
	if _, err := p.Provision(ctx, "A@X.com", "secret2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate Provision = %v, want ErrEmailTaken", err)
	}
}

func TestLocalProvider_LoginRejectsBadCredentials(t *testing.T) {
	p := testProvider(t)
	ctx := context.Background()

	if _, err := p.Provision(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if _, _, err := p.Login(ctx, "a@x.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := p.Login(ctx, "nobody@x.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLocalProvider_VerifyRoundTrip(t *testing.T) {
	p := testProvider(t)
	ctx := context.Background()

	subjectID, err := p.Provision(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	token, _, err := p.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	id, err := p.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.SubjectID != subjectID || id.Email != "a@x.com" {
		t.Errorf("verified identity = %+v", id)
	}
}

func TestLocalProvider_VerifyRejectsForgedToken(t *testing.T) {
	p := testProvider(t)
	ctx := context.Background()

	if _, err := p.Provision(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	token, _, err := p.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Same token, different signing key.
	other := testProvider(t)
	other.jwtSecret = []byte("other-secret")
	if _, err := other.Verify(ctx, token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("foreign-key Verify = %v, want ErrInvalidCredentials", err)
	}

	if _, err := p.Verify(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("garbage Verify = %v, want ErrInvalidCredentials", err)
	}
}

func TestLocalProvider_VerifyRejectsExpiredToken(t *testing.T) {
	store, err := directory.NewStore("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	p := NewLocalProvider(store, "test-secret", -time.Minute)
	ctx := context.Background()

	if _, err := p.Provision(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	token, _, err := p.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := p.Verify(ctx, token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expired Verify = %v, want ErrInvalidCredentials", err)
	}
}
