package guard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/session"
)

// fakeAuthorizer is a programmable authorization probe.
type fakeAuthorizer struct {
	err   error
	calls atomic.Int32
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, email string) error {
	f.calls.Add(1)
	return f.err
}

func testSessionConfig() session.Config {
	return session.Config{
		IdleTimeout:     200 * time.Millisecond,
		WarningDuration: 100 * time.Millisecond,
		Tick:            20 * time.Millisecond,
	}
}

func testIdentity(email string) *identity.Identity {
	return &identity.Identity{SubjectID: "subj-" + email, Email: email}
}

func TestGate_StartsLoading(t *testing.T) {
	g := NewGate(&fakeAuthorizer{}, testSessionConfig(), Hooks{})
	if got := g.State(); got != StateLoading {
		t.Fatalf("state = %v, want loading", got)
	}
}

func TestGate_NilIdentityUnauthenticated(t *testing.T) {
	authz := &fakeAuthorizer{}
	g := NewGate(authz, testSessionConfig(), Hooks{})

	if err := g.SetIdentity(context.Background(), nil); err != nil {
		t.Fatalf("SetIdentity(nil): %v", err)
	}
	if got := g.State(); got != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", got)
	}
	if n := authz.calls.Load(); n != 0 {
		t.Errorf("probe ran %d times with no identity, want 0", n)
	}
}

func TestGate_AuthorizedAfterProbe(t *testing.T) {
	g := NewGate(&fakeAuthorizer{}, testSessionConfig(), Hooks{})
	defer g.Dispose()

	if err := g.SetIdentity(context.Background(), testIdentity("a@x.com")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if got := g.State(); got != StateAuthorized {
		t.Fatalf("state = %v, want authorized", got)
	}
	if g.Monitor() == nil {
		t.Fatal("session monitor not started on authorization")
	}
	if got := g.Monitor().Phase(); got != session.PhaseActive {
		t.Errorf("monitor phase = %v, want active", got)
	}
}

func TestGate_ProbeFailureSignsOut(t *testing.T) {
	var signedOut atomic.Int32
	authz := &fakeAuthorizer{err: errors.New("rejected")}
	g := NewGate(authz, testSessionConfig(), Hooks{
		SignOut: func(session.Reason) { signedOut.Add(1) },
	})

	err := g.SetIdentity(context.Background(), testIdentity("a@x.com"))
	if err == nil {
		t.Fatal("expected probe error")
	}
	if got := g.State(); got != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated (never render on probe failure)", got)
	}
	if n := signedOut.Load(); n != 1 {
		t.Errorf("sign-out fired %d times, want 1", n)
	}
	if g.Monitor() != nil {
		t.Error("monitor running after failed probe")
	}
}

func TestGate_ProbeRerunsOnIdentityChange(t *testing.T) {
	authz := &fakeAuthorizer{}
	g := NewGate(authz, testSessionConfig(), Hooks{})
	defer g.Dispose()

	ctx := context.Background()
	if err := g.SetIdentity(ctx, testIdentity("a@x.com")); err != nil {
		t.Fatalf("first SetIdentity: %v", err)
	}
	if err := g.SetIdentity(ctx, testIdentity("b@x.com")); err != nil {
		t.Fatalf("second SetIdentity: %v", err)
	}

	if n := authz.calls.Load(); n != 2 {
		t.Fatalf("probe ran %d times, want 2 (once per identity)", n)
	}
	if got := g.Identity().Email; got != "b@x.com" {
		t.Errorf("identity = %q, want b@x.com", got)
	}
}

// hookedAuthorizer runs a one-shot callback before answering, so a test can
// change the gate's identity while a probe is in flight.
type hookedAuthorizer struct {
	errs    map[string]error
	onProbe func(email string)
}

func (h *hookedAuthorizer) Authorize(ctx context.Context, email string) error {
	if h.onProbe != nil {
		f := h.onProbe
		h.onProbe = nil
		f(email)
	}
	return h.errs[email]
}

func TestGate_StaleProbeFailureDoesNotTearDownNewerIdentity(t *testing.T) {
	var signedOut atomic.Int32
	ctx := context.Background()
	authz := &hookedAuthorizer{
		errs: map[string]error{"a@x.com": errors.New("rejected")},
	}
	g := NewGate(authz, testSessionConfig(), Hooks{
		SignOut: func(session.Reason) { signedOut.Add(1) },
	})
	defer g.Dispose()

	// While a@x.com's probe is in flight, the account switches to b@x.com,
	// whose own probe succeeds. The original probe then comes back failed.
	authz.onProbe = func(email string) {
		if err := g.SetIdentity(ctx, testIdentity("b@x.com")); err != nil {
			t.Errorf("SetIdentity(b): %v", err)
		}
	}

	if err := g.SetIdentity(ctx, testIdentity("a@x.com")); err == nil {
		t.Fatal("expected the superseded probe's error to propagate")
	}

	if got := g.State(); got != StateAuthorized {
		t.Fatalf("state = %v, want authorized for the newer identity", got)
	}
	if got := g.Identity(); got == nil || got.Email != "b@x.com" {
		t.Fatalf("identity = %+v, want b@x.com", got)
	}
	if n := signedOut.Load(); n != 0 {
		t.Errorf("sign-out fired %d times for a superseded probe, want 0", n)
	}
	if g.Monitor() == nil {
		t.Error("monitor not running for the newer identity")
	}
}

func TestGate_RefreshFailureTearsDown(t *testing.T) {
	var signedOut atomic.Int32
	authz := &fakeAuthorizer{}
	g := NewGate(authz, testSessionConfig(), Hooks{
		SignOut: func(session.Reason) { signedOut.Add(1) },
	})

	ctx := context.Background()
	if err := g.SetIdentity(ctx, testIdentity("a@x.com")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	// Access gets revoked later; the next refresh must tear down.
	authz.err = errors.New("revoked")
	if err := g.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := g.State(); got != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", got)
	}
	if n := signedOut.Load(); n != 1 {
		t.Errorf("sign-out fired %d times, want 1", n)
	}
}

func TestGate_InactivityExpiryReportsReason(t *testing.T) {
	reasonCh := make(chan session.Reason, 1)
	g := NewGate(&fakeAuthorizer{}, testSessionConfig(), Hooks{
		SignOut: func(r session.Reason) { reasonCh <- r },
	})

	if err := g.SetIdentity(context.Background(), testIdentity("a@x.com")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	select {
	case r := <-reasonCh:
		if r != session.ReasonInactivity {
			t.Errorf("reason = %v, want inactivity", r)
		}
	case <-time.After(time.Second):
		t.Fatal("session never expired")
	}

	if got := g.State(); got != StateUnauthenticated {
		t.Errorf("state after expiry = %v, want unauthenticated", got)
	}
}

func TestGate_VoluntaryLogoutReportsReason(t *testing.T) {
	reasonCh := make(chan session.Reason, 1)
	g := NewGate(&fakeAuthorizer{}, testSessionConfig(), Hooks{
		SignOut: func(r session.Reason) { reasonCh <- r },
	})

	if err := g.SetIdentity(context.Background(), testIdentity("a@x.com")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	g.Logout()

	select {
	case r := <-reasonCh:
		if r != session.ReasonLogout {
			t.Errorf("reason = %v, want logout (no inactivity indicator)", r)
		}
	case <-time.After(time.Second):
		t.Fatal("logout never signed out")
	}
}

func TestGate_TouchKeepsSessionAlive(t *testing.T) {
	var signedOut atomic.Int32
	g := NewGate(&fakeAuthorizer{}, testSessionConfig(), Hooks{
		SignOut: func(session.Reason) { signedOut.Add(1) },
	})
	defer g.Dispose()

	if err := g.SetIdentity(context.Background(), testIdentity("a@x.com")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	for i := 0; i < 5; i++ {
		time.Sleep(60 * time.Millisecond)
		g.Touch()
	}

	if n := signedOut.Load(); n != 0 {
		t.Errorf("signed out %d times despite continuous activity", n)
	}
	if got := g.State(); got != StateAuthorized {
		t.Errorf("state = %v, want authorized", got)
	}
}

func TestGate_DisposeCancelsTimers(t *testing.T) {
	var signedOut atomic.Int32
	g := NewGate(&fakeAuthorizer{}, testSessionConfig(), Hooks{
		SignOut: func(session.Reason) { signedOut.Add(1) },
	})

	if err := g.SetIdentity(context.Background(), testIdentity("a@x.com")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	g.Dispose()
	time.Sleep(300 * time.Millisecond)
	if n := signedOut.Load(); n != 0 {
		t.Errorf("timer fired %d times after dispose", n)
	}
}

func TestGate_WarningForwardedInMilliseconds(t *testing.T) {
	warned := make(chan int64, 1)
	g := NewGate(&fakeAuthorizer{}, testSessionConfig(), Hooks{
		Warning: func(remaining int64) { warned <- remaining },
		SignOut: func(session.Reason) {},
	})
	defer g.Dispose()

	if err := g.SetIdentity(context.Background(), testIdentity("a@x.com")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	select {
	case remaining := <-warned:
		if remaining != 100 {
			t.Errorf("warning remaining = %dms, want 100ms", remaining)
		}
	case <-time.After(time.Second):
		t.Fatal("warning never forwarded")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateLoading, "loading"},
		{StateUnauthenticated, "unauthenticated"},
		{StateVerifying, "verifying"},
		{StateAuthorized, "authorized"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
