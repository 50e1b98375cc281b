// Package guard implements the composite gate wrapping every admin-facing
// view: it resolves the local identity, confirms authorization against the
// backend, and only then exposes protected content and arms the session
// timeout monitor.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/session"
)

// State is the gate's current position in its verification state machine.
type State int

const (
	// StateLoading: the identity is not yet resolved.
	StateLoading State = iota
	// StateUnauthenticated: no identity; redirect to login, render nothing.
	StateUnauthenticated
	// StateVerifying: identity present, backend authorization in flight.
	StateVerifying
	// StateAuthorized: protected content may render; the session monitor
	// is active.
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateVerifying:
		return "verifying"
	case StateAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Authorizer is the live backend authorization probe. A cached identity is
// never trusted on its own; the probe must pass before content renders.
type Authorizer interface {
	Authorize(ctx context.Context, email string) error
}

// Hooks are the gate's outbound notifications.
type Hooks struct {
	// SignOut fires whenever the gate tears the session down: inactivity
	// expiry, voluntary logout, or a failed authorization probe (which
	// reports ReasonLogout, since it is not an inactivity event).
	SignOut func(reason session.Reason)
	// Warning and Tick are forwarded to the session monitor so the UI can
	// surface the pre-logout countdown.
	Warning func(remaining int64)
	Tick    func(remaining int64)
}

// Gate owns the verification state machine for one admin session. It is
// created once per mounted admin view and disposed on unmount.
type Gate struct {
	authz      Authorizer
	sessionCfg session.Config
	hooks      Hooks

	mu       sync.Mutex
	state    State
	identity *identity.Identity
	monitor  *session.Monitor
}

// NewGate creates a Gate in StateLoading.
func NewGate(authz Authorizer, sessionCfg session.Config, hooks Hooks) *Gate {
	return &Gate{
		authz:      authz,
		sessionCfg: sessionCfg,
		hooks:      hooks,
		state:      StateLoading,
	}
}

// State returns the gate's current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Identity returns the currently resolved identity, or nil.
func (g *Gate) Identity() *identity.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity
}

// Monitor returns the active session monitor, or nil outside
// StateAuthorized.
func (g *Gate) Monitor() *session.Monitor {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.monitor
}

// SetIdentity resolves the identity for this gate and re-runs the
// authorization probe. A nil identity moves straight to Unauthenticated.
// The probe runs on every identity change, not just the first: switching
// accounts re-verifies from scratch. Any probe failure — explicit rejection
// or a network fault — signs the local session out rather than continuing
// to render protected content.
func (g *Gate) SetIdentity(ctx context.Context, id *identity.Identity) error {
	g.mu.Lock()
	if g.monitor != nil {
		g.monitor.Dispose()
		g.monitor = nil
	}

	if id == nil {
		g.identity = nil
		g.state = StateUnauthenticated
		g.mu.Unlock()
		return nil
	}

	g.identity = id
	g.state = StateVerifying
	email := id.Email
	g.mu.Unlock()

	if err := g.authz.Authorize(ctx, email); err != nil {
		g.mu.Lock()
		superseded := g.identity == nil || g.identity.Email != email
		g.mu.Unlock()
		// A failing probe may belong to an identity that was replaced while
		// it was in flight; tearing down then would cancel the newer
		// identity's session.
		if !superseded {
			g.signOut(session.ReasonLogout)
		}
		return err
	}

	g.mu.Lock()
	// The identity may have changed while the probe was in flight; only
	// the probe for the current identity may authorize.
	if g.identity == nil || g.identity.Email != email {
		g.mu.Unlock()
		return nil
	}
	g.state = StateAuthorized
	g.monitor = session.NewMonitor(g.sessionCfg, session.Hooks{
		Warning: g.forwardWarning,
		Tick:    g.forwardTick,
		SignOut: g.signOut,
	})
	mon := g.monitor
	g.mu.Unlock()

	mon.Start()
	return nil
}

// Refresh re-runs the authorization probe for the current identity. Used
// after events that may have revoked access.
func (g *Gate) Refresh(ctx context.Context) error {
	g.mu.Lock()
	id := g.identity
	g.mu.Unlock()
	if id == nil {
		return nil
	}
	if err := g.authz.Authorize(ctx, id.Email); err != nil {
		g.signOut(session.ReasonLogout)
		return err
	}
	return nil
}

// Touch forwards an activity event to the session monitor.
func (g *Gate) Touch() {
	if m := g.Monitor(); m != nil {
		m.Touch()
	}
}

// StayLoggedIn forwards the explicit keep-alive to the session monitor.
func (g *Gate) StayLoggedIn() {
	if m := g.Monitor(); m != nil {
		m.StayLoggedIn()
	}
}

// Logout tears the session down voluntarily.
func (g *Gate) Logout() {
	g.mu.Lock()
	mon := g.monitor
	g.mu.Unlock()
	if mon != nil {
		mon.Logout() // monitor reports back through signOut
		return
	}
	g.signOut(session.ReasonLogout)
}

// Dispose cancels the monitor and detaches the gate without signing out.
// No timer fires after Dispose returns.
func (g *Gate) Dispose() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.monitor != nil {
		g.monitor.Dispose()
		g.monitor = nil
	}
}

func (g *Gate) signOut(reason session.Reason) {
	g.mu.Lock()
	if g.monitor != nil {
		g.monitor.Dispose()
		g.monitor = nil
	}
	g.identity = nil
	g.state = StateUnauthenticated
	hook := g.hooks.SignOut
	g.mu.Unlock()

	if hook != nil {
		hook(reason)
	}
}

func (g *Gate) forwardWarning(remaining time.Duration) {
	if g.hooks.Warning != nil {
		g.hooks.Warning(remaining.Milliseconds())
	}
}

func (g *Gate) forwardTick(remaining time.Duration) {
	if g.hooks.Tick != nil {
		g.hooks.Tick(remaining.Milliseconds())
	}
}
