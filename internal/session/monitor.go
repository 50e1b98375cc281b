// Package session implements the inactivity timeout applied to admin console
// sessions: a timer-driven state machine that warns before logging an idle
// administrator out and never logs anyone out with zero warning.
package session

import (
	"sync"
	"time"
)

// Phase is the current state of the timeout state machine.
type Phase int

const (
	// PhaseActive: the session saw recent activity.
	PhaseActive Phase = iota
	// PhaseWarning: the pre-logout warning countdown is running.
	PhaseWarning
	// PhaseExpired: the session was signed out for inactivity. Terminal.
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseWarning:
		return "warning"
	case PhaseExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Reason distinguishes why a sign-out happened, so the login view can show
// a dedicated inactivity notice.
type Reason int

const (
	// ReasonLogout: the user chose to log out.
	ReasonLogout Reason = iota
	// ReasonInactivity: the session expired with no activity.
	ReasonInactivity
)

// Config holds the timing constants. These are deployment configuration,
// not business rules; zero values take the defaults below.
type Config struct {
	// IdleTimeout is the total inactivity budget before hard logout.
	IdleTimeout time.Duration
	// WarningDuration is how long the warning countdown runs; the warning
	// fires at IdleTimeout - WarningDuration of inactivity.
	WarningDuration time.Duration
	// Tick is the countdown display granularity.
	Tick time.Duration
	// ExpiryTolerance is the trailing window before the deadline within
	// which last-moment activity makes a firing expiry timer stale.
	ExpiryTolerance time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.WarningDuration <= 0 {
		c.WarningDuration = 5 * time.Minute
	}
	if c.WarningDuration >= c.IdleTimeout {
		c.WarningDuration = c.IdleTimeout / 2
	}
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.ExpiryTolerance <= 0 {
		c.ExpiryTolerance = c.Tick
	}
	return c
}

// Hooks are the monitor's outbound notifications. All hooks are optional
// and are invoked without the monitor's lock held.
type Hooks struct {
	// Warning fires once on entry to PhaseWarning with the full countdown.
	Warning func(remaining time.Duration)
	// Tick fires each countdown tick while in PhaseWarning.
	Tick func(remaining time.Duration)
	// SignOut fires exactly once, on expiry or voluntary logout.
	SignOut func(reason Reason)
}

// Monitor is an owned session timeout state machine with an explicit
// Start/Touch/Dispose lifecycle. At any instant at most one warning timer
// and one hard-expiry timer are armed; every reset cancels and replaces
// both under a single lock, and a generation counter makes any timer that
// fires after its reset a no-op.
type Monitor struct {
	cfg   Config
	hooks Hooks
	now   func() time.Time

	mu             sync.Mutex
	phase          Phase
	lastActivity   time.Time
	warningStarted time.Time
	gen            uint64
	warnTimer      *time.Timer
	expireTimer    *time.Timer
	tickTimer      *time.Timer
	started        bool
	disposed       bool
	signedOut      bool
}

// NewMonitor creates a Monitor. Call Start to arm the timers.
func NewMonitor(cfg Config, hooks Hooks) *Monitor {
	return &Monitor{
		cfg:   cfg.withDefaults(),
		hooks: hooks,
		now:   time.Now,
	}
}

// Start arms the warning and expiry timers from now. Calling Start on a
// running monitor resets it, like activity.
func (m *Monitor) Start() {
	m.reset()
}

// Touch records a qualifying activity event: pointer press or move, key
// press, scroll, touch start, click. Any one of them resets the machine to
// PhaseActive and re-arms both timers from the current moment. Activity
// after expiry is ignored.
func (m *Monitor) Touch() {
	m.reset()
}

// StayLoggedIn is the explicit keep-alive. It is equivalent to a synthetic
// activity event.
func (m *Monitor) StayLoggedIn() {
	m.reset()
}

// Logout is a user-initiated sign-out: all timers are cancelled and the
// SignOut hook fires with ReasonLogout, without the inactivity indicator.
func (m *Monitor) Logout() {
	m.mu.Lock()
	if m.disposed || m.signedOut {
		m.mu.Unlock()
		return
	}
	m.signedOut = true
	m.disposed = true
	m.gen++
	m.stopTimersLocked()
	signOut := m.hooks.SignOut
	m.mu.Unlock()

	if signOut != nil {
		signOut(ReasonLogout)
	}
}

// Dispose cancels all pending timers without signing out. No timer fires
// after Dispose returns; the owning view can unmount safely.
func (m *Monitor) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.gen++
	m.stopTimersLocked()
}

// Phase returns the current phase.
func (m *Monitor) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Remaining returns the time left on the warning countdown. The boolean is
// false outside PhaseWarning, where no countdown is defined.
func (m *Monitor) Remaining() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseWarning {
		return 0, false
	}
	return m.remainingLocked(), true
}

func (m *Monitor) remainingLocked() time.Duration {
	left := m.cfg.WarningDuration - m.now().Sub(m.warningStarted)
	if left < 0 {
		left = 0
	}
	return left
}

// reset is the cancel-then-reschedule step. It is a single atomic unit
// under the lock: the old timers are stopped and superseded by the bumped
// generation before the new ones are armed, so two expiry timers are never
// both live.
func (m *Monitor) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || m.phase == PhaseExpired {
		return
	}

	m.gen++
	gen := m.gen
	m.stopTimersLocked()

	m.phase = PhaseActive
	m.lastActivity = m.now()
	m.started = true

	warnAfter := m.cfg.IdleTimeout - m.cfg.WarningDuration
	m.warnTimer = time.AfterFunc(warnAfter, func() { m.enterWarning(gen) })
	m.expireTimer = time.AfterFunc(m.cfg.IdleTimeout, func() { m.expire(gen) })
}

func (m *Monitor) stopTimersLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.expireTimer != nil {
		m.expireTimer.Stop()
		m.expireTimer = nil
	}
	if m.tickTimer != nil {
		m.tickTimer.Stop()
		m.tickTimer = nil
	}
}

func (m *Monitor) enterWarning(gen uint64) {
	m.mu.Lock()
	if m.disposed || gen != m.gen || m.phase != PhaseActive {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseWarning
	m.warningStarted = m.now()
	m.tickTimer = time.AfterFunc(m.cfg.Tick, func() { m.tick(gen) })
	warning := m.hooks.Warning
	remaining := m.cfg.WarningDuration
	m.mu.Unlock()

	if warning != nil {
		warning(remaining)
	}
}

func (m *Monitor) tick(gen uint64) {
	m.mu.Lock()
	if m.disposed || gen != m.gen || m.phase != PhaseWarning {
		m.mu.Unlock()
		return
	}
	remaining := m.remainingLocked()
	if remaining > 0 {
		m.tickTimer = time.AfterFunc(m.cfg.Tick, func() { m.tick(gen) })
	}
	tickHook := m.hooks.Tick
	m.mu.Unlock()

	if tickHook != nil {
		tickHook(remaining)
	}
}

func (m *Monitor) expire(gen uint64) {
	m.mu.Lock()
	if m.disposed || m.signedOut || gen != m.gen {
		m.mu.Unlock()
		return
	}

	// A timer scheduled before a last-moment reset can lose the race with
	// that reset. If activity landed inside the trailing tolerance window
	// before the deadline, this fire is stale; the reset's own timers
	// govern the session instead.
	elapsed := m.now().Sub(m.lastActivity)
	if elapsed < m.cfg.IdleTimeout-m.cfg.ExpiryTolerance {
		m.mu.Unlock()
		return
	}

	m.phase = PhaseExpired
	m.signedOut = true
	m.gen++
	m.stopTimersLocked()
	signOut := m.hooks.SignOut
	m.mu.Unlock()

	if signOut != nil {
		signOut(ReasonInactivity)
	}
}
