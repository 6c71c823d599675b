package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/studai/backend/core"
)

// Screens. Exactly one is authoritative for a given (loading, session) pair.
type Screen string

const (
	ScreenLoading            Screen = "loading"
	ScreenUnauthenticated    Screen = "unauthenticated"
	ScreenOnboardingRequired Screen = "onboarding_required"
	ScreenWeeklyTestRequired Screen = "weekly_test_required"
	ScreenActive             Screen = "active"
)

// State is the gate's resolved output: the active screen, plus the role
// dashboard variant when the screen is Active.
type State struct {
	Screen Screen `json:"screen"`
	Role   string `json:"role,omitempty"`
}

// Event is a discrete external occurrence fed into the gate. Events are
// reduced strictly in arrival order.
type Event interface {
	eventName() string
}

type (
	// Loaded resolves the initial store read. Session is nil when no valid
	// record was found.
	Loaded struct{ Session *Session }

	// SignedIn carries the session returned by the Authenticator.
	SignedIn struct{ Session *Session }

	// OnboardingCompleted submits the student profile; guarded on profile
	// validity and on both artifact kinds being registered.
	OnboardingCompleted struct{ Profile Profile }

	// WeeklyTestSubmitted completes the due weekly assessment, whether
	// submitted manually or by countdown expiry.
	WeeklyTestSubmitted struct{}

	// ThemeToggled flips the light/dark preference; legal in any state
	// where a session exists, and never changes the active screen.
	ThemeToggled struct{}

	// LoggedOut tears the session down; legal from any state.
	LoggedOut struct{}
)

func (Loaded) eventName() string              { return "loaded" }
func (SignedIn) eventName() string            { return "signed-in" }
func (OnboardingCompleted) eventName() string { return "onboarding-completed" }
func (WeeklyTestSubmitted) eventName() string { return "weekly-test-submitted" }
func (ThemeToggled) eventName() string        { return "theme-toggled" }
func (LoggedOut) eventName() string           { return "logged-out" }

var (
	// Refused transitions; normal control flow, never fatal.
	ErrGateClosed        = errors.New("session gate closed")
	ErrNotAuthenticated  = errors.New("no active session")
	ErrNotLoaded         = errors.New("initial session load has not resolved")
	ErrAlreadyLoaded     = errors.New("initial session load already resolved")
	ErrSessionActive     = errors.New("a session is already active")
	ErrOnboardingNotOpen = errors.New("onboarding is not required")
	ErrMissingArtifacts  = errors.New("onboarding requires a notes and a textbook upload")
	ErrTestNotDue        = errors.New("no weekly test is due")
	ErrTestInProgress    = errors.New("a weekly test is already in progress")
)

// Evaluate is the single decision function selecting the authoritative
// screen for a session. It is pure: the same (session, now) pair always
// yields the same state.
//
// Students owe onboarding first, then any due weekly test. Educators
// short-circuit to their dashboard no matter what progress flags the
// record carries.
func Evaluate(sess *Session, now time.Time) State {
	if sess == nil {
		return State{Screen: ScreenUnauthenticated}
	}
	if sess.IsStudent() {
		if !sess.OnboardingComplete {
			return State{Screen: ScreenOnboardingRequired}
		}
		if IsWeeklyTestDue(sess, now) {
			return State{Screen: ScreenWeeklyTestRequired}
		}
	}
	return State{Screen: ScreenActive, Role: sess.Role}
}

// Gate is the session-gating state machine: a synchronous reducer over
// (state, event) pairs. It owns a working copy of the session and
// reconciles it against the Store after every mutation. All dispatching is
// serialized; once closed, every event is refused, so no store write or
// callback happens after the host tears the gate down.
type Gate struct {
	store        Store
	uploads      UploadRegistry
	logger       core.Logger
	testDuration time.Duration

	// countdown lifetime; the gate, not any caller, owns the countdown
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	state      State
	sess       *Session
	closed     bool
	testCancel context.CancelFunc
	testGen    int
}

func NewGate(store Store, uploads UploadRegistry, logger core.Logger, testDuration time.Duration) *Gate {
	if testDuration <= 0 {
		testDuration = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Gate{
		store:        store,
		uploads:      uploads,
		logger:       logger,
		testDuration: testDuration,
		baseCtx:      ctx,
		baseCancel:   cancel,
		state:        State{Screen: ScreenLoading},
	}
}

// State returns the current resolved state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns a copy of the working session, or nil.
func (g *Gate) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess.Clone()
}

// Start resolves the initial session load. A store failure degrades to "no
// session": a user is never locked out of the auth screen by a bad record.
func (g *Gate) Start(ctx context.Context) State {
	sess, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn("loading persisted session", err)
		sess = nil
	}
	st, _ := g.Dispatch(ctx, Loaded{Session: sess})
	return st
}

// Dispatch reduces a single event. The returned state is the state after
// the event; on a refused transition it is unchanged and a sentinel error
// says why.
func (g *Gate) Dispatch(ctx context.Context, ev Event) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return g.state, ErrGateClosed
	}

	switch ev := ev.(type) {
	case Loaded:
		return g.onLoaded(ctx, ev)
	case SignedIn:
		return g.onSignedIn(ctx, ev)
	case OnboardingCompleted:
		return g.onOnboardingCompleted(ctx, ev)
	case WeeklyTestSubmitted:
		return g.onWeeklyTestSubmitted(ctx)
	case ThemeToggled:
		return g.onThemeToggled(ctx)
	case LoggedOut:
		return g.onLoggedOut(ctx)
	}
	return g.state, errors.Errorf("unknown event %q", ev.eventName())
}

// Close stops the gate. Pending async work (initial load, countdown) that
// resolves afterwards is refused at Dispatch and silently discarded.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.stopCountdown()
	g.baseCancel()
}

// StartWeeklyTest arms the assessment countdown. Expiry submits the test
// through the same transition as a manual submission; test ticks are
// superseded once it fires. The countdown runs on the gate's own lifetime,
// so it keeps running after the request that armed it returns; only a
// manual submission, a logout or Close stops it early.
func (g *Gate) StartWeeklyTest() (time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 0, ErrGateClosed
	}
	if g.state.Screen != ScreenWeeklyTestRequired {
		return 0, ErrTestNotDue
	}
	if g.testCancel != nil {
		return 0, ErrTestInProgress
	}

	cctx, cancel := context.WithCancel(g.baseCtx)
	g.testCancel = cancel
	g.testGen++
	gen := g.testGen
	cd := NewCountdown(g.testDuration, time.Second)
	go func() {
		cd.Run(cctx, nil, func() {
			// auto-submit; a refusal here means a manual submit won the race
			if _, err := g.Dispatch(context.Background(), WeeklyTestSubmitted{}); err != nil && err != ErrGateClosed && err != ErrTestNotDue {
				g.logger.Error("auto-submitting weekly test", err)
			}
		})
		g.clearCountdown(gen)
	}()
	return g.testDuration, nil
}

// reducers; all run with g.mu held

func (g *Gate) onLoaded(ctx context.Context, ev Loaded) (State, error) {
	if g.state.Screen != ScreenLoading {
		return g.state, ErrAlreadyLoaded
	}
	sess := ev.Session
	if sess != nil && !sess.Valid() {
		sess = nil
	}
	g.sess = sess
	g.state = Evaluate(g.sess, nowFunc())
	return g.state, nil
}

func (g *Gate) onSignedIn(ctx context.Context, ev SignedIn) (State, error) {
	if g.state.Screen == ScreenLoading {
		return g.state, ErrNotLoaded
	}
	if g.sess != nil {
		return g.state, ErrSessionActive
	}
	if ev.Session == nil || !ev.Session.Valid() {
		return g.state, ErrNotAuthenticated
	}
	if err := g.store.Save(ctx, ev.Session); err != nil {
		return g.state, errors.Wrap(err, "saving session")
	}
	g.sess = ev.Session
	g.state = Evaluate(g.sess, nowFunc())
	return g.state, nil
}

func (g *Gate) onOnboardingCompleted(ctx context.Context, ev OnboardingCompleted) (State, error) {
	if g.state.Screen != ScreenOnboardingRequired {
		return g.state, ErrOnboardingNotOpen
	}

	profile := ev.Profile
	if err := profile.Validate(); err != nil {
		return g.state, err
	}
	ok, err := g.hasRequiredArtifacts(ctx)
	if err != nil {
		return g.state, errors.Wrap(err, "checking uploaded artifacts")
	}
	if !ok {
		return g.state, ErrMissingArtifacts
	}

	sess := g.sess.Clone()
	sess.OnboardingComplete = true
	sess.Profile = &profile
	sess.UpdatedAt = time.Now().UTC()
	if err := g.store.Save(ctx, sess); err != nil {
		return g.state, errors.Wrap(err, "saving session")
	}
	g.sess = sess
	g.state = Evaluate(g.sess, nowFunc())
	return g.state, nil
}

func (g *Gate) onWeeklyTestSubmitted(ctx context.Context) (State, error) {
	if g.state.Screen != ScreenWeeklyTestRequired {
		return g.state, ErrTestNotDue
	}
	g.stopCountdown()

	now := nowFunc()
	sess := g.sess.Clone()
	sess.LastWeeklyTest = DateOf(now)
	sess.WeeklyTestStreak++
	sess.UpdatedAt = now.UTC()
	if err := g.store.Save(ctx, sess); err != nil {
		return g.state, errors.Wrap(err, "saving session")
	}
	g.sess = sess
	// cannot loop back: the test is no longer due today
	g.state = Evaluate(g.sess, now)
	return g.state, nil
}

func (g *Gate) onThemeToggled(ctx context.Context) (State, error) {
	if g.sess == nil {
		return g.state, ErrNotAuthenticated
	}
	sess := g.sess.Clone()
	if sess.Theme == ThemeDark {
		sess.Theme = ThemeLight
	} else {
		sess.Theme = ThemeDark
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := g.store.Save(ctx, sess); err != nil {
		return g.state, errors.Wrap(err, "saving session")
	}
	g.sess = sess
	return g.state, nil
}

func (g *Gate) onLoggedOut(ctx context.Context) (State, error) {
	g.stopCountdown()
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Warn("clearing session store", err)
	}
	if g.sess != nil {
		if err := g.uploads.ClearArtifacts(ctx, g.sess.ID); err != nil {
			g.logger.Warn("clearing uploaded artifacts", err)
		}
	}
	g.sess = nil
	g.state = State{Screen: ScreenUnauthenticated}
	return g.state, nil
}

func (g *Gate) hasRequiredArtifacts(ctx context.Context) (bool, error) {
	for _, kind := range AllArtifactKinds {
		ok, err := g.uploads.HasArtifactOfKind(ctx, g.sess.ID, kind)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (g *Gate) stopCountdown() {
	if g.testCancel != nil {
		g.testCancel()
		g.testCancel = nil
	}
}

// clearCountdown frees the countdown slot once the goroutine of run gen
// exits, unless a newer run already took the slot over.
func (g *Gate) clearCountdown(gen int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.testGen == gen {
		g.testCancel = nil
	}
}
