package session

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/studai/backend/core"
)

// memStore keeps the serialized record in memory, like the production
// inmem store, so corrupt-record handling is exercised end to end.
type memStore struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
}

func (s *memStore) Load(context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return Decode(s.data), nil
}

func (s *memStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

func (s *memStore) stored() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Decode(s.data)
}

type memUploads struct {
	mu   sync.Mutex
	arts []Artifact
}

func (u *memUploads) RegisterArtifact(_ context.Context, art Artifact) (Artifact, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.arts = append(u.arts, art)
	return art, nil
}

func (u *memUploads) HasArtifactOfKind(_ context.Context, sessionID, kind string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, a := range u.arts {
		if a.SessionID == sessionID && a.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (u *memUploads) QueryArtifacts(_ context.Context, sessionID string) ([]Artifact, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var arts []Artifact
	for _, a := range u.arts {
		if a.SessionID == sessionID {
			arts = append(arts, a)
		}
	}
	return arts, nil
}

func (u *memUploads) ClearArtifacts(_ context.Context, sessionID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	kept := u.arts[:0]
	for _, a := range u.arts {
		if a.SessionID != sessionID {
			kept = append(kept, a)
		}
	}
	u.arts = kept
	return nil
}

var testLogger = core.NewStdLogger(log.New(io.Discard, "", 0))

func newTestGate(store Store, uploads UploadRegistry) *Gate {
	return NewGate(store, uploads, testLogger, time.Minute)
}

func studentSession(onboarded bool, last Date) *Session {
	sess := &Session{
		ID:                 "s1",
		Email:              "hero@test.cd",
		DisplayName:        "hero",
		Role:               RoleStudent,
		OnboardingComplete: onboarded,
		LastWeeklyTest:     last,
		Theme:              ThemeLight,
	}
	if onboarded {
		sess.Profile = &Profile{Grade: "Class 10", Age: 15, Subjects: []string{"Mathematics"}}
	}
	return sess
}

func educatorSession() *Session {
	return &Session{ID: "e1", Email: "teacher@test.cd", DisplayName: "teacher", Role: RoleEducator, Theme: ThemeLight}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2021, time.March, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sess *Session
		want State
	}{
		{name: "no session", want: State{Screen: ScreenUnauthenticated}},
		{
			name: "student not onboarded",
			sess: studentSession(false, Date{}),
			want: State{Screen: ScreenOnboardingRequired},
		},
		{
			name: "student onboarded, never tested",
			sess: studentSession(true, Date{}),
			want: State{Screen: ScreenWeeklyTestRequired},
		},
		{
			name: "student onboarded, tested 3 days ago",
			sess: studentSession(true, DateOf(now.AddDate(0, 0, -3))),
			want: State{Screen: ScreenActive, Role: RoleStudent},
		},
		{
			name: "student onboarded, tested 8 days ago",
			sess: studentSession(true, DateOf(now.AddDate(0, 0, -8))),
			want: State{Screen: ScreenWeeklyTestRequired},
		},
		{
			name: "educator, no profile, no onboarding flag",
			sess: educatorSession(),
			want: State{Screen: ScreenActive, Role: RoleEducator},
		},
		{
			name: "educator overdue flags are ignored",
			sess: &Session{ID: "e2", Email: "t@test.cd", Role: RoleEducator, OnboardingComplete: false},
			want: State{Screen: ScreenActive, Role: RoleEducator},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.sess, now); got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGate_Start(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
		want  Screen
	}{
		{name: "empty store", store: &memStore{}, want: ScreenUnauthenticated},
		{name: "corrupt record", store: &memStore{data: []byte("{lol")}, want: ScreenUnauthenticated},
		{name: "invalid record", store: &memStore{data: []byte(`{"id":"x"}`)}, want: ScreenUnauthenticated},
		{name: "store failure", store: &memStore{loadErr: context.DeadlineExceeded}, want: ScreenUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := newTestGate(tt.store, &memUploads{})
			if st := gate.Start(context.Background()); st.Screen != tt.want {
				t.Errorf("Start() screen = %v, want %v", st.Screen, tt.want)
			}
		})
	}
}

func TestGate_Start_restoresSession(t *testing.T) {
	store := &memStore{}
	sess := studentSession(true, DateOf(time.Now().AddDate(0, 0, -3)))
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	gate := newTestGate(store, &memUploads{})
	st := gate.Start(context.Background())
	if want := (State{Screen: ScreenActive, Role: RoleStudent}); st != want {
		t.Errorf("Start() = %+v, want %+v", st, want)
	}
	if got := gate.Session(); got == nil || got.ID != sess.ID {
		t.Errorf("Session() = %+v, want id %q", got, sess.ID)
	}
}

// Fresh student: onboarding gates first; completing it with both artifact
// kinds routes straight to the weekly test since none was ever taken.
func TestGate_onboardingFlow(t *testing.T) {
	store := &memStore{}
	uploads := &memUploads{}
	gate := newTestGate(store, uploads)
	ctx := context.Background()

	gate.Start(ctx)
	st, err := gate.Dispatch(ctx, SignedIn{Session: studentSession(false, Date{})})
	if err != nil {
		t.Fatalf("Dispatch(SignedIn) failed: %v", err)
	}
	if st.Screen != ScreenOnboardingRequired {
		t.Fatalf("screen after sign-in = %v, want %v", st.Screen, ScreenOnboardingRequired)
	}

	profile := Profile{Grade: "Class 10", Age: 15, Subjects: []string{"Mathematics", "Physics"}}

	// no uploads at all: refused, state unchanged
	st, err = gate.Dispatch(ctx, OnboardingCompleted{Profile: profile})
	if err != ErrMissingArtifacts {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrMissingArtifacts)
	}
	if st.Screen != ScreenOnboardingRequired {
		t.Errorf("screen = %v, want unchanged %v", st.Screen, ScreenOnboardingRequired)
	}

	// notes only: still refused
	if _, err := uploads.RegisterArtifact(ctx, Artifact{ID: "a1", SessionID: "s1", Name: "my-notes.pdf", Kind: ArtifactNotes}); err != nil {
		t.Fatalf("RegisterArtifact() failed: %v", err)
	}
	if _, err = gate.Dispatch(ctx, OnboardingCompleted{Profile: profile}); err != ErrMissingArtifacts {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrMissingArtifacts)
	}

	// invalid profile with both kinds registered: refused on the profile
	if _, err := uploads.RegisterArtifact(ctx, Artifact{ID: "a2", SessionID: "s1", Name: "chem.pdf", Kind: ArtifactTextbook}); err != nil {
		t.Fatalf("RegisterArtifact() failed: %v", err)
	}
	if _, err = gate.Dispatch(ctx, OnboardingCompleted{Profile: Profile{Grade: "", Age: 0}}); err == nil {
		t.Error("Dispatch() with invalid profile succeeded, want validation error")
	}

	// valid profile + both kinds: next stop is the never-taken weekly test
	st, err = gate.Dispatch(ctx, OnboardingCompleted{Profile: profile})
	if err != nil {
		t.Fatalf("Dispatch(OnboardingCompleted) failed: %v", err)
	}
	if st.Screen != ScreenWeeklyTestRequired {
		t.Errorf("screen = %v, want %v", st.Screen, ScreenWeeklyTestRequired)
	}

	stored := store.stored()
	if stored == nil || !stored.OnboardingComplete || stored.Profile == nil {
		t.Errorf("stored session = %+v, want onboarding complete with profile", stored)
	}
}

func TestGate_weeklyTestSubmission(t *testing.T) {
	store := &memStore{}
	gate := newTestGate(store, &memUploads{})
	ctx := context.Background()

	now := time.Date(2021, time.March, 20, 10, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	sess := studentSession(true, Date{})
	sess.WeeklyTestStreak = 2
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if st := gate.Start(ctx); st.Screen != ScreenWeeklyTestRequired {
		t.Fatalf("Start() screen = %v, want %v", st.Screen, ScreenWeeklyTestRequired)
	}

	st, err := gate.Dispatch(ctx, WeeklyTestSubmitted{})
	if err != nil {
		t.Fatalf("Dispatch(WeeklyTestSubmitted) failed: %v", err)
	}
	if want := (State{Screen: ScreenActive, Role: RoleStudent}); st != want {
		t.Errorf("state = %+v, want %+v", st, want)
	}

	got := gate.Session()
	if !got.LastWeeklyTest.Equal(DateOf(now).Time) {
		t.Errorf("LastWeeklyTest = %v, want %v", got.LastWeeklyTest, DateOf(now))
	}
	if got.WeeklyTestStreak != 3 {
		t.Errorf("WeeklyTestStreak = %d, want 3", got.WeeklyTestStreak)
	}
	if stored := store.stored(); stored == nil || stored.WeeklyTestStreak != 3 {
		t.Errorf("stored streak = %+v, want 3", stored)
	}

	// not due anymore: a second submission is refused
	if _, err = gate.Dispatch(ctx, WeeklyTestSubmitted{}); err != ErrTestNotDue {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrTestNotDue)
	}
}

func TestGate_logout(t *testing.T) {
	store := &memStore{}
	uploads := &memUploads{}
	gate := newTestGate(store, uploads)
	ctx := context.Background()

	gate.Start(ctx)
	if _, err := gate.Dispatch(ctx, SignedIn{Session: studentSession(false, Date{})}); err != nil {
		t.Fatalf("Dispatch(SignedIn) failed: %v", err)
	}
	if _, err := uploads.RegisterArtifact(ctx, Artifact{ID: "a1", SessionID: "s1", Name: "notes.pdf", Kind: ArtifactNotes}); err != nil {
		t.Fatalf("RegisterArtifact() failed: %v", err)
	}

	st, err := gate.Dispatch(ctx, LoggedOut{})
	if err != nil {
		t.Fatalf("Dispatch(LoggedOut) failed: %v", err)
	}
	if st.Screen != ScreenUnauthenticated {
		t.Errorf("screen = %v, want %v", st.Screen, ScreenUnauthenticated)
	}
	if stored := store.stored(); stored != nil {
		t.Errorf("store still holds %+v after logout", stored)
	}
	if gate.Session() != nil {
		t.Error("Session() != nil after logout")
	}

	// the torn-down session's artifacts are purged with it
	if arts, err := uploads.QueryArtifacts(ctx, "s1"); err != nil || len(arts) != 0 {
		t.Errorf("QueryArtifacts() after logout = %v, %v; want none", arts, err)
	}
}

func TestGate_themeToggle(t *testing.T) {
	store := &memStore{}
	gate := newTestGate(store, &memUploads{})
	ctx := context.Background()

	gate.Start(ctx)

	// no session yet
	if _, err := gate.Dispatch(ctx, ThemeToggled{}); err != ErrNotAuthenticated {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrNotAuthenticated)
	}

	// toggling never changes the active screen, even mid-onboarding
	if _, err := gate.Dispatch(ctx, SignedIn{Session: studentSession(false, Date{})}); err != nil {
		t.Fatalf("Dispatch(SignedIn) failed: %v", err)
	}
	st, err := gate.Dispatch(ctx, ThemeToggled{})
	if err != nil {
		t.Fatalf("Dispatch(ThemeToggled) failed: %v", err)
	}
	if st.Screen != ScreenOnboardingRequired {
		t.Errorf("screen = %v, want %v", st.Screen, ScreenOnboardingRequired)
	}
	if got := gate.Session().Theme; got != ThemeDark {
		t.Errorf("theme = %q, want %q", got, ThemeDark)
	}
	if stored := store.stored(); stored == nil || stored.Theme != ThemeDark {
		t.Errorf("stored theme = %+v, want %q", stored, ThemeDark)
	}

	if _, err = gate.Dispatch(ctx, ThemeToggled{}); err != nil {
		t.Fatalf("Dispatch(ThemeToggled) failed: %v", err)
	}
	if got := gate.Session().Theme; got != ThemeLight {
		t.Errorf("theme after second toggle = %q, want %q", got, ThemeLight)
	}
}

func TestGate_signInGuards(t *testing.T) {
	gate := newTestGate(&memStore{}, &memUploads{})
	ctx := context.Background()

	// before the initial load resolves
	if _, err := gate.Dispatch(ctx, SignedIn{Session: educatorSession()}); err != ErrNotLoaded {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrNotLoaded)
	}

	gate.Start(ctx)
	if _, err := gate.Dispatch(ctx, SignedIn{Session: educatorSession()}); err != nil {
		t.Fatalf("Dispatch(SignedIn) failed: %v", err)
	}

	// a second sign-in while a session is active is refused
	if _, err := gate.Dispatch(ctx, SignedIn{Session: studentSession(false, Date{})}); err != ErrSessionActive {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrSessionActive)
	}

	// a second load resolution is refused too
	if _, err := gate.Dispatch(ctx, Loaded{}); err != ErrAlreadyLoaded {
		t.Errorf("Dispatch(Loaded) error = %v, want %v", err, ErrAlreadyLoaded)
	}
}

func TestGate_closed(t *testing.T) {
	gate := newTestGate(&memStore{}, &memUploads{})
	gate.Close()

	if _, err := gate.Dispatch(context.Background(), LoggedOut{}); err != ErrGateClosed {
		t.Errorf("Dispatch() error = %v, want %v", err, ErrGateClosed)
	}
	if _, err := gate.StartWeeklyTest(); err != ErrGateClosed {
		t.Errorf("StartWeeklyTest() error = %v, want %v", err, ErrGateClosed)
	}
}

func TestGate_startWeeklyTestGuards(t *testing.T) {
	gate := newTestGate(&memStore{}, &memUploads{})
	ctx := context.Background()

	gate.Start(ctx)
	if _, err := gate.StartWeeklyTest(); err != ErrTestNotDue {
		t.Errorf("StartWeeklyTest() error = %v, want %v", err, ErrTestNotDue)
	}

	if _, err := gate.Dispatch(ctx, SignedIn{Session: studentSession(true, Date{})}); err != nil {
		t.Fatalf("Dispatch(SignedIn) failed: %v", err)
	}
	if _, err := gate.StartWeeklyTest(); err != nil {
		t.Fatalf("StartWeeklyTest() failed: %v", err)
	}
	if _, err := gate.StartWeeklyTest(); err != ErrTestInProgress {
		t.Errorf("StartWeeklyTest() error = %v, want %v", err, ErrTestInProgress)
	}

	// manual submission cancels the countdown and frees the slot
	if _, err := gate.Dispatch(ctx, WeeklyTestSubmitted{}); err != nil {
		t.Fatalf("Dispatch(WeeklyTestSubmitted) failed: %v", err)
	}
	if st := gate.State(); st.Screen != ScreenActive {
		t.Errorf("screen = %v, want %v", st.Screen, ScreenActive)
	}
}

func TestGate_countdownAutoSubmits(t *testing.T) {
	if testing.Short() {
		t.Skip("countdown runs on a 1s tick")
	}

	store := &memStore{}
	gate := NewGate(store, &memUploads{}, testLogger, time.Second)
	t.Cleanup(gate.Close)
	ctx := context.Background()

	if err := store.Save(ctx, studentSession(true, Date{})); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if st := gate.Start(ctx); st.Screen != ScreenWeeklyTestRequired {
		t.Fatalf("Start() screen = %v, want %v", st.Screen, ScreenWeeklyTestRequired)
	}
	if _, err := gate.StartWeeklyTest(); err != nil {
		t.Fatalf("StartWeeklyTest() failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if gate.State().Screen == ScreenActive {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if st := gate.State(); st.Screen != ScreenActive {
		t.Fatalf("screen = %v after countdown, want %v", st.Screen, ScreenActive)
	}
	if got := gate.Session(); got.WeeklyTestStreak != 1 {
		t.Errorf("WeeklyTestStreak = %d, want 1", got.WeeklyTestStreak)
	}

	// the slot is free again: a new due cycle can arm a fresh countdown
	if _, err := gate.Dispatch(ctx, LoggedOut{}); err != nil {
		t.Fatalf("Dispatch(LoggedOut) failed: %v", err)
	}
	if _, err := gate.Dispatch(ctx, SignedIn{Session: studentSession(true, Date{})}); err != nil {
		t.Fatalf("Dispatch(SignedIn) failed: %v", err)
	}
	if _, err := gate.StartWeeklyTest(); err != nil {
		t.Errorf("StartWeeklyTest() after a completed countdown = %v, want it re-armed", err)
	}
}
