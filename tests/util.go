package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studai/backend/core/session"
)

// SaveSession persists a fabricated session record, as a previous run of the
// app would have left it.
func SaveSession(
	t *testing.T,
	store session.Store,
	name, email, pwd, role string,
	onboarded bool,
	lastWeeklyTest time.Time,
	streak int,
) *session.Session {
	t.Helper()

	tstamp := time.Now().UTC()
	sess := &session.Session{
		ID:                 uuid.New().String(),
		Email:              email,
		DisplayName:        name,
		Role:               role,
		OnboardingComplete: onboarded,
		WeeklyTestStreak:   streak,
		Theme:              session.ThemeLight,
		CreatedAt:          tstamp,
		UpdatedAt:          tstamp,
	}
	if onboarded && role == session.RoleStudent {
		sess.Profile = &session.Profile{Grade: "10", Age: 15, Subjects: []string{"math"}}
	}
	if !lastWeeklyTest.IsZero() {
		sess.LastWeeklyTest = session.DateOf(lastWeeklyTest)
	}
	if pwd != "" {
		if err := sess.SetPassword(pwd); err != nil {
			t.Fatalf("SaveSession() failed: %v", err)
		}
	}
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	return sess
}
