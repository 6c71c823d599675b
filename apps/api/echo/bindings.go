package echoapi

import (
	"github.com/studai/backend/core"
	"github.com/studai/backend/core/session"
)

type (
	// SessionResponse is the client-facing session shape; it never carries
	// the password hash.
	SessionResponse struct {
		ID                 string           `json:"id"`
		Email              string           `json:"email"`
		DisplayName        string           `json:"display_name"`
		Role               string           `json:"role"`
		OnboardingComplete bool             `json:"onboarding_complete"`
		Profile            *session.Profile `json:"profile,omitempty"`
		LastWeeklyTest     session.Date     `json:"last_weekly_test"`
		WeeklyTestStreak   int              `json:"weekly_test_streak"`
		Theme              string           `json:"theme"`
	}

	AuthResponse struct {
		Token   string           `json:"token"`
		State   session.State    `json:"state"`
		Session *SessionResponse `json:"session"`
	}

	StateResponse struct {
		State session.State `json:"state"`
	}

	SessionStateResponse struct {
		State   session.State    `json:"state"`
		Session *SessionResponse `json:"session"`
	}

	UploadRequest struct {
		Name string `json:"name" validate:"required"`
		Size int64  `json:"size" validate:"gte=0"`
	}

	WeeklyTestResponse struct {
		RemainingSeconds int `json:"remaining_seconds"`
	}

	ThemeResponse struct {
		Theme string        `json:"theme"`
		State session.State `json:"state"`
	}
)

func (ur *UploadRequest) Validate() error {
	ur.Name = core.CleanString(ur.Name)
	return core.Validate.Struct(ur)
}

func newSessionResponse(sess *session.Session) *SessionResponse {
	if sess == nil {
		return nil
	}
	resp := &SessionResponse{
		ID:                 sess.ID,
		Email:              sess.Email,
		DisplayName:        sess.DisplayName,
		Role:               sess.Role,
		OnboardingComplete: sess.OnboardingComplete,
		LastWeeklyTest:     sess.LastWeeklyTest,
		WeeklyTestStreak:   sess.WeeklyTestStreak,
		Theme:              sess.Theme,
	}
	resp.Profile = sess.Profile
	return resp
}
