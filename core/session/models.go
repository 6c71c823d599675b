package session

import (
	"encoding/json"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	RoleStudent  = "student"
	RoleEducator = "educator"
)

// Themes
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var AllRoles = []string{RoleStudent, RoleEducator}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Date is a calendar date with day-only precision. The zero value means "absent".
// It marshals as "2006-01-02" to match the persisted record layout.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its calendar date, keeping t's location so that
// "same day" follows the local wall clock.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Profile holds the student details gathered during onboarding.
type Profile struct {
	Grade    string   `json:"grade" validate:"required"`
	Age      int      `json:"age" validate:"required,gt=0"`
	Subjects []string `json:"subjects" validate:"required,min=1,dive,required"`
	Division string   `json:"division,omitempty"`
	RollNo   string   `json:"roll_no,omitempty"`
}

// Session is the authenticated user's persisted state record. A single
// record lives in the Store at a time; the Gate holds a working copy that
// it reconciles against the Store after each mutation.
type Session struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"display_name"`
	Role               string    `json:"role"` // immutable post-creation
	PasswordHash       []byte    `json:"password_hash,omitempty"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	Profile            *Profile  `json:"profile,omitempty"`
	LastWeeklyTest     Date      `json:"last_weekly_test"`
	WeeklyTestStreak   int       `json:"weekly_test_streak"`
	Theme              string    `json:"theme"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

func (s *Session) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Session) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

func (s *Session) IsStudent() bool  { return s.Role == RoleStudent }
func (s *Session) IsEducator() bool { return s.Role == RoleEducator }

// Valid reports whether the record satisfies the session invariants. Stores
// treat records failing this check as absent.
func (s *Session) Valid() bool {
	if s.ID == "" || s.Email == "" || !IsValidRole(s.Role) {
		return false
	}
	if s.WeeklyTestStreak < 0 {
		return false
	}
	if s.OnboardingComplete && s.IsStudent() {
		if s.Profile == nil {
			return false
		}
		if s.Profile.Grade == "" || s.Profile.Age <= 0 || len(s.Profile.Subjects) == 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy; the Gate hands copies out so callers cannot
// mutate its working state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.PasswordHash != nil {
		cp.PasswordHash = append([]byte(nil), s.PasswordHash...)
	}
	if s.Profile != nil {
		p := *s.Profile
		p.Subjects = append([]string(nil), s.Profile.Subjects...)
		cp.Profile = &p
	}
	return &cp
}
