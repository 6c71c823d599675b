package session

import (
	"testing"
	"time"
)

func TestSession_Valid(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{
			name: "fresh student",
			sess: Session{ID: "s1", Email: "a@b.c", Role: RoleStudent},
			want: true,
		},
		{
			name: "educator",
			sess: Session{ID: "e1", Email: "a@b.c", Role: RoleEducator},
			want: true,
		},
		{name: "missing id", sess: Session{Email: "a@b.c", Role: RoleStudent}},
		{name: "missing email", sess: Session{ID: "s1", Role: RoleStudent}},
		{name: "unknown role", sess: Session{ID: "s1", Email: "a@b.c", Role: "admin"}},
		{name: "negative streak", sess: Session{ID: "s1", Email: "a@b.c", Role: RoleStudent, WeeklyTestStreak: -1}},
		{
			name: "onboarded without profile",
			sess: Session{ID: "s1", Email: "a@b.c", Role: RoleStudent, OnboardingComplete: true},
		},
		{
			name: "onboarded with bad profile",
			sess: Session{ID: "s1", Email: "a@b.c", Role: RoleStudent, OnboardingComplete: true, Profile: &Profile{Grade: "Class 9"}},
		},
		{
			name: "onboarded with profile",
			sess: Session{
				ID: "s1", Email: "a@b.c", Role: RoleStudent, OnboardingComplete: true,
				Profile: &Profile{Grade: "Class 9", Age: 14, Subjects: []string{"English"}},
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	sess := &Session{
		ID: "s1", Email: "hero@test.cd", DisplayName: "hero", Role: RoleStudent,
		OnboardingComplete: true,
		Profile:            &Profile{Grade: "Class 10", Age: 15, Subjects: []string{"Mathematics"}},
		LastWeeklyTest:     DateOf(time.Date(2021, time.March, 13, 0, 0, 0, 0, time.UTC)),
		WeeklyTestStreak:   4,
		Theme:              ThemeDark,
	}
	data, err := Encode(sess)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	got := Decode(data)
	if got == nil {
		t.Fatal("Decode() = nil for a valid record")
	}
	if got.ID != sess.ID || got.Role != sess.Role || got.WeeklyTestStreak != 4 || got.Theme != ThemeDark {
		t.Errorf("Decode() = %+v, want %+v", got, sess)
	}
	if !got.LastWeeklyTest.Equal(sess.LastWeeklyTest.Time) {
		t.Errorf("LastWeeklyTest = %v, want %v", got.LastWeeklyTest, sess.LastWeeklyTest)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty"},
		{name: "garbage", data: []byte("not json at all")},
		{name: "truncated", data: data[:len(data)/2]},
		{name: "valid json, invalid session", data: []byte(`{"id":"s1"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.data); got != nil {
				t.Errorf("Decode() = %+v, want nil", got)
			}
		})
	}
}

func TestKindOfFile(t *testing.T) {
	tests := []struct {
		fname string
		want  string
	}{
		{"algebra-notes.pdf", ArtifactNotes},
		{"My Notes Ch3.docx", ArtifactNotes},
		{"NCERT-physics.pdf", ArtifactTextbook},
		{"chemistry_book.pdf", ArtifactTextbook},
	}
	for _, tt := range tests {
		if got := KindOfFile(tt.fname); got != tt.want {
			t.Errorf("KindOfFile(%q) = %q, want %q", tt.fname, got, tt.want)
		}
	}
}

func TestSession_Clone(t *testing.T) {
	orig := &Session{
		ID: "s1", Email: "a@b.c", Role: RoleStudent, OnboardingComplete: true,
		Profile: &Profile{Grade: "Class 10", Age: 15, Subjects: []string{"Mathematics"}},
	}
	cp := orig.Clone()
	cp.Profile.Subjects[0] = "Biology"
	cp.Profile.Age = 99

	if orig.Profile.Subjects[0] != "Mathematics" || orig.Profile.Age != 15 {
		t.Errorf("Clone() shares profile state: %+v", orig.Profile)
	}

	var nilSess *Session
	if nilSess.Clone() != nil {
		t.Error("Clone() of nil != nil")
	}
}
