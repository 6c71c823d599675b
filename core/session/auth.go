package session

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studai/backend/core"
)

// Authenticator is the collaborator that exchanges credentials for a
// session record. The stub implementation below never rejects credentials;
// a real one will, and the gate surfaces that as the unauthenticated
// screen with an error annotation.
type Authenticator interface {
	Login(ctx context.Context, creds LoginCredentials) (*Session, error)
	Signup(ctx context.Context, creds SignupCredentials) (*Session, error)
}

type stubAuthenticator struct {
	mailSvc      core.EmailService
	defaultTheme string
	delay        time.Duration // simulated network latency
}

var _ Authenticator = (*stubAuthenticator)(nil)

// NewStubAuthenticator fabricates sessions in-memory. delay simulates an
// upstream call and is cancellable through ctx, so a torn-down host never
// receives a late session.
func NewStubAuthenticator(mailSvc core.EmailService, defaultTheme string, delay time.Duration) Authenticator {
	if defaultTheme == "" {
		defaultTheme = ThemeLight
	}
	return &stubAuthenticator{
		mailSvc:      mailSvc,
		defaultTheme: defaultTheme,
		delay:        delay,
	}
}

func (a *stubAuthenticator) Login(ctx context.Context, creds LoginCredentials) (*Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return a.fabricate(creds.Email, creds.Password, "", creds.Role)
}

func (a *stubAuthenticator) Signup(ctx context.Context, creds SignupCredentials) (*Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	sess, err := a.fabricate(creds.Email, creds.Password, creds.Name, creds.Role)
	if err != nil {
		return nil, err
	}
	a.sendWelcomeMail(sess)
	return sess, nil
}

func (a *stubAuthenticator) wait(ctx context.Context) error {
	if a.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.delay):
		return nil
	}
}

func (a *stubAuthenticator) fabricate(email, pwd, name, role string) (*Session, error) {
	now := time.Now().UTC()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	if name == "" {
		name = displayNameFromEmail(email)
	}

	sess := &Session{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: name,
		Role:        role,
		Theme:       a.defaultTheme,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sess.SetPassword(pwd); err != nil {
		return nil, err
	}
	return sess, nil
}

func (a *stubAuthenticator) sendWelcomeMail(sess *Session) {
	if a.mailSvc == nil {
		return
	}
	a.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: sess.DisplayName, Address: sess.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{sess.DisplayName},
	})
}

// displayNameFromEmail derives a display name from the email's local part.
func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
