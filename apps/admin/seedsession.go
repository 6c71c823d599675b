package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studai/backend/core"
	"github.com/studai/backend/core/session"
)

// seedSession updates or creates the single persisted session record. An
// existing record for the same email keeps its progress; anything else is
// replaced wholesale.
func (cli *commandLine) seedSession(email, name, role, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	name = core.CleanString(name)

	if !session.IsValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	if name == "" {
		name = email
		if i := strings.Index(email, "@"); i > 0 {
			name = email[:i]
		}
	}

	sess, err := cli.store.Load(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if sess == nil || sess.Email != email {
		sess = &session.Session{
			ID:        uuid.New().String(),
			Email:     email,
			Theme:     core.Conf.DefaultTheme,
			CreatedAt: now,
		}
	}
	sess.DisplayName = name
	sess.Role = role
	sess.UpdatedAt = now
	if err = sess.SetPassword(pwd); err != nil {
		return err
	}
	if !sess.Valid() {
		return fmt.Errorf("seeded session is invalid")
	}
	return cli.store.Save(ctx, sess)
}

func (cli *commandLine) showSession() error {
	sess, err := cli.store.Load(context.Background())
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Println("session slot is empty")
		return nil
	}
	sess.PasswordHash = nil
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func (cli *commandLine) clearSession() error {
	return cli.store.Clear(context.Background())
}
