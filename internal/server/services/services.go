// Package services contains the server-side business logic: registration,
// OTP verification and external identity linking. Services are stateless
// over a *sql.DB; every multi-step write runs inside dbx.WithTx.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/logging"
	"github.com/dmitrijs2005/easebox-identity/internal/server/auth"
	"github.com/dmitrijs2005/easebox-identity/internal/server/events"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/google/uuid"
)

// TokenIssuer mints a token pair for an authenticated subject.
type TokenIssuer interface {
	Issue(s auth.Subject) (auth.TokenPair, error)
}

// AuthResult is returned by every operation that signs a user in.
type AuthResult struct {
	Tokens  auth.TokenPair
	Profile models.Profile
	UserID  string
	// User is only set by registration and never carries the password digest.
	User *models.User
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func subjectOf(u *models.User) auth.Subject {
	return auth.Subject{UserID: u.ID, Email: u.Email, UserType: string(u.UserType)}
}

// mapNotFound turns a repository miss into the given domain error and wraps
// everything else.
func mapNotFound(err error, notFound *common.AppError, op string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// publish is best-effort: a broker outage must not fail the operation that
// already committed.
func publish(ctx context.Context, p events.Publisher, log logging.Logger, e events.Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Warn(ctx, "event not published", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}
