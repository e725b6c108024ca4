package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/cryptox"
	"github.com/dmitrijs2005/easebox-identity/internal/dbx"
	"github.com/dmitrijs2005/easebox-identity/internal/logging"
	"github.com/dmitrijs2005/easebox-identity/internal/server/events"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/repomanager"
)

// Verifier starts verification of a freshly created account.
type Verifier interface {
	RequestVerification(ctx context.Context, userID string, ch models.Channel) error
}

type RegisterInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Phone         *string
	TermsAccepted bool
}

// RegistrationService creates password-based individual accounts.
type RegistrationService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	hasher       cryptox.Hasher
	tokens       TokenIssuer
	verification Verifier
	events       events.Publisher
	log          logging.Logger
}

func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.Hasher, tokens TokenIssuer, v Verifier, p events.Publisher, log logging.Logger) *RegistrationService {
	if p == nil {
		p = events.Nop{}
	}
	return &RegistrationService{
		db:           db,
		repomanager:  m,
		hasher:       hasher,
		tokens:       tokens,
		verification: v,
		events:       p,
		log:          log.With("module", "registration"),
	}
}

// RegisterIndividual creates the user and its profile atomically, kicks off
// email verification and signs the user in.
//
// The email is checked before the terms flag, so a taken address is reported
// as ErrEmailExists even when terms were not accepted.
func (s *RegistrationService) RegisterIndividual(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)

	_, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrEmailExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if !in.TermsAccepted {
		return nil, common.ErrTermsNotAccepted
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var phone *string
	if in.Phone != nil {
		if p := strings.TrimSpace(*in.Phone); p != "" {
			phone = &p
		}
	}

	var (
		user    *models.User
		profile *models.Profile
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:         email,
			PasswordHash:  &hash,
			UserType:      models.UserTypeIndividual,
			TermsAccepted: true,
			IsActive:      true,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrEmailExists
			}
			return fmt.Errorf("create user: %w", err)
		}

		profile, err = s.repomanager.Profiles(tx).Create(ctx, &models.Profile{
			UserID:    user.ID,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Phone:     phone,
		})
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	publish(ctx, s.events, s.log, events.Event{
		Type:   events.TypeUserRegistered,
		UserID: user.ID,
		Email:  user.Email,
	})

	if s.verification != nil {
		if err := s.verification.RequestVerification(ctx, user.ID, models.ChannelEmail); err != nil {
			s.log.Warn(ctx, "initial verification email failed", "user_id", user.ID, "error", err)
		}
	}

	tokens, err := s.tokens.Issue(subjectOf(user))
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	sanitized := user.Sanitized()
	return &AuthResult{
		Tokens:  tokens,
		Profile: *profile,
		UserID:  user.ID,
		User:    &sanitized,
	}, nil
}
