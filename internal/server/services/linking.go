package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/dbx"
	"github.com/dmitrijs2005/easebox-identity/internal/logging"
	"github.com/dmitrijs2005/easebox-identity/internal/server/events"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/dmitrijs2005/easebox-identity/internal/server/oauth"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/repomanager"
)

// DefaultFirstName is used when a provider supplies no usable name.
const DefaultFirstName = "User"

// ProviderVerifiers resolves the verifier of an external provider.
type ProviderVerifiers interface {
	Verifier(provider string) (oauth.Verifier, error)
}

// OAuthResult is the outcome of CompleteOAuth.
type OAuthResult struct {
	UserID    string
	IsNewUser bool
	// Linked is set when the identity was attached to an existing account.
	Linked bool
}

// LinkingService signs users in through external providers and manages the
// identities linked to an account.
type LinkingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	providers   ProviderVerifiers
	events      events.Publisher
	log         logging.Logger
}

func NewLinkingService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, providers ProviderVerifiers, p events.Publisher, log logging.Logger) *LinkingService {
	if p == nil {
		p = events.Nop{}
	}
	return &LinkingService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		providers:   providers,
		events:      p,
		log:         log.With("module", "linking"),
	}
}

// SplitName splits a display name at the first space. A single word becomes
// the first name, a blank name becomes DefaultFirstName.
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return DefaultFirstName, ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// PrepareNewOAuthUser returns the fields of a user about to be created from
// an external profile. Provider accounts carry no password.
func PrepareNewOAuthUser(p models.ExternalProfile) models.User {
	return models.User{
		Email:         NormalizeEmail(p.Email),
		PasswordHash:  nil,
		UserType:      models.UserTypeIndividual,
		EmailVerified: p.EmailVerified,
		PhoneVerified: false,
		TermsAccepted: true,
		IsActive:      true,
	}
}

// OnOAuthUserCreated creates the profile of a user that was just created from
// an external profile. It runs on the caller's transaction.
func (s *LinkingService) OnOAuthUserCreated(ctx context.Context, tx dbx.DBTX, user *models.User, displayName string) (*models.Profile, error) {
	first, last := SplitName(displayName)
	p, err := s.repomanager.Profiles(tx).Create(ctx, &models.Profile{
		UserID:    user.ID,
		FirstName: first,
		LastName:  last,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// CompleteOAuth resolves an attested external profile to a local user,
// creating or linking as needed. Repeated calls for the same provider
// subject return the same user.
//
// An existing account with the same email is only linked when both sides have
// proven ownership of the address (the provider attests it verified and the
// account verified it too) and the account has no identity of that provider
// yet; otherwise ErrOAuthAccountLinked.
func (s *LinkingService) CompleteOAuth(ctx context.Context, p models.ExternalProfile) (*OAuthResult, error) {
	return s.completeOAuth(ctx, p, true)
}

func (s *LinkingService) completeOAuth(ctx context.Context, p models.ExternalProfile, retry bool) (*OAuthResult, error) {
	if !models.IsSupportedProvider(p.Provider) {
		return nil, common.ErrInvalidProvider
	}
	if p.Subject == "" {
		return nil, common.NewAppError(common.ErrInvalidProvider, "Provider did not return an account id")
	}

	if res, err := s.existingIdentity(ctx, p); err != nil || res != nil {
		return res, err
	}

	email := NormalizeEmail(p.Email)
	if email == "" {
		return nil, common.NewAppError(common.ErrInvalidProvider, "Provider did not return an email address")
	}

	var res *OAuthResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		existing, err := s.repomanager.Users(tx).GetByEmail(ctx, email)
		switch {
		case err == nil:
			res, err = s.linkExisting(ctx, tx, existing, p, email)
			return err
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("lookup email: %w", err)
		}

		u := PrepareNewOAuthUser(p)
		user, err := s.repomanager.Users(tx).Create(ctx, &u)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := s.OnOAuthUserCreated(ctx, tx, user, p.Name); err != nil {
			return err
		}
		if _, err := s.repomanager.Identities(tx).Create(ctx, &models.Identity{
			UserID:          user.ID,
			Provider:        p.Provider,
			ProviderSubject: p.Subject,
			Email:           email,
		}); err != nil {
			return fmt.Errorf("create identity: %w", err)
		}
		res = &OAuthResult{UserID: user.ID, IsNewUser: true}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// a concurrent sign-in won the insert
			return s.afterRace(ctx, p, retry)
		}
		return nil, err
	}

	if res.IsNewUser {
		s.log.Info(ctx, "user created from provider", "user_id", res.UserID, "provider", p.Provider)
		publish(ctx, s.events, s.log, events.Event{
			Type:     events.TypeUserRegistered,
			UserID:   res.UserID,
			Email:    email,
			Provider: p.Provider,
		})
	} else {
		s.log.Info(ctx, "provider linked to existing user", "user_id", res.UserID, "provider", p.Provider)
	}
	publish(ctx, s.events, s.log, events.Event{
		Type:     events.TypeIdentityLinked,
		UserID:   res.UserID,
		Email:    email,
		Provider: p.Provider,
	})
	return res, nil
}

func (s *LinkingService) existingIdentity(ctx context.Context, p models.ExternalProfile) (*OAuthResult, error) {
	identity, err := s.repomanager.Identities(s.db).GetByProviderSubject(ctx, p.Provider, p.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	return &OAuthResult{UserID: identity.UserID}, nil
}

func (s *LinkingService) linkExisting(ctx context.Context, tx dbx.DBTX, user *models.User, p models.ExternalProfile, email string) (*OAuthResult, error) {
	// an unverified account may belong to someone who registered an address
	// they do not own
	if !p.EmailVerified || !user.EmailVerified {
		return nil, common.ErrOAuthAccountLinked
	}
	if _, err := s.repomanager.Users(tx).GetByIDForUpdate(ctx, user.ID); err != nil {
		return nil, mapNotFound(err, common.ErrUserNotFound, "lock user")
	}

	linked, err := s.repomanager.Identities(tx).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	for _, id := range linked {
		if id.Provider == p.Provider {
			return nil, common.ErrOAuthAccountLinked
		}
	}

	if _, err := s.repomanager.Identities(tx).Create(ctx, &models.Identity{
		UserID:          user.ID,
		Provider:        p.Provider,
		ProviderSubject: p.Subject,
		Email:           email,
	}); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return &OAuthResult{UserID: user.ID, Linked: true}, nil
}

func (s *LinkingService) afterRace(ctx context.Context, p models.ExternalProfile, retry bool) (*OAuthResult, error) {
	res, err := s.existingIdentity(ctx, p)
	if err != nil || res != nil {
		return res, err
	}
	// lost on the email or (user, provider) rule, not on the subject: the
	// winner's account now exists, so go through the link rules once more
	if retry {
		return s.completeOAuth(ctx, p, false)
	}
	return nil, common.ErrOAuthAccountLinked
}

// SignIn verifies a provider credential, completes the sign-in and issues
// tokens for the resulting user.
func (s *LinkingService) SignIn(ctx context.Context, provider, credential string) (*AuthResult, *OAuthResult, error) {
	if !models.IsSupportedProvider(provider) {
		return nil, nil, common.ErrInvalidProvider
	}
	v, err := s.providers.Verifier(provider)
	if err != nil {
		return nil, nil, err
	}
	profile, err := v.Verify(ctx, credential)
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidCredential) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("verify %s credential: %w", provider, err)
	}
	profile.Provider = provider

	res, err := s.CompleteOAuth(ctx, profile)
	if err != nil {
		return nil, nil, err
	}
	auth, err := s.IssueTokensForUser(ctx, res.UserID, provider)
	if err != nil {
		return nil, nil, err
	}
	return auth, res, nil
}

// IssueTokensForUser signs in a user that an external provider has already
// authenticated.
func (s *LinkingService) IssueTokensForUser(ctx context.Context, userID, provider string) (*AuthResult, error) {
	if !validUserID(userID) {
		return nil, common.ErrUserNotFound
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, common.ErrUserNotFound, "load user")
	}
	profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, common.ErrProfileNotFound, "load profile")
	}

	tokens, err := s.tokens.Issue(subjectOf(user))
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	s.log.Debug(ctx, "tokens issued", "user_id", userID, "provider", provider)
	return &AuthResult{Tokens: tokens, Profile: *profile, UserID: user.ID}, nil
}

// GetLinkedProviders lists the providers linked to userID, oldest first.
// An unknown user has none.
func (s *LinkingService) GetLinkedProviders(ctx context.Context, userID string) ([]string, error) {
	if !validUserID(userID) {
		return []string{}, nil
	}
	ids, err := s.repomanager.Identities(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Provider)
	}
	return out, nil
}

// UnlinkProvider removes the identity of provider from userID unless it is the
// account's last way to sign in. Unlinking a provider that is not linked is a
// no-op.
func (s *LinkingService) UnlinkProvider(ctx context.Context, userID, provider string) error {
	if !models.IsSupportedProvider(provider) {
		return common.ErrInvalidProvider
	}
	if !validUserID(userID) {
		return common.ErrUserNotFound
	}

	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).GetByIDForUpdate(ctx, userID)
		if err != nil {
			return mapNotFound(err, common.ErrUserNotFound, "lock user")
		}
		count, err := s.repomanager.Identities(tx).CountByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("count identities: %w", err)
		}
		if !user.HasPassword() && count <= 1 {
			return common.ErrCannotUnlinkOnlyAuth
		}
		removed, err = s.repomanager.Identities(tx).Delete(ctx, userID, provider)
		if err != nil {
			return fmt.Errorf("delete identity: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		s.log.Info(ctx, "provider unlinked", "user_id", userID, "provider", provider)
		publish(ctx, s.events, s.log, events.Event{
			Type:     events.TypeIdentityUnlinked,
			UserID:   userID,
			Provider: provider,
		})
	}
	return nil
}
