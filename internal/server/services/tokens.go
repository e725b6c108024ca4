package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/server/auth"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/repomanager"
)

// RefreshVerifier validates refresh tokens.
type RefreshVerifier interface {
	TokenIssuer
	Verify(token string, kind auth.TokenKind) (*auth.Claims, error)
}

// TokenService exchanges refresh tokens for new pairs.
type TokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      RefreshVerifier
}

func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, issuer RefreshVerifier) *TokenService {
	return &TokenService{db: db, repomanager: m, issuer: issuer}
}

// RefreshTokens issues a new pair for the owner of refreshToken. Tokens of
// deleted or deactivated accounts are rejected with common.ErrInvalidToken.
// The pair is rebuilt from the stored user so an email change is picked up.
func (s *TokenService) RefreshTokens(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if !validUserID(claims.UserID) {
		return auth.TokenPair{}, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.TokenPair{}, common.ErrInvalidToken
		}
		return auth.TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return auth.TokenPair{}, common.ErrInvalidToken
	}

	pair, err := s.issuer.Issue(subjectOf(user))
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}
