// Package auth issues and verifies the signed access/refresh token pair.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// Subject is the identity carried by both tokens of a pair.
type Subject struct {
	UserID   string
	Email    string
	UserType string
}

// Claims is the JWT body.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

func (c *Claims) Subject() Subject {
	return Subject{UserID: c.UserID, Email: c.Email, UserType: c.UserType}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer signs tokens with HS256. Access and refresh tokens use separate
// secrets so one can never be replayed as the other.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{cfg: cfg, now: time.Now}
}

// Issue signs a fresh pair for s.
func (i *Issuer) Issue(s Subject) (TokenPair, error) {
	access, err := i.sign(s, i.cfg.AccessSecret, i.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(s, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) sign(s Subject, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   s.UserID,
		Email:    s.Email,
		UserType: s.UserType,
	})
	return token.SignedString(secret)
}

// Verify checks signature, algorithm and expiry of a token of the given kind.
// Expired tokens yield common.ErrTokenExpired, anything else invalid yields
// common.ErrInvalidToken.
func (i *Issuer) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	secret := i.cfg.AccessSecret
	if kind == RefreshToken {
		secret = i.cfg.RefreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Refresh exchanges a valid refresh token for a new pair with the same subject.
func (i *Issuer) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := i.Verify(refreshToken, RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return i.Issue(claims.Subject())
}
