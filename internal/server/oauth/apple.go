package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	appleKeysURL = "https://appleid.apple.com/auth/keys"
	appleIssuer  = "https://appleid.apple.com"
)

// AppleVerifier validates "Sign in with Apple" ID tokens against Apple's
// published key set, refreshed at most once per keyTTL.
type AppleVerifier struct {
	clientID  string
	keyTTL    time.Duration
	fetchKeys func(ctx context.Context) (jwk.Set, error)
	now       func() time.Time

	mu        sync.Mutex
	keys      jwk.Set
	fetchedAt time.Time
}

func NewAppleVerifier(clientID string) *AppleVerifier {
	return &AppleVerifier{
		clientID: clientID,
		keyTTL:   time.Hour,
		fetchKeys: func(ctx context.Context) (jwk.Set, error) {
			return jwk.Fetch(ctx, appleKeysURL)
		},
		now: time.Now,
	}
}

func (a *AppleVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.keys != nil && a.now().Sub(a.fetchedAt) < a.keyTTL {
		return a.keys, nil
	}
	set, err := a.fetchKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch apple keys: %w", err)
	}
	a.keys, a.fetchedAt = set, a.now()
	return set, nil
}

func (a *AppleVerifier) Verify(ctx context.Context, credential string) (models.ExternalProfile, error) {
	set, err := a.keySet(ctx)
	if err != nil {
		return models.ExternalProfile{}, err
	}

	tok, err := jwt.ParseString(credential,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(a.clientID),
		jwt.WithClock(jwt.ClockFunc(a.now)),
	)
	if err != nil {
		return models.ExternalProfile{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if tok.Subject() == "" {
		return models.ExternalProfile{}, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	email, _ := tok.Get("email")
	verified, _ := tok.Get("email_verified")

	// Apple sends the name only in the first authorization response, never
	// inside the ID token.
	return models.ExternalProfile{
		Provider:      models.ProviderApple,
		Subject:       tok.Subject(),
		Email:         claimString(email),
		EmailVerified: claimBool(verified),
	}, nil
}
