package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	g := &GoogleVerifier{}
	r.Register(models.ProviderGoogle, g)

	v, err := r.Verifier("google")
	require.NoError(t, err)
	assert.Same(t, g, v)

	_, err = r.Verifier("github")
	assert.ErrorIs(t, err, common.ErrInvalidProvider)

	_, err = r.Verifier("apple")
	assert.ErrorIs(t, err, common.ErrInvalidProvider, "supported but unconfigured")
}

func TestGoogleVerifier(t *testing.T) {
	g := NewGoogleVerifier("client-1")

	var gotAud string
	g.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAud = audience
		if token != "good" {
			return nil, errors.New("bad signature")
		}
		return &idtoken.Payload{
			Subject: "g-123",
			Claims: map[string]any{
				"email":          "a@gmail.com",
				"email_verified": true,
				"given_name":     "Ada",
				"family_name":    "Lovelace",
			},
		}, nil
	}

	p, err := g.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "client-1", gotAud)
	assert.Equal(t, models.ExternalProfile{
		Provider: "google", Subject: "g-123", Email: "a@gmail.com", EmailVerified: true, Name: "Ada Lovelace",
	}, p)

	_, err = g.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGoogleVerifier_MissingSubject(t *testing.T) {
	g := NewGoogleVerifier("c")
	g.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Claims: map[string]any{}}, nil
	}
	_, err := g.Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

type appleFixture struct {
	priv jwk.Key
	set  jwk.Set
	now  time.Time
}

func newAppleFixture(t *testing.T) appleFixture {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, priv.Set(jwk.KeyIDKey, "k1"))
	require.NoError(t, priv.Set(jwk.AlgorithmKey, jwa.RS256))

	pub, err := jwk.PublicKeyOf(priv)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, "k1"))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, jwa.RS256))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	return appleFixture{priv: priv, set: set, now: time.Now().Truncate(time.Second)}
}

func (f appleFixture) sign(t *testing.T, aud string, verified any) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(appleIssuer).
		Audience([]string{aud}).
		Subject("apple-sub").
		IssuedAt(f.now).
		Expiration(f.now.Add(time.Hour)).
		Claim("email", "x@privaterelay.appleid.com").
		Claim("email_verified", verified).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, f.priv))
	require.NoError(t, err)
	return string(signed)
}

func TestAppleVerifier(t *testing.T) {
	f := newAppleFixture(t)

	fetches := 0
	a := NewAppleVerifier("com.easebox.app")
	a.now = func() time.Time { return f.now }
	a.fetchKeys = func(context.Context) (jwk.Set, error) {
		fetches++
		return f.set, nil
	}

	p, err := a.Verify(context.Background(), f.sign(t, "com.easebox.app", "true"))
	require.NoError(t, err)
	assert.Equal(t, models.ExternalProfile{
		Provider: "apple", Subject: "apple-sub", Email: "x@privaterelay.appleid.com", EmailVerified: true,
	}, p)

	_, err = a.Verify(context.Background(), f.sign(t, "other.app", true))
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = a.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	assert.Equal(t, 1, fetches, "key set is cached")

	a.now = func() time.Time { return f.now.Add(2 * time.Hour) }
	_, err = a.Verify(context.Background(), f.sign(t, "com.easebox.app", true))
	assert.ErrorIs(t, err, ErrInvalidCredential, "expired token")
	assert.Equal(t, 2, fetches, "stale key set is refreshed")
}

func TestAppleVerifier_FetchError(t *testing.T) {
	a := NewAppleVerifier("c")
	a.fetchKeys = func(context.Context) (jwk.Set, error) { return nil, errors.New("offline") }

	_, err := a.Verify(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
}

func TestClaimHelpers(t *testing.T) {
	assert.True(t, claimBool(true))
	assert.True(t, claimBool("true"))
	assert.False(t, claimBool("false"))
	assert.False(t, claimBool(nil))
	assert.Equal(t, "", claimString(42))
}
