package oauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates Google ID tokens for a single OAuth client.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (g *GoogleVerifier) Verify(ctx context.Context, credential string) (models.ExternalProfile, error) {
	payload, err := g.validate(ctx, credential, g.clientID)
	if err != nil {
		return models.ExternalProfile{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if payload.Subject == "" {
		return models.ExternalProfile{}, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	name := claimString(payload.Claims["name"])
	if name == "" {
		name = strings.TrimSpace(claimString(payload.Claims["given_name"]) + " " + claimString(payload.Claims["family_name"]))
	}

	return models.ExternalProfile{
		Provider:      models.ProviderGoogle,
		Subject:       payload.Subject,
		Email:         claimString(payload.Claims["email"]),
		EmailVerified: claimBool(payload.Claims["email_verified"]),
		Name:          name,
	}, nil
}
