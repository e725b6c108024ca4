// Package oauth turns credentials issued by external identity providers
// into verified profiles the linking engine can act on.
package oauth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
)

var ErrInvalidCredential = errors.New("invalid external credential")

// Verifier checks a provider-issued credential (an ID token) and returns
// what the provider attests about the user.
type Verifier interface {
	Verify(ctx context.Context, credential string) (models.ExternalProfile, error)
}

// Registry maps provider names to verifiers.
type Registry struct {
	verifiers map[string]Verifier
}

func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[string]Verifier)}
}

func (r *Registry) Register(provider string, v Verifier) {
	r.verifiers[provider] = v
}

// Verifier returns the verifier for provider. Unknown or unconfigured
// providers yield common.ErrInvalidProvider.
func (r *Registry) Verifier(provider string) (Verifier, error) {
	if !models.IsSupportedProvider(provider) {
		return nil, common.ErrInvalidProvider
	}
	v, ok := r.verifiers[provider]
	if !ok {
		return nil, common.NewAppError(common.ErrInvalidProvider, "provider "+provider+" is not configured")
	}
	return v, nil
}

func claimString(v any) string {
	s, _ := v.(string)
	return s
}

// claimBool accepts both JSON booleans and "true"/"false" strings; Apple
// sends the latter.
func claimBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}
