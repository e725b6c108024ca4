package models

import "time"

const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

var supportedProviders = map[string]struct{}{
	ProviderGoogle: {},
	ProviderApple:  {},
}

func IsSupportedProvider(p string) bool {
	_, ok := supportedProviders[p]
	return ok
}

// Identity links a local user to an account at an external provider.
type Identity struct {
	ID              string
	UserID          string
	Provider        string
	ProviderSubject string
	Email           string
	CreatedAt       time.Time
}

// ExternalProfile is what a provider attests after a completed sign-in.
type ExternalProfile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}
