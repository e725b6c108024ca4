package identities

import (
	"context"

	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
)

const (
	UserProviderKey    = "identities_user_provider_key"
	ProviderSubjectKey = "identities_provider_subject_key"
)

type Repository interface {
	// Create links an external account. Either uniqueness rule being hit
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Identity, error)
	ListByUser(ctx context.Context, userID string) ([]models.Identity, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, provider string) (int64, error)
}
