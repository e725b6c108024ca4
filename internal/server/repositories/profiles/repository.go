package profiles

import (
	"context"

	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
}
