package users

import (
	"context"

	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
)

// EmailIndex is the unique index enforcing one account per email.
const EmailIndex = "users_email_lower_idx"

type Repository interface {
	// Create inserts user and fills ID and timestamps. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDForUpdate is GetByID holding a row lock until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetVerified(ctx context.Context, id string, ch models.Channel) error
}
