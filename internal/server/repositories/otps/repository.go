package otps

import (
	"context"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
)

type Repository interface {
	// Create stores a new code and fills ID and CreatedAt.
	Create(ctx context.Context, otp *models.OTP) (*models.OTP, error)
	// DeleteForChannel removes every code of (userID, ch).
	DeleteForChannel(ctx context.Context, userID string, ch models.Channel) (int64, error)
	// Consume atomically deletes the live code matching all arguments and
	// returns it. No match yields common.ErrorNotFound.
	Consume(ctx context.Context, userID, code string, ch models.Channel, now time.Time) (*models.OTP, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
