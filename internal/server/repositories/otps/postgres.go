// Package otps stores one-time verification codes.
package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/dbx"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, otp *models.OTP) (*models.OTP, error) {
	query :=
		`INSERT INTO otps (user_id, code, channel, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, otp.UserID, otp.Code, string(otp.Channel), otp.ExpiresAt).
		Scan(&otp.ID, &otp.CreatedAt)
	if err != nil {
		// the owning user was deleted concurrently
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return otp, nil
}

func (r *PostgresRepository) DeleteForChannel(ctx context.Context, userID string, ch models.Channel) (int64, error) {
	query := `DELETE FROM otps WHERE user_id = $1 AND channel = $2`

	res, err := r.db.ExecContext(ctx, query, userID, string(ch))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) Consume(ctx context.Context, userID, code string, ch models.Channel, now time.Time) (*models.OTP, error) {
	query :=
		`DELETE FROM otps
		 WHERE user_id = $1 AND code = $2 AND channel = $3 AND expires_at > $4
		 RETURNING id, expires_at, created_at
		 `

	otp := &models.OTP{UserID: userID, Code: code, Channel: ch}
	err := r.db.QueryRowContext(ctx, query, userID, code, string(ch), now).
		Scan(&otp.ID, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return otp, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
