// Package identities stores links between local users and external
// identity providers.
package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	query :=
		`INSERT INTO identities (user_id, provider, provider_subject, email)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		identity.UserID, identity.Provider, identity.ProviderSubject, identity.Email,
	).Scan(&identity.ID, &identity.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: %v", common.ErrorAlreadyExists, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return identity, nil
}

func (r *PostgresRepository) GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Identity, error) {
	query :=
		`SELECT id, user_id, provider, provider_subject, email, created_at FROM identities
		 WHERE provider = $1 AND provider_subject = $2
		 `

	i := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, provider, subject).
		Scan(&i.ID, &i.UserID, &i.Provider, &i.ProviderSubject, &i.Email, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Identity, error) {
	query :=
		`SELECT id, user_id, provider, provider_subject, email, created_at FROM identities
		 WHERE user_id = $1
		 ORDER BY created_at, provider
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Identity, 0)
	for rows.Next() {
		var i models.Identity
		if err := rows.Scan(&i.ID, &i.UserID, &i.Provider, &i.ProviderSubject, &i.Email, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, provider string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
