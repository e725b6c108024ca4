package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/easebox-identity/internal/dbx"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/identities"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/otps"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against a pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	OTPs(db dbx.DBTX) otps.Repository
	Identities(db dbx.DBTX) identities.Repository
}
