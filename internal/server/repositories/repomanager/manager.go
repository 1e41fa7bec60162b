package repomanager

import (
	"context"
	"database/sql"

	"github.com/nononsenseapps/linksync/internal/dbx"
	"github.com/nononsenseapps/linksync/internal/server/repositories/devices"
	"github.com/nononsenseapps/linksync/internal/server/repositories/links"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Links(db dbx.DBTX) links.Repository
	Devices(db dbx.DBTX) devices.Repository
}
