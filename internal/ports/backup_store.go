package ports

import (
	"context"

	"github.com/SeJohnEff/simprov/internal/domain"
)

// BackupStore persists one record's card data to a structured file and
// restores it later. Restore is the structural inverse of Create.
type BackupStore interface {
	Create(ctx context.Context, record domain.Record) (path string, err error)
	Restore(ctx context.Context, path string) (domain.Record, error)
}
