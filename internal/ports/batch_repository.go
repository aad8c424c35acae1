package ports

import (
	"context"

	"github.com/SeJohnEff/simprov/internal/domain"
)

// BatchRepository loads and saves provisioning batches as CSV files and
// imports key=value parameter files as single records.
type BatchRepository interface {
	Load(ctx context.Context, path string) (*domain.Batch, error)
	Save(ctx context.Context, path string, batch *domain.Batch) error
	LoadParameters(ctx context.Context, path string) (domain.Record, error)
}
