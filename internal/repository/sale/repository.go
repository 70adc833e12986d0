package sale

import (
	"context"

	"venusstore/internal/domain"
)

// Repository is durable storage for settled sales. Load returns the full
// ordered history; Append must flush durably before returning.
type Repository interface {
	Load(ctx context.Context) ([]domain.Sale, error)
	Append(ctx context.Context, s domain.Sale) error
	Reset(ctx context.Context) error
}
