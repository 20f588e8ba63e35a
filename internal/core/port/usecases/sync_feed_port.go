package usecases

import (
	"context"

	"imobiliaria-sync/internal/core/domain"
)

// SyncFeedUseCasePort runs one full feed synchronization pass.
type SyncFeedUseCasePort interface {
	Execute(ctx context.Context) (*domain.RunSummary, error)
}
