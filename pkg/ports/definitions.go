package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/tinylink/pkg/core/domain"
)

// LinkRepository defines storage operations for links
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByCode(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error)
	Delete(ctx context.Context, code string) error

	// RecordClick applies clicks = clicks + 1 and sets last_clicked at the
	// store, so concurrent clicks on the same code never lose updates.
	RecordClick(ctx context.Context, code string, at time.Time) error

	Dump(ctx context.Context) ([]domain.Link, error)      // For migration
	Restore(ctx context.Context, link *domain.Link) error // For migration, keeps counters
}

// LinkService defines the business logic operations
type LinkService interface {
	Create(ctx context.Context, targetURL, requestedCode string) (*domain.Link, error)
	Get(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error)
	Delete(ctx context.Context, code string) error

	// ResolveAndRecord returns the target URL for a code and detaches the
	// click accounting write from the caller's request.
	ResolveAndRecord(ctx context.Context, code string) (string, error)
}
