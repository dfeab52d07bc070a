// Package store persists enrichment run history for auditing and the runs
// command. Product data itself is the caller's to persist; this records
// what each run did.
package store

import (
	"context"
	"time"

	"github.com/medalline/enrich/internal/model"
)

// RunRecord is one persisted enrichment run.
type RunRecord struct {
	ID          string                  `json:"id"`
	ProductID   string                  `json:"product_id"`
	ProductType string                  `json:"product_type"`
	Success     bool                    `json:"success"`
	Result      *model.EnrichmentResult `json:"result,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Store records enrichment runs.
type Store interface {
	SaveRun(ctx context.Context, productID, productType string, result *model.EnrichmentResult) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}
