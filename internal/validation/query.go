package validation

import (
	"context"
	"time"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

// Result is the outcome of executing a validation query. Matches never
// contain duplicate tx_ids within one result; Satisfied is derived from the
// matches plus validator-specific conditions (e.g. "found at least N").
type Result struct {
	Satisfied bool
	Matches   []domain.Transaction
	Metadata  map[string]any
}

// Query is a composable validation criterion. Combinators are themselves
// queries, so arbitrary nesting is supported. Composition is immutable and
// uncached: executing a combinator re-executes its operands.
type Query interface {
	Execute(ctx context.Context) (*Result, error)
}

// QueryFunc adapts a function to the Query interface.
type QueryFunc func(ctx context.Context) (*Result, error)

func (f QueryFunc) Execute(ctx context.Context) (*Result, error) { return f(ctx) }

// DataSource is the slice of the indexing API the validators consume.
// Implementations must treat empty data as a normal outcome, never an error.
type DataSource interface {
	ContractSwaps(ctx context.Context, contractID string, start, end time.Time, limit int) ([]domain.Transaction, error)
	RecentSwaps(ctx context.Context, limit int) ([]domain.Transaction, error)
	TokenTransfers(ctx context.Context, address, assetID string) ([]domain.Transaction, error)
	LatestPrices(ctx context.Context, assets ...string) (map[string]float64, error)
}
