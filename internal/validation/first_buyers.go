package validation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

// FirstNBuyers finds the first n unique addresses that bought the token,
// optionally requiring a minimum USD swap value. Ordering is the canonical
// chronological tie-break: block height ascending, then block time ascending.
func FirstNBuyers(src DataSource, tokenPrincipal string, n int, minValueUSD float64, start time.Time) Query {
	return &firstBuyersQuery{
		src:         src,
		principal:   tokenPrincipal,
		n:           n,
		minValueUSD: minValueUSD,
		start:       start,
	}
}

type firstBuyersQuery struct {
	src         DataSource
	principal   string
	n           int
	minValueUSD float64
	start       time.Time
}

func (q *firstBuyersQuery) Execute(ctx context.Context) (*Result, error) {
	swaps, err := SwappedFor(q.src, q.principal, q.start, time.Time{}).Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch buyer swaps: %w", err)
	}
	if len(swaps.Matches) == 0 {
		// Fail closed: no swaps means no buyers to rank.
		return &Result{
			Satisfied: false,
			Matches:   nil,
			Metadata: map[string]any{
				"token":  q.principal,
				"n":      q.n,
				"reason": "no swaps found for token",
			},
		}, nil
	}

	candidates := swaps.Matches
	if q.minValueUSD > 0 {
		// Narrow over the already-fetched set, not a fresh fetch.
		narrowed, err := MinValueSwap(q.src, q.minValueUSD, StaticFetch(candidates)).Execute(ctx)
		if err != nil {
			return nil, fmt.Errorf("narrow by min value: %w", err)
		}
		candidates = narrowed.Matches
	}

	sorted := make([]domain.Transaction, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BlockHeight != sorted[j].BlockHeight {
			return sorted[i].BlockHeight < sorted[j].BlockHeight
		}
		return sorted[i].BlockTime.Before(sorted[j].BlockTime)
	})

	var matches []domain.Transaction
	var addresses []string
	counted := make(map[string]bool)
	for _, tx := range sorted {
		if counted[tx.UserAddress] {
			// Only the first transaction per address counts.
			continue
		}
		counted[tx.UserAddress] = true
		matches = append(matches, tx)
		addresses = append(addresses, tx.UserAddress)
		if len(addresses) == q.n {
			break
		}
	}

	return &Result{
		Satisfied: len(addresses) >= q.n,
		Matches:   matches,
		Metadata: map[string]any{
			"token":         q.principal,
			"n":             q.n,
			"count_found":   len(addresses),
			"addresses":     addresses,
			"min_value_usd": q.minValueUSD,
		},
	}, nil
}
