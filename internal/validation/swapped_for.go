package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

// SwappedFor matches transactions whose final swap leg delivered the given
// token within [start, end]. Identifier variants are tried in order with a
// short-circuit on the first variant yielding at least one match; results are
// never unioned across variants.
func SwappedFor(src DataSource, tokenPrincipal string, start, end time.Time) Query {
	return &swappedForQuery{src: src, principal: tokenPrincipal, start: start, end: end}
}

type swappedForQuery struct {
	src       DataSource
	principal string
	start     time.Time
	end       time.Time
}

func (q *swappedForQuery) Execute(ctx context.Context) (*Result, error) {
	end := q.end
	if end.IsZero() {
		end = time.Now().UTC()
	}

	variants := NormalizeTokenPrincipal(q.principal)
	for _, variant := range variants {
		txs, err := q.src.ContractSwaps(ctx, variant, q.start, end, 0)
		if err != nil {
			return nil, fmt.Errorf("fetch swaps for %s: %w", variant, err)
		}

		matches := filterSwapsFor(txs, variant, q.start, end)
		if len(matches) > 0 {
			return &Result{
				Satisfied: true,
				Matches:   matches,
				Metadata: map[string]any{
					"token":   q.principal,
					"variant": variant,
				},
			}, nil
		}
	}

	return &Result{
		Satisfied: false,
		Matches:   nil,
		Metadata: map[string]any{
			"token":          q.principal,
			"variants_tried": variants,
		},
	}, nil
}

// filterSwapsFor keeps transactions whose final leg output matches the
// variant and whose block time falls inside the window. The upstream range
// filter is not trusted to be exact.
func filterSwapsFor(txs []domain.Transaction, variant string, start, end time.Time) []domain.Transaction {
	var matches []domain.Transaction
	seen := make(map[string]bool)
	for _, tx := range txs {
		leg, ok := tx.FinalLeg()
		if !ok {
			continue
		}
		if StripAssetSuffix(leg.OutAsset) != variant {
			continue
		}
		if !tx.InWindow(start, end) {
			continue
		}
		if tx.TxID != "" && seen[tx.TxID] {
			continue
		}
		seen[tx.TxID] = true
		matches = append(matches, tx)
	}
	return matches
}
