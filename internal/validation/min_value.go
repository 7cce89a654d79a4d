package validation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

// FetchFunc supplies the transaction set a MinValueSwap query evaluates.
type FetchFunc func(ctx context.Context) ([]domain.Transaction, error)

// RecentSwapsFetch is the default transaction source for MinValueSwap.
func RecentSwapsFetch(src DataSource, limit int) FetchFunc {
	return func(ctx context.Context) ([]domain.Transaction, error) {
		return src.RecentSwaps(ctx, limit)
	}
}

// StaticFetch serves an already-fetched transaction set, used when narrowing
// a previous query's matches without a fresh upstream call.
func StaticFetch(txs []domain.Transaction) FetchFunc {
	return func(ctx context.Context) ([]domain.Transaction, error) {
		return txs, nil
	}
}

// MinValueSwap keeps transactions whose total swap value in USD meets the
// threshold. Per leg the value is max(in_amount*in_price, out_amount*out_price),
// which defends against only one side having a known price; an asset missing
// from the price table values that side at zero rather than failing.
func MinValueSwap(src DataSource, minValueUSD float64, fetch FetchFunc) Query {
	if fetch == nil {
		fetch = RecentSwapsFetch(src, 0)
	}
	return &minValueQuery{src: src, minValueUSD: minValueUSD, fetch: fetch}
}

type minValueQuery struct {
	src         DataSource
	minValueUSD float64
	fetch       FetchFunc
}

func (q *minValueQuery) Execute(ctx context.Context) (*Result, error) {
	txs, err := q.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	prices, err := q.src.LatestPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	threshold := decimal.NewFromFloat(q.minValueUSD)

	var matches []domain.Transaction
	seen := make(map[string]bool)
	for _, tx := range txs {
		if tx.TxID != "" && seen[tx.TxID] {
			continue
		}
		if TransactionValueUSD(tx, prices).GreaterThanOrEqual(threshold) {
			seen[tx.TxID] = true
			matches = append(matches, tx)
		}
	}

	return &Result{
		Satisfied: len(matches) > 0,
		Matches:   matches,
		Metadata: map[string]any{
			"min_value_usd": q.minValueUSD,
			"checked":       len(txs),
		},
	}, nil
}

// TransactionValueUSD sums the per-leg USD value of a swap transaction.
func TransactionValueUSD(tx domain.Transaction, prices map[string]float64) decimal.Decimal {
	total := decimal.Zero
	for _, leg := range tx.SwapDetails {
		inValue := decimal.NewFromFloat(leg.InAmount).
			Mul(decimal.NewFromFloat(prices[StripAssetSuffix(leg.InAsset)]))
		outValue := decimal.NewFromFloat(leg.OutAmount).
			Mul(decimal.NewFromFloat(prices[StripAssetSuffix(leg.OutAsset)]))
		if inValue.GreaterThan(outValue) {
			total = total.Add(inValue)
		} else {
			total = total.Add(outValue)
		}
	}
	return total
}
