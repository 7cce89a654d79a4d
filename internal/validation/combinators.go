package validation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

// And composes two queries into one that is satisfied only when both operands
// are satisfied AND their match sets intersect. Requiring a non-empty
// intersection prevents vacuous ANDs where each side matched disjoint
// transactions. Operands execute concurrently.
func And(left, right Query) Query {
	return &andQuery{left: left, right: right}
}

// Or composes two queries into one satisfied when either operand is.
// Operands execute concurrently and their matches are unioned.
func Or(left, right Query) Query {
	return &orQuery{left: left, right: right}
}

// Not negates a query. Negation cannot produce positive evidence, so the
// match set is always empty.
func Not(operand Query) Query {
	return &notQuery{operand: operand}
}

type andQuery struct {
	left, right Query
}

func (q *andQuery) Execute(ctx context.Context) (*Result, error) {
	left, right, err := executeBoth(ctx, q.left, q.right)
	if err != nil {
		return nil, err
	}

	intersection := intersectMatches(left.Matches, right.Matches)
	return &Result{
		Satisfied: left.Satisfied && right.Satisfied && len(intersection) > 0,
		Matches:   intersection,
		Metadata: map[string]any{
			"operator":      "and",
			"left_matches":  len(left.Matches),
			"right_matches": len(right.Matches),
		},
	}, nil
}

type orQuery struct {
	left, right Query
}

func (q *orQuery) Execute(ctx context.Context) (*Result, error) {
	left, right, err := executeBoth(ctx, q.left, q.right)
	if err != nil {
		return nil, err
	}

	return &Result{
		Satisfied: left.Satisfied || right.Satisfied,
		Matches:   unionMatches(left.Matches, right.Matches),
		Metadata: map[string]any{
			"operator":      "or",
			"left_matches":  len(left.Matches),
			"right_matches": len(right.Matches),
		},
	}, nil
}

type notQuery struct {
	operand Query
}

func (q *notQuery) Execute(ctx context.Context) (*Result, error) {
	inner, err := q.operand.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		Satisfied: !inner.Satisfied,
		Matches:   nil,
		Metadata: map[string]any{
			"operator":        "not",
			"operand_matches": len(inner.Matches),
		},
	}, nil
}

func executeBoth(ctx context.Context, left, right Query) (*Result, *Result, error) {
	var leftRes, rightRes *Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := left.Execute(gctx)
		leftRes = res
		return err
	})
	g.Go(func() error {
		res, err := right.Execute(gctx)
		rightRes = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return leftRes, rightRes, nil
}

// intersectMatches keeps left-side transactions with a counterpart on the
// right: equal tx_id when both sides have one, otherwise equal user_address.
func intersectMatches(left, right []domain.Transaction) []domain.Transaction {
	var out []domain.Transaction
	seen := make(map[string]bool)
	for _, l := range left {
		if !hasCounterpart(l, right) {
			continue
		}
		if l.TxID != "" {
			if seen[l.TxID] {
				continue
			}
			seen[l.TxID] = true
		}
		out = append(out, l)
	}
	return out
}

func hasCounterpart(l domain.Transaction, right []domain.Transaction) bool {
	for _, r := range right {
		if l.TxID != "" && r.TxID != "" {
			if l.TxID == r.TxID {
				return true
			}
			continue
		}
		if l.UserAddress == r.UserAddress {
			return true
		}
	}
	return false
}

// unionMatches unions two match sets, de-duplicating strictly by tx_id.
// Entries without a tx_id are always kept, so duplicates without an id are
// possible. That quirk is long-standing policy, not an oversight.
func unionMatches(left, right []domain.Transaction) []domain.Transaction {
	var out []domain.Transaction
	seen := make(map[string]bool)
	for _, tx := range append(append([]domain.Transaction{}, left...), right...) {
		if tx.TxID != "" {
			if seen[tx.TxID] {
				continue
			}
			seen[tx.TxID] = true
		}
		out = append(out, tx)
	}
	return out
}
