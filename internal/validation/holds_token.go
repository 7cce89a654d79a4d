package validation

import (
	"context"
	"fmt"
)

// HoldsToken checks whether an address holds the given token. Any transfer of
// the token touching the address is taken as proof of holding. This is a
// deliberate heuristic, not a balance check: an address that received and
// later spent the token still passes.
func HoldsToken(src DataSource, userAddress, tokenPrincipal string) Query {
	return &holdsTokenQuery{src: src, address: userAddress, principal: tokenPrincipal}
}

type holdsTokenQuery struct {
	src       DataSource
	address   string
	principal string
}

func (q *holdsTokenQuery) Execute(ctx context.Context) (*Result, error) {
	variants := NormalizeTokenPrincipal(q.principal)
	for _, variant := range variants {
		transfers, err := q.src.TokenTransfers(ctx, q.address, variant)
		if err != nil {
			return nil, fmt.Errorf("fetch transfers for %s: %w", variant, err)
		}
		if len(transfers) > 0 {
			return &Result{
				Satisfied: true,
				Matches:   transfers,
				Metadata: map[string]any{
					"address":   q.address,
					"token":     q.principal,
					"variant":   variant,
					"transfers": len(transfers),
				},
			}, nil
		}
	}

	return &Result{
		Satisfied: false,
		Matches:   nil,
		Metadata: map[string]any{
			"address":        q.address,
			"token":          q.principal,
			"variants_tried": variants,
		},
	}, nil
}
