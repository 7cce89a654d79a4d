package runner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/r0zar/innkeeper/internal/core/domain"
	"github.com/r0zar/innkeeper/internal/validation"
)

type swappedForParams struct {
	TokenPrincipal string `json:"tokenPrincipal"`
	StartTime      int64  `json:"startTime"`
	EndTime        int64  `json:"endTime"`
}

type minValueSwapParams struct {
	MinValueUSD float64 `json:"minValueUsd"`
}

type firstNBuyersParams struct {
	TokenPrincipal string  `json:"tokenPrincipal"`
	N              int     `json:"n"`
	MinValueUSD    float64 `json:"minValueUsd"`
	StartTime      int64   `json:"startTime"`
}

type holdsTokenParams struct {
	UserAddress    string `json:"userAddress"`
	TokenPrincipal string `json:"tokenPrincipal"`
}

type compositeParams struct {
	Op       domain.CompositeOp `json:"op"`
	Operands []domain.Criteria  `json:"operands"`
}

// BuildQuery compiles stored quest criteria into an executable validation
// query. Composite criteria recurse, so arbitrarily nested combinators are
// supported. An unknown criteria type is an error; the runner records it as a
// failed validation rather than crashing the sweep.
func BuildQuery(src validation.DataSource, recentSwapLimit int, criteria domain.Criteria) (validation.Query, error) {
	switch criteria.Type {
	case domain.CriteriaSwappedFor:
		var p swappedForParams
		if err := json.Unmarshal(criteria.Params, &p); err != nil {
			return nil, fmt.Errorf("decode swapped_for params: %w", err)
		}
		return validation.SwappedFor(src, p.TokenPrincipal, unixTime(p.StartTime), unixTime(p.EndTime)), nil

	case domain.CriteriaMinValueSwap:
		var p minValueSwapParams
		if err := json.Unmarshal(criteria.Params, &p); err != nil {
			return nil, fmt.Errorf("decode min_value_swap params: %w", err)
		}
		fetch := validation.RecentSwapsFetch(src, recentSwapLimit)
		return validation.MinValueSwap(src, p.MinValueUSD, fetch), nil

	case domain.CriteriaFirstNBuyers:
		var p firstNBuyersParams
		if err := json.Unmarshal(criteria.Params, &p); err != nil {
			return nil, fmt.Errorf("decode first_n_buyers params: %w", err)
		}
		if p.N <= 0 {
			return nil, fmt.Errorf("first_n_buyers requires n > 0, got %d", p.N)
		}
		return validation.FirstNBuyers(src, p.TokenPrincipal, p.N, p.MinValueUSD, unixTime(p.StartTime)), nil

	case domain.CriteriaHoldsToken:
		var p holdsTokenParams
		if err := json.Unmarshal(criteria.Params, &p); err != nil {
			return nil, fmt.Errorf("decode holds_token params: %w", err)
		}
		return validation.HoldsToken(src, p.UserAddress, p.TokenPrincipal), nil

	case domain.CriteriaComposite:
		return buildComposite(src, recentSwapLimit, criteria.Params)

	default:
		return nil, fmt.Errorf("unsupported criteria type %q", criteria.Type)
	}
}

func buildComposite(src validation.DataSource, recentSwapLimit int, params json.RawMessage) (validation.Query, error) {
	var p compositeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("decode composite params: %w", err)
	}

	operands := make([]validation.Query, 0, len(p.Operands))
	for i, c := range p.Operands {
		q, err := BuildQuery(src, recentSwapLimit, c)
		if err != nil {
			return nil, fmt.Errorf("composite operand %d: %w", i, err)
		}
		operands = append(operands, q)
	}

	switch p.Op {
	case domain.OpAnd:
		if len(operands) != 2 {
			return nil, fmt.Errorf("and requires exactly 2 operands, got %d", len(operands))
		}
		return validation.And(operands[0], operands[1]), nil
	case domain.OpOr:
		if len(operands) != 2 {
			return nil, fmt.Errorf("or requires exactly 2 operands, got %d", len(operands))
		}
		return validation.Or(operands[0], operands[1]), nil
	case domain.OpNot:
		if len(operands) != 1 {
			return nil, fmt.Errorf("not requires exactly 1 operand, got %d", len(operands))
		}
		return validation.Not(operands[0]), nil
	default:
		return nil, fmt.Errorf("unsupported composite operator %q", p.Op)
	}
}

func unixTime(seconds int64) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}
