package domain

import "time"

// SwapLeg is one in-asset/out-asset pair within a (possibly multi-hop) swap.
type SwapLeg struct {
	InAsset   string  `json:"in_asset"`
	InAmount  float64 `json:"in_amount"`
	OutAsset  string  `json:"out_asset"`
	OutAmount float64 `json:"out_amount"`
}

// Transaction represents a transaction as reported by the indexing API.
// Swap details are present only for swap transactions; the last leg carries
// the net effect of a multi-hop swap.
type Transaction struct {
	TxID        string    `json:"tx_id"`
	UserAddress string    `json:"user_address"`
	BlockHeight uint64    `json:"block_height"`
	BlockTime   time.Time `json:"block_time"`
	SwapDetails []SwapLeg `json:"swap_details,omitempty"`
}

// FinalLeg returns the last swap leg, which is the one checked against a
// target asset. Returns false when the transaction carries no swap details.
func (t *Transaction) FinalLeg() (SwapLeg, bool) {
	if len(t.SwapDetails) == 0 {
		return SwapLeg{}, false
	}
	return t.SwapDetails[len(t.SwapDetails)-1], true
}

// InWindow reports whether the transaction's block time falls inside
// [start, end]. A zero start or end leaves that bound open.
func (t *Transaction) InWindow(start, end time.Time) bool {
	if !start.IsZero() && t.BlockTime.Before(start) {
		return false
	}
	if !end.IsZero() && t.BlockTime.After(end) {
		return false
	}
	return true
}
