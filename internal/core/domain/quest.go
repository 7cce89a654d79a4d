package domain

import (
	"encoding/json"
	"time"
)

// QuestStatus is the lifecycle state of a quest.
type QuestStatus string

const (
	QuestStatusDraft     QuestStatus = "draft"
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"
	QuestStatusArchived  QuestStatus = "archived"
)

// CriteriaType identifies which validator a quest's criteria dispatches to.
type CriteriaType string

const (
	CriteriaSwappedFor   CriteriaType = "swapped_for"
	CriteriaMinValueSwap CriteriaType = "min_value_swap"
	CriteriaFirstNBuyers CriteriaType = "first_n_buyers"
	CriteriaHoldsToken   CriteriaType = "holds_token"
	CriteriaComposite    CriteriaType = "composite"
)

// Criteria is the stored, declarative form of a quest's qualification rule.
// Params is decoded per-type by the runner's dispatcher.
type Criteria struct {
	Type   CriteriaType    `json:"type"`
	Params json.RawMessage `json:"params"`
}

// CompositeOp is the operator of a composite criteria node.
type CompositeOp string

const (
	OpAnd CompositeOp = "and"
	OpOr  CompositeOp = "or"
	OpNot CompositeOp = "not"
)

// Quest is an operator-defined set of criteria over blockchain activity,
// periodically re-evaluated while active.
type Quest struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Status       QuestStatus `json:"status"`
	Criteria     Criteria    `json:"criteria"`
	Network      string      `json:"network"`
	TokenAddress string      `json:"token_address"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty"`
	UserID       string      `json:"user_id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
