package domain

import (
	"encoding/json"
	"time"
)

// ValidationStatus is the state of one validation attempt.
type ValidationStatus string

const (
	ValidationStatusPending ValidationStatus = "pending"
	ValidationStatusSuccess ValidationStatus = "success"
	ValidationStatusFailed  ValidationStatus = "failed"
	ValidationStatusPartial ValidationStatus = "partial"
)

// QuestValidation is one row per validation attempt. It is created as pending
// at the start of a run and finalized exactly once; a crash mid-run leaves an
// orphaned pending row that is superseded by the next attempt.
type QuestValidation struct {
	ID               string           `json:"id"`
	QuestID          string           `json:"quest_id"`
	ValidatedAt      time.Time        `json:"validated_at"`
	Status           ValidationStatus `json:"status"`
	ValidationData   json.RawMessage  `json:"validation_data,omitempty"`
	ErrorMessage     *string          `json:"error_message,omitempty"`
	NextValidationAt *time.Time       `json:"next_validation_at,omitempty"`
	ValidAddresses   []string         `json:"valid_addresses"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
}

// QuestValidationResult is one row per matched address per validation run.
// Rows are append-only history and never updated.
type QuestValidationResult struct {
	ID           string          `json:"id"`
	ValidationID string          `json:"validation_id"`
	UserAddress  string          `json:"user_address"`
	IsValid      bool            `json:"is_valid"`
	ResultData   json.RawMessage `json:"result_data,omitempty"`
	CriteriaType CriteriaType    `json:"criteria_type"`
}
