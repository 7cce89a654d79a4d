package storage

import (
	"context"
	"errors"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

var (
	// ErrQuestNotFound is returned when a quest doesn't exist
	ErrQuestNotFound = errors.New("quest not found")

	// ErrValidationNotFound is returned when a validation record doesn't exist
	ErrValidationNotFound = errors.New("validation not found")
)

// QuestRepository handles quest storage operations
type QuestRepository interface {
	// Create stores a new quest
	Create(ctx context.Context, quest *domain.Quest) error

	// GetByID retrieves a quest by id
	GetByID(ctx context.Context, id string) (*domain.Quest, error)

	// Update replaces a quest's mutable fields
	Update(ctx context.Context, quest *domain.Quest) error

	// UpdateStatus transitions a quest's lifecycle state
	UpdateStatus(ctx context.Context, id string, status domain.QuestStatus) error

	// ListByStatus retrieves all quests in a given state
	ListByStatus(ctx context.Context, status domain.QuestStatus) ([]*domain.Quest, error)
}

// ValidationRepository handles validation attempt records
type ValidationRepository interface {
	// Create stores a new (pending) validation record
	Create(ctx context.Context, v *domain.QuestValidation) error

	// Finalize applies the single allowed mutation: status, addresses,
	// error message, next run time and processing time
	Finalize(ctx context.Context, v *domain.QuestValidation) error

	// GetLatestByQuest retrieves the most recent validation for a quest
	GetLatestByQuest(ctx context.Context, questID string) (*domain.QuestValidation, error)

	// ListByQuest retrieves a quest's validation history, newest first
	ListByQuest(ctx context.Context, questID string, limit int) ([]*domain.QuestValidation, error)
}

// ValidationResultRepository handles per-address outcome rows
type ValidationResultRepository interface {
	// SaveBatch appends result rows; rows are immutable once written
	SaveBatch(ctx context.Context, results []*domain.QuestValidationResult) error

	// ListByValidation retrieves all rows for a validation run
	ListByValidation(ctx context.Context, validationID string) ([]*domain.QuestValidationResult, error)
}
