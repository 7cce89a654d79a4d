package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/r0zar/innkeeper/internal/core/domain"
	"github.com/r0zar/innkeeper/internal/infra/storage"
)

// ValidationRepo implements storage.ValidationRepository using PostgreSQL.
type ValidationRepo struct {
	db *DB
}

// NewValidationRepo creates a new PostgreSQL validation repository.
func NewValidationRepo(db *DB) *ValidationRepo {
	return &ValidationRepo{db: db}
}

type validationRow struct {
	ID               string     `db:"id"`
	QuestID          string     `db:"quest_id"`
	ValidatedAt      time.Time  `db:"validated_at"`
	Status           string     `db:"status"`
	ValidationData   []byte     `db:"validation_data"`
	ErrorMessage     *string    `db:"error_message"`
	NextValidationAt *time.Time `db:"next_validation_at"`
	ValidAddresses   []byte     `db:"valid_addresses"`
	ProcessingTimeMs int64      `db:"processing_time_ms"`
}

func (r *validationRow) toDomain() (*domain.QuestValidation, error) {
	v := &domain.QuestValidation{
		ID:               r.ID,
		QuestID:          r.QuestID,
		ValidatedAt:      r.ValidatedAt,
		Status:           domain.ValidationStatus(r.Status),
		ValidationData:   json.RawMessage(r.ValidationData),
		ErrorMessage:     r.ErrorMessage,
		NextValidationAt: r.NextValidationAt,
		ProcessingTimeMs: r.ProcessingTimeMs,
	}
	if len(r.ValidAddresses) > 0 {
		if err := json.Unmarshal(r.ValidAddresses, &v.ValidAddresses); err != nil {
			return nil, fmt.Errorf("decode valid_addresses: %w", err)
		}
	}
	return v, nil
}

const validationColumns = `id, quest_id, validated_at, status, validation_data,
	error_message, next_validation_at, valid_addresses, processing_time_ms`

// Create stores a new (pending) validation record.
func (r *ValidationRepo) Create(ctx context.Context, v *domain.QuestValidation) error {
	addresses, err := json.Marshal(v.ValidAddresses)
	if err != nil {
		return fmt.Errorf("encode valid_addresses: %w", err)
	}

	query := `
		INSERT INTO quest_validations (
			id, quest_id, validated_at, status, validation_data,
			error_message, next_validation_at, valid_addresses, processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		v.ID, v.QuestID, v.ValidatedAt, string(v.Status), []byte(v.ValidationData),
		v.ErrorMessage, v.NextValidationAt, addresses, v.ProcessingTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to create validation: %w", err)
	}
	return nil
}

// Finalize applies the single allowed mutation to a validation record.
func (r *ValidationRepo) Finalize(ctx context.Context, v *domain.QuestValidation) error {
	addresses, err := json.Marshal(v.ValidAddresses)
	if err != nil {
		return fmt.Errorf("encode valid_addresses: %w", err)
	}

	query := `
		UPDATE quest_validations SET
			status = $2, validation_data = $3, error_message = $4,
			next_validation_at = $5, valid_addresses = $6, processing_time_ms = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		v.ID, string(v.Status), []byte(v.ValidationData), v.ErrorMessage,
		v.NextValidationAt, addresses, v.ProcessingTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize validation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrValidationNotFound
	}
	return nil
}

// GetLatestByQuest retrieves the most recent validation for a quest.
// Returns nil when the quest has never been validated.
func (r *ValidationRepo) GetLatestByQuest(ctx context.Context, questID string) (*domain.QuestValidation, error) {
	query := `
		SELECT ` + validationColumns + `
		FROM quest_validations
		WHERE quest_id = $1
		ORDER BY validated_at DESC
		LIMIT 1
	`

	var row validationRow
	err := r.db.GetContext(ctx, &row, query, questID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest validation: %w", err)
	}
	return row.toDomain()
}

// ListByQuest retrieves a quest's validation history, newest first.
func (r *ValidationRepo) ListByQuest(ctx context.Context, questID string, limit int) ([]*domain.QuestValidation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + validationColumns + `
		FROM quest_validations
		WHERE quest_id = $1
		ORDER BY validated_at DESC
		LIMIT $2
	`

	var rows []validationRow
	if err := r.db.SelectContext(ctx, &rows, query, questID, limit); err != nil {
		return nil, fmt.Errorf("failed to list validations: %w", err)
	}

	out := make([]*domain.QuestValidation, 0, len(rows))
	for i := range rows {
		v, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
