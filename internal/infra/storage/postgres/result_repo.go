package postgres

import (
	"context"
	"fmt"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

// ResultRepo implements storage.ValidationResultRepository using PostgreSQL.
type ResultRepo struct {
	db *DB
}

// NewResultRepo creates a new PostgreSQL validation result repository.
func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// SaveBatch appends result rows inside one transaction.
func (r *ResultRepo) SaveBatch(ctx context.Context, results []*domain.QuestValidationResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO quest_validation_results (
			id, validation_id, user_address, is_valid, result_data, criteria_type
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range results {
		_, err := stmt.ExecContext(ctx,
			res.ID, res.ValidationID, res.UserAddress, res.IsValid,
			[]byte(res.ResultData), string(res.CriteriaType),
		)
		if err != nil {
			return fmt.Errorf("failed to save result for %s: %w", res.UserAddress, err)
		}
	}

	return tx.Commit()
}

type resultRow struct {
	ID           string `db:"id"`
	ValidationID string `db:"validation_id"`
	UserAddress  string `db:"user_address"`
	IsValid      bool   `db:"is_valid"`
	ResultData   []byte `db:"result_data"`
	CriteriaType string `db:"criteria_type"`
}

// ListByValidation retrieves all rows for a validation run.
func (r *ResultRepo) ListByValidation(ctx context.Context, validationID string) ([]*domain.QuestValidationResult, error) {
	query := `
		SELECT id, validation_id, user_address, is_valid, result_data, criteria_type
		FROM quest_validation_results
		WHERE validation_id = $1
		ORDER BY user_address
	`

	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, query, validationID); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	out := make([]*domain.QuestValidationResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.QuestValidationResult{
			ID:           row.ID,
			ValidationID: row.ValidationID,
			UserAddress:  row.UserAddress,
			IsValid:      row.IsValid,
			ResultData:   row.ResultData,
			CriteriaType: domain.CriteriaType(row.CriteriaType),
		})
	}
	return out, nil
}
