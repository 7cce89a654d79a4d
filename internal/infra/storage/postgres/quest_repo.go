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

// QuestRepo implements storage.QuestRepository using PostgreSQL.
type QuestRepo struct {
	db *DB
}

// NewQuestRepo creates a new PostgreSQL quest repository.
func NewQuestRepo(db *DB) *QuestRepo {
	return &QuestRepo{db: db}
}

type questRow struct {
	ID             string     `db:"id"`
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	Status         string     `db:"status"`
	CriteriaType   string     `db:"criteria_type"`
	CriteriaParams []byte     `db:"criteria_params"`
	Network        string     `db:"network"`
	TokenAddress   string     `db:"token_address"`
	StartDate      *time.Time `db:"start_date"`
	EndDate        *time.Time `db:"end_date"`
	UserID         string     `db:"user_id"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r *questRow) toDomain() *domain.Quest {
	return &domain.Quest{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.QuestStatus(r.Status),
		Criteria: domain.Criteria{
			Type:   domain.CriteriaType(r.CriteriaType),
			Params: json.RawMessage(r.CriteriaParams),
		},
		Network:      r.Network,
		TokenAddress: r.TokenAddress,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const questColumns = `id, title, description, status, criteria_type, criteria_params,
	network, token_address, start_date, end_date, user_id, created_at, updated_at`

// Create stores a new quest.
func (r *QuestRepo) Create(ctx context.Context, quest *domain.Quest) error {
	query := `
		INSERT INTO quests (
			id, title, description, status, criteria_type, criteria_params,
			network, token_address, start_date, end_date, user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.ExecContext(ctx, query,
		quest.ID, quest.Title, quest.Description, string(quest.Status),
		string(quest.Criteria.Type), []byte(quest.Criteria.Params),
		quest.Network, quest.TokenAddress, quest.StartDate, quest.EndDate, quest.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create quest: %w", err)
	}
	return nil
}

// GetByID retrieves a quest by id.
func (r *QuestRepo) GetByID(ctx context.Context, id string) (*domain.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests WHERE id = $1`

	var row questRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return row.toDomain(), nil
}

// Update replaces a quest's mutable fields.
func (r *QuestRepo) Update(ctx context.Context, quest *domain.Quest) error {
	query := `
		UPDATE quests SET
			title = $2, description = $3, status = $4, criteria_type = $5,
			criteria_params = $6, network = $7, token_address = $8,
			start_date = $9, end_date = $10, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		quest.ID, quest.Title, quest.Description, string(quest.Status),
		string(quest.Criteria.Type), []byte(quest.Criteria.Params),
		quest.Network, quest.TokenAddress, quest.StartDate, quest.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update quest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrQuestNotFound
	}
	return nil
}

// UpdateStatus transitions a quest's lifecycle state.
func (r *QuestRepo) UpdateStatus(ctx context.Context, id string, status domain.QuestStatus) error {
	query := `UPDATE quests SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update quest status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrQuestNotFound
	}
	return nil
}

// ListByStatus retrieves all quests in a given state.
func (r *QuestRepo) ListByStatus(ctx context.Context, status domain.QuestStatus) ([]*domain.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests WHERE status = $1 ORDER BY created_at`

	var rows []questRow
	if err := r.db.SelectContext(ctx, &rows, query, string(status)); err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	quests := make([]*domain.Quest, 0, len(rows))
	for i := range rows {
		quests = append(quests, rows[i].toDomain())
	}
	return quests, nil
}
