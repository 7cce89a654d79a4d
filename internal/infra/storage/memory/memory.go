package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/r0zar/innkeeper/internal/core/domain"
	"github.com/r0zar/innkeeper/internal/infra/storage"
)

// MemoryStorage backs the repositories with in-process maps. Used for
// DB-less runs and tests.
type MemoryStorage struct {
	quests      map[string]*domain.Quest
	validations map[string]*domain.QuestValidation
	results     map[string][]*domain.QuestValidationResult
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		quests:      make(map[string]*domain.Quest),
		validations: make(map[string]*domain.QuestValidation),
		results:     make(map[string][]*domain.QuestValidationResult),
	}
}

// -----------------------------------------------------------------------------
// Quest Repository
// -----------------------------------------------------------------------------

type QuestRepo struct {
	store *MemoryStorage
}

func NewQuestRepo(store *MemoryStorage) *QuestRepo {
	return &QuestRepo{store: store}
}

func (r *QuestRepo) Create(ctx context.Context, quest *domain.Quest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *quest
	r.store.quests[quest.ID] = &cp
	return nil
}

func (r *QuestRepo) GetByID(ctx context.Context, id string) (*domain.Quest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	q, ok := r.store.quests[id]
	if !ok {
		return nil, storage.ErrQuestNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *QuestRepo) Update(ctx context.Context, quest *domain.Quest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.quests[quest.ID]; !ok {
		return storage.ErrQuestNotFound
	}
	cp := *quest
	r.store.quests[quest.ID] = &cp
	return nil
}

func (r *QuestRepo) UpdateStatus(ctx context.Context, id string, status domain.QuestStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q, ok := r.store.quests[id]
	if !ok {
		return storage.ErrQuestNotFound
	}
	q.Status = status
	return nil
}

func (r *QuestRepo) ListByStatus(ctx context.Context, status domain.QuestStatus) ([]*domain.Quest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.Quest
	for _, q := range r.store.quests {
		if q.Status == status {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// -----------------------------------------------------------------------------
// Validation Repository
// -----------------------------------------------------------------------------

type ValidationRepo struct {
	store *MemoryStorage
}

func NewValidationRepo(store *MemoryStorage) *ValidationRepo {
	return &ValidationRepo{store: store}
}

func (r *ValidationRepo) Create(ctx context.Context, v *domain.QuestValidation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *v
	r.store.validations[v.ID] = &cp
	return nil
}

func (r *ValidationRepo) Finalize(ctx context.Context, v *domain.QuestValidation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.validations[v.ID]; !ok {
		return storage.ErrValidationNotFound
	}
	cp := *v
	r.store.validations[v.ID] = &cp
	return nil
}

func (r *ValidationRepo) GetLatestByQuest(ctx context.Context, questID string) (*domain.QuestValidation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var latest *domain.QuestValidation
	for _, v := range r.store.validations {
		if v.QuestID != questID {
			continue
		}
		if latest == nil || v.ValidatedAt.After(latest.ValidatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *ValidationRepo) ListByQuest(ctx context.Context, questID string, limit int) ([]*domain.QuestValidation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.QuestValidation
	for _, v := range r.store.validations {
		if v.QuestID == questID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidatedAt.After(out[j].ValidatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Validation Result Repository
// -----------------------------------------------------------------------------

type ResultRepo struct {
	store *MemoryStorage
}

func NewResultRepo(store *MemoryStorage) *ResultRepo {
	return &ResultRepo{store: store}
}

func (r *ResultRepo) SaveBatch(ctx context.Context, results []*domain.QuestValidationResult) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, res := range results {
		cp := *res
		r.store.results[res.ValidationID] = append(r.store.results[res.ValidationID], &cp)
	}
	return nil
}

func (r *ResultRepo) ListByValidation(ctx context.Context, validationID string) ([]*domain.QuestValidationResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows := r.store.results[validationID]
	out := make([]*domain.QuestValidationResult, 0, len(rows))
	for _, row := range rows {
		cp := *row
		out = append(out, &cp)
	}
	return out, nil
}
