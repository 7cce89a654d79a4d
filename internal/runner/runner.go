package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/r0zar/innkeeper/internal/core/domain"
	"github.com/r0zar/innkeeper/internal/events"
	"github.com/r0zar/innkeeper/internal/infra/storage"
	"github.com/r0zar/innkeeper/internal/metrics"
	"github.com/r0zar/innkeeper/internal/validation"
)

// Config holds the runner's scheduling tunables. The error interval must be
// longer than the success interval: failures are revisited less eagerly.
type Config struct {
	SweepInterval   time.Duration
	SuccessInterval time.Duration
	ErrorInterval   time.Duration
	RecentSwapLimit int
}

// DefaultConfig provides the reference intervals.
func DefaultConfig() Config {
	return Config{
		SweepInterval:   5 * time.Minute,
		SuccessInterval: 10 * time.Minute,
		ErrorInterval:   15 * time.Minute,
		RecentSwapLimit: 200,
	}
}

// Runner re-validates active quests and persists per-address results.
// Quests are processed sequentially within a sweep; the data store is the
// only shared state, so no in-process locks are needed.
type Runner struct {
	cfg         Config
	src         validation.DataSource
	quests      storage.QuestRepository
	validations storage.ValidationRepository
	results     storage.ValidationResultRepository
	emitter     events.Emitter
	log         *slog.Logger
	now         func() time.Time
}

// New creates a Runner.
func New(
	cfg Config,
	src validation.DataSource,
	quests storage.QuestRepository,
	validations storage.ValidationRepository,
	results storage.ValidationResultRepository,
	emitter events.Emitter,
) *Runner {
	if emitter == nil {
		emitter = &events.LogEmitter{}
	}
	return &Runner{
		cfg:         cfg,
		src:         src,
		quests:      quests,
		validations: validations,
		results:     results,
		emitter:     emitter,
		log:         slog.Default(),
		now:         time.Now,
	}
}

// Run executes sweeps on a fixed cadence until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.log.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one full pass over all active quests. It is idempotent per
// quest: a quest whose next validation time has not arrived is skipped
// without any upstream calls. Per-quest failures are recorded and never
// abort the remaining quests.
func (r *Runner) Sweep(ctx context.Context) error {
	quests, err := r.quests.ListByStatus(ctx, domain.QuestStatusActive)
	if err != nil {
		metrics.SweepsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("list active quests: %w", err)
	}

	metrics.ActiveQuests.Set(float64(len(quests)))
	r.log.Info("starting sweep", "active_quests", len(quests))

	for _, quest := range quests {
		if err := r.ValidateQuest(ctx, quest); err != nil {
			r.log.Error("quest validation failed",
				"quest_id", quest.ID,
				"criteria", quest.Criteria.Type,
				"error", err,
			)
		}
	}

	metrics.SweepsTotal.WithLabelValues("ok").Inc()
	return nil
}

// ValidateQuest runs one validation attempt for a quest. A returned error
// means the attempt was recorded as failed (with error backoff); it is
// surfaced for logging only.
func (r *Runner) ValidateQuest(ctx context.Context, quest *domain.Quest) error {
	latest, err := r.validations.GetLatestByQuest(ctx, quest.ID)
	if err != nil {
		return fmt.Errorf("fetch latest validation: %w", err)
	}
	now := r.now()
	if latest != nil && latest.NextValidationAt != nil && latest.NextValidationAt.After(now) {
		r.log.Debug("quest not due, skipping",
			"quest_id", quest.ID,
			"next_validation_at", latest.NextValidationAt,
		)
		return nil
	}

	snapshot, err := json.Marshal(quest.Criteria)
	if err != nil {
		return fmt.Errorf("snapshot criteria: %w", err)
	}

	record := &domain.QuestValidation{
		ID:             uuid.NewString(),
		QuestID:        quest.ID,
		ValidatedAt:    now,
		Status:         domain.ValidationStatusPending,
		ValidationData: snapshot,
	}
	if err := r.validations.Create(ctx, record); err != nil {
		return fmt.Errorf("create validation record: %w", err)
	}

	result, execErr := r.execute(ctx, quest)
	if execErr != nil {
		r.finalizeError(ctx, quest, record, execErr)
		return execErr
	}
	return r.finalizeResult(ctx, quest, record, result)
}

func (r *Runner) execute(ctx context.Context, quest *domain.Quest) (*validation.Result, error) {
	query, err := BuildQuery(r.src, r.cfg.RecentSwapLimit, quest.Criteria)
	if err != nil {
		return nil, err
	}
	return query.Execute(ctx)
}

func (r *Runner) finalizeResult(ctx context.Context, quest *domain.Quest, record *domain.QuestValidation, result *validation.Result) error {
	rows := make([]*domain.QuestValidationResult, 0, len(result.Matches))
	addresses := make([]string, 0, len(result.Matches))
	seen := make(map[string]bool)
	for _, match := range result.Matches {
		data, err := json.Marshal(match)
		if err != nil {
			data = nil
		}
		rows = append(rows, &domain.QuestValidationResult{
			ID:           uuid.NewString(),
			ValidationID: record.ID,
			UserAddress:  match.UserAddress,
			IsValid:      true,
			ResultData:   data,
			CriteriaType: quest.Criteria.Type,
		})
		if !seen[match.UserAddress] {
			seen[match.UserAddress] = true
			addresses = append(addresses, match.UserAddress)
		}
	}
	if err := r.results.SaveBatch(ctx, rows); err != nil {
		r.finalizeError(ctx, quest, record, fmt.Errorf("save result rows: %w", err))
		return err
	}

	record.Status = domain.ValidationStatusFailed
	if result.Satisfied {
		record.Status = domain.ValidationStatusSuccess
	}
	record.ValidAddresses = addresses
	record.ValidationData = r.validationData(quest, result)
	next := r.now().Add(r.cfg.SuccessInterval)
	record.NextValidationAt = &next
	record.ProcessingTimeMs = r.now().Sub(record.ValidatedAt).Milliseconds()

	if err := r.validations.Finalize(ctx, record); err != nil {
		return fmt.Errorf("finalize validation: %w", err)
	}

	r.observe(quest, record)
	r.log.Info("quest validated",
		"quest_id", quest.ID,
		"validation_id", record.ID,
		"status", record.Status,
		"matches", len(result.Matches),
		"addresses", len(addresses),
		"processing_ms", record.ProcessingTimeMs,
	)
	return nil
}

// finalizeError records a failed attempt with the error backoff. Persisting
// the failure is itself best effort: a store error here is only logged since
// the next sweep retries the quest regardless.
func (r *Runner) finalizeError(ctx context.Context, quest *domain.Quest, record *domain.QuestValidation, cause error) {
	msg := cause.Error()
	record.Status = domain.ValidationStatusFailed
	record.ErrorMessage = &msg
	next := r.now().Add(r.cfg.ErrorInterval)
	record.NextValidationAt = &next
	record.ProcessingTimeMs = r.now().Sub(record.ValidatedAt).Milliseconds()

	if err := r.validations.Finalize(ctx, record); err != nil {
		r.log.Error("failed to record validation failure",
			"quest_id", quest.ID,
			"validation_id", record.ID,
			"error", err,
		)
		return
	}
	r.observe(quest, record)
}

func (r *Runner) validationData(quest *domain.Quest, result *validation.Result) json.RawMessage {
	payload := map[string]any{
		"criteria":    quest.Criteria,
		"satisfied":   result.Satisfied,
		"match_count": len(result.Matches),
		"metadata":    result.Metadata,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

func (r *Runner) observe(quest *domain.Quest, record *domain.QuestValidation) {
	criteria := string(quest.Criteria.Type)
	metrics.ValidationsTotal.WithLabelValues(criteria, string(record.Status)).Inc()
	metrics.ValidationDuration.WithLabelValues(criteria).Observe(float64(record.ProcessingTimeMs) / 1000)
	metrics.MatchedAddresses.WithLabelValues(criteria).Add(float64(len(record.ValidAddresses)))

	if err := r.emitter.EmitValidation(events.ValidationEvent{
		QuestID:      quest.ID,
		ValidationID: record.ID,
		Status:       record.Status,
		CriteriaType: quest.Criteria.Type,
		AddressCount: len(record.ValidAddresses),
	}); err != nil {
		r.log.Warn("emit validation event failed", "quest_id", quest.ID, "error", err)
	}
}
