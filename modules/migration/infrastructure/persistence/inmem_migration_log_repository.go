package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
)

// InmemMigrationLogRepository mirrors the Postgres repository's semantics,
// including the single-shot finalize guard, so service tests exercise the
// same contract.
type InmemMigrationLogRepository struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]*migrationlog.MigrationLog
}

func NewInmemMigrationLogRepository() *InmemMigrationLogRepository {
	return &InmemMigrationLogRepository{
		logs: make(map[uuid.UUID]*migrationlog.MigrationLog),
	}
}

func (r *InmemMigrationLogRepository) Create(_ context.Context, dryRun bool) (*migrationlog.MigrationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity := &migrationlog.MigrationLog{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		DryRun:    dryRun,
		Status:    migrationlog.StatusRunning,
	}
	r.logs[entity.ID] = entity
	return copyLog(entity), nil
}

func (r *InmemMigrationLogRepository) AppendError(_ context.Context, id uuid.UUID, rowErr migrationlog.RowError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity, ok := r.logs[id]
	if !ok {
		return migrationlog.ErrLogNotFound
	}
	entity.Errors = append(entity.Errors, rowErr)
	return nil
}

func (r *InmemMigrationLogRepository) Finalize(
	_ context.Context,
	id uuid.UUID,
	counters migrationlog.Counters,
	report *migrationlog.CredentialReport,
	status migrationlog.Status,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity, ok := r.logs[id]
	if !ok || entity.Status != migrationlog.StatusRunning {
		return migrationlog.ErrLogNotFound
	}
	now := time.Now()
	entity.FinishedAt = &now
	entity.Status = status
	entity.Counters = counters
	entity.Report = report
	return nil
}

func (r *InmemMigrationLogRepository) GetByID(_ context.Context, id uuid.UUID) (*migrationlog.MigrationLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.logs[id]
	if !ok {
		return nil, migrationlog.ErrLogNotFound
	}
	return copyLog(entity), nil
}

func (r *InmemMigrationLogRepository) List(_ context.Context) ([]*migrationlog.MigrationLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*migrationlog.MigrationLog, 0, len(r.logs))
	for _, entity := range r.logs {
		out = append(out, copyLog(entity))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (r *InmemMigrationLogRepository) FindRunning(_ context.Context) ([]*migrationlog.MigrationLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*migrationlog.MigrationLog
	for _, entity := range r.logs {
		if entity.Status == migrationlog.StatusRunning {
			out = append(out, copyLog(entity))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func copyLog(entity *migrationlog.MigrationLog) *migrationlog.MigrationLog {
	dup := *entity
	dup.Errors = append([]migrationlog.RowError(nil), entity.Errors...)
	if entity.Report != nil {
		report := *entity.Report
		report.UserCredentials = append([]migrationlog.CredentialEntry(nil), entity.Report.UserCredentials...)
		dup.Report = &report
	}
	return &dup
}
