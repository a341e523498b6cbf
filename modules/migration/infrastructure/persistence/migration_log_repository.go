package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
	"github.com/wildroots/wildroots/modules/migration/infrastructure/persistence/models"
	"github.com/wildroots/wildroots/pkg/composables"
)

const (
	migrationLogFindQuery = `
		SELECT
			ml.id,
			ml.started_at,
			ml.finished_at,
			ml.dry_run,
			ml.status,
			ml.counters,
			ml.error_log,
			ml.report
		FROM migration_logs ml`

	migrationLogInsertQuery = `
		INSERT INTO migration_logs (id, dry_run, status)
		VALUES ($1, $2, $3)`

	// error_log is appended in place so row errors become visible while the
	// run is still going, not only after finalization.
	migrationLogAppendErrorQuery = `
		UPDATE migration_logs
		SET error_log = error_log || $2::jsonb
		WHERE id = $1`

	// The status guard makes finalization single-shot: a log that already
	// finished cannot be overwritten by a late or duplicate call.
	migrationLogFinalizeQuery = `
		UPDATE migration_logs
		SET finished_at = now(),
			status = $2,
			counters = $3,
			report = $4
		WHERE id = $1 AND status = 'running'`
)

type PgMigrationLogRepository struct{}

func NewMigrationLogRepository() migrationlog.Repository {
	return &PgMigrationLogRepository{}
}

func (g *PgMigrationLogRepository) queryLogs(ctx context.Context, query string, args ...interface{}) ([]*migrationlog.MigrationLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*migrationlog.MigrationLog
	for rows.Next() {
		var row models.MigrationLog
		if err := rows.Scan(
			&row.ID,
			&row.StartedAt,
			&row.FinishedAt,
			&row.DryRun,
			&row.Status,
			&row.Counters,
			&row.ErrorLog,
			&row.Report,
		); err != nil {
			return nil, err
		}
		entity, err := toDomainMigrationLog(&row)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

func (g *PgMigrationLogRepository) Create(ctx context.Context, dryRun bool) (*migrationlog.MigrationLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	if _, err := tx.Exec(ctx, migrationLogInsertQuery, id, dryRun, migrationlog.StatusRunning); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, id)
}

func (g *PgMigrationLogRepository) AppendError(ctx context.Context, id uuid.UUID, rowErr migrationlog.RowError) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal([]migrationlog.RowError{rowErr})
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, migrationLogAppendErrorQuery, id, payload)
	return err
}

func (g *PgMigrationLogRepository) Finalize(
	ctx context.Context,
	id uuid.UUID,
	counters migrationlog.Counters,
	report *migrationlog.CredentialReport,
	status migrationlog.Status,
) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	countersJSON, err := json.Marshal(counters)
	if err != nil {
		return err
	}
	var reportJSON []byte
	if report != nil {
		if reportJSON, err = json.Marshal(report); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx, migrationLogFinalizeQuery, id, status, countersJSON, reportJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finalizing log %s: %w", id, migrationlog.ErrLogNotFound)
	}
	return nil
}

func (g *PgMigrationLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*migrationlog.MigrationLog, error) {
	logs, err := g.queryLogs(ctx, migrationLogFindQuery+" WHERE ml.id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, migrationlog.ErrLogNotFound
		}
		return nil, err
	}
	if len(logs) == 0 {
		return nil, migrationlog.ErrLogNotFound
	}
	return logs[0], nil
}

func (g *PgMigrationLogRepository) List(ctx context.Context) ([]*migrationlog.MigrationLog, error) {
	return g.queryLogs(ctx, migrationLogFindQuery+" ORDER BY ml.started_at DESC")
}

func (g *PgMigrationLogRepository) FindRunning(ctx context.Context) ([]*migrationlog.MigrationLog, error) {
	return g.queryLogs(ctx, migrationLogFindQuery+" WHERE ml.status = 'running' ORDER BY ml.started_at")
}
