package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/core/domain/entities/evidence"
	"github.com/wildroots/wildroots/modules/core/infrastructure/persistence/models"
	"github.com/wildroots/wildroots/pkg/composables"
)

const (
	evidenceFindQuery = `
		SELECT e.id, e.school_id, e.submitted_by, e.stage, e.title, e.status, e.created_at
		FROM evidence e`

	evidenceInsertQuery = `
		INSERT INTO evidence (id, school_id, submitted_by, stage, title, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	evidenceCountQuery    = `SELECT COUNT(*) FROM evidence`
	evidenceReassignQuery = `UPDATE evidence SET school_id = $2 WHERE school_id = $1`
)

type PgEvidenceRepository struct{}

func NewEvidenceRepository() evidence.Repository {
	return &PgEvidenceRepository{}
}

func (g *PgEvidenceRepository) Create(ctx context.Context, e *evidence.Evidence) (*evidence.Evidence, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = evidence.StatusPending
	}
	if _, err := tx.Exec(
		ctx,
		evidenceInsertQuery,
		e.ID.String(),
		e.SchoolID.String(),
		e.SubmittedBy,
		e.Stage,
		e.Title,
		string(e.Status),
		e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return e, nil
}

func (g *PgEvidenceRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*evidence.Evidence, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, evidenceFindQuery+` WHERE e.school_id = $1 ORDER BY e.created_at`, schoolID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*evidence.Evidence
	for rows.Next() {
		var row models.Evidence
		if err := rows.Scan(&row.ID, &row.SchoolID, &row.SubmittedBy, &row.Stage, &row.Title, &row.Status, &row.CreatedAt); err != nil {
			return nil, err
		}
		entity, err := toDomainEvidence(&row)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entities, nil
}

func (g *PgEvidenceRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, evidenceCountQuery).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (g *PgEvidenceRepository) ReassignSchool(ctx context.Context, fromSchoolID, toSchoolID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, evidenceReassignQuery, fromSchoolID.String(), toSchoolID.String())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
