package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	"github.com/wildroots/wildroots/modules/core/infrastructure/persistence/models"
	"github.com/wildroots/wildroots/pkg/composables"
)

const (
	schoolFindQuery = `
		SELECT s.id, s.name, s.country, s.stage, s.created_at
		FROM schools s`

	schoolInsertQuery = `
		INSERT INTO schools (id, name, normalized_name, country, stage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	schoolDeleteQuery = `DELETE FROM schools WHERE id = $1`
)

type PgSchoolRepository struct{}

func NewSchoolRepository() school.Repository {
	return &PgSchoolRepository{}
}

func (g *PgSchoolRepository) querySchools(ctx context.Context, query string, args ...interface{}) ([]*school.School, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*school.School
	for rows.Next() {
		var row models.School
		if err := rows.Scan(&row.ID, &row.Name, &row.Country, &row.Stage, &row.CreatedAt); err != nil {
			return nil, err
		}
		entity, err := toDomainSchool(&row)
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

func (g *PgSchoolRepository) GetByID(ctx context.Context, id uuid.UUID) (*school.School, error) {
	schools, err := g.querySchools(ctx, schoolFindQuery+` WHERE s.id = $1`, id.String())
	if err != nil {
		return nil, err
	}
	if len(schools) == 0 {
		return nil, fmt.Errorf("id: %s: %w", id, school.ErrSchoolNotFound)
	}
	return schools[0], nil
}

func (g *PgSchoolRepository) GetByNormalizedName(ctx context.Context, normalized string) (*school.School, error) {
	// Oldest first so repeated lookups always land on the same school even
	// before the consolidator has cleaned up duplicates.
	schools, err := g.querySchools(
		ctx,
		schoolFindQuery+` WHERE s.normalized_name = $1 ORDER BY s.created_at, s.id LIMIT 1`,
		normalized,
	)
	if err != nil {
		return nil, err
	}
	if len(schools) == 0 {
		return nil, fmt.Errorf("normalized name: %s: %w", normalized, school.ErrSchoolNotFound)
	}
	return schools[0], nil
}

func (g *PgSchoolRepository) List(ctx context.Context) ([]*school.School, error) {
	return g.querySchools(ctx, schoolFindQuery+` ORDER BY s.created_at, s.id`)
}

func (g *PgSchoolRepository) Create(ctx context.Context, s *school.School) (*school.School, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if _, err := tx.Exec(
		ctx,
		schoolInsertQuery,
		s.ID.String(),
		s.Name,
		school.NormalizeName(s.Name),
		s.Country,
		int(s.Stage),
		s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (g *PgSchoolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, schoolDeleteQuery, id.String())
	return err
}
