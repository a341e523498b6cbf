package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/core/domain/entities/membership"
	"github.com/wildroots/wildroots/modules/core/infrastructure/persistence/models"
	"github.com/wildroots/wildroots/pkg/composables"
)

const (
	membershipFindQuery = `
		SELECT m.id, m.user_id, m.school_id, m.role, m.created_at
		FROM school_memberships m`

	membershipInsertQuery = `
		INSERT INTO school_memberships (user_id, school_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	membershipExistsQuery = `
		SELECT EXISTS (
			SELECT 1 FROM school_memberships WHERE user_id = $1 AND school_id = $2
		)`

	membershipCountQuery    = `SELECT COUNT(*) FROM school_memberships`
	membershipReassignQuery = `UPDATE school_memberships SET school_id = $2 WHERE id = $1`
	membershipDeleteQuery   = `DELETE FROM school_memberships WHERE id = $1`
)

type PgMembershipRepository struct{}

func NewMembershipRepository() membership.Repository {
	return &PgMembershipRepository{}
}

func (g *PgMembershipRepository) Create(ctx context.Context, m *membership.Membership) (*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if err := tx.QueryRow(
		ctx,
		membershipInsertQuery,
		m.UserID,
		m.SchoolID.String(),
		m.Role,
		m.CreatedAt,
	).Scan(&m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *PgMembershipRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*membership.Membership, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, membershipFindQuery+` WHERE m.school_id = $1 ORDER BY m.id`, schoolID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*membership.Membership
	for rows.Next() {
		var row models.Membership
		if err := rows.Scan(&row.ID, &row.UserID, &row.SchoolID, &row.Role, &row.CreatedAt); err != nil {
			return nil, err
		}
		entity, err := toDomainMembership(&row)
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

func (g *PgMembershipRepository) Exists(ctx context.Context, userID uint, schoolID uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, membershipExistsQuery, userID, schoolID.String()).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (g *PgMembershipRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, membershipCountQuery).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (g *PgMembershipRepository) Reassign(ctx context.Context, id uint, schoolID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, membershipReassignQuery, id, schoolID.String())
	return err
}

func (g *PgMembershipRepository) Delete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, membershipDeleteQuery, id)
	return err
}
