package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/wildroots/wildroots/modules/core/domain/aggregates/user"
	"github.com/wildroots/wildroots/modules/core/infrastructure/persistence/models"
	"github.com/wildroots/wildroots/pkg/composables"
	"github.com/wildroots/wildroots/pkg/repo"
)

const (
	userFindQuery = `
		SELECT
			u.id,
			u.email,
			u.first_name,
			u.last_name,
			u.password,
			u.migrated_from,
			u.migrated_at,
			u.needs_evidence_resubmission,
			u.created_at
		FROM users u`

	userCountQuery = `SELECT COUNT(u.id) FROM users u`

	userInsertQuery = `
		INSERT INTO users (
			email, first_name, last_name, password,
			migrated_from, migrated_at, needs_evidence_resubmission, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	userExistsByEmailQuery    = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`
	userExistsByLegacyIDQuery = `SELECT EXISTS (SELECT 1 FROM users WHERE migrated_from = $1)`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []user.User
	for rows.Next() {
		var row models.User
		if err := rows.Scan(
			&row.ID,
			&row.Email,
			&row.FirstName,
			&row.LastName,
			&row.Password,
			&row.MigratedFrom,
			&row.MigratedAt,
			&row.NeedsEvidenceResubmission,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		entity, err := toDomainUser(&row)
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

func buildUserFilters(params *user.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	var args []interface{}
	if params != nil && params.MigratedOnly {
		where = append(where, "u.migrated_from IS NOT NULL")
	}
	return where, args
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	users, err := g.queryUsers(ctx, userFindQuery+` WHERE u.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("id: %d: %w", id, user.ErrUserNotFound)
	}
	return users[0], nil
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	users, err := g.queryUsers(ctx, userFindQuery+` WHERE LOWER(u.email) = LOWER($1)`, email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("email: %s: %w", email, user.ErrUserNotFound)
	}
	return users[0], nil
}

func (g *PgUserRepository) List(ctx context.Context, params *user.FindParams) ([]user.User, error) {
	where, args := buildUserFilters(params)
	query := userFindQuery + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY u.id`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}
	return g.queryUsers(ctx, query, args...)
}

func (g *PgUserRepository) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildUserFilters(params)
	var count int64
	if err := tx.QueryRow(ctx, userCountQuery+` WHERE `+strings.Join(where, " AND "), args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (g *PgUserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := toDBUser(data)
	var id uint
	if err := tx.QueryRow(
		ctx,
		userInsertQuery,
		row.Email,
		row.FirstName,
		row.LastName,
		row.Password,
		row.MigratedFrom,
		row.MigratedAt,
		row.NeedsEvidenceResubmission,
		row.CreatedAt,
	).Scan(&id); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, id)
}

func (g *PgUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return g.exists(ctx, userExistsByEmailQuery, email)
}

func (g *PgUserRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	return g.exists(ctx, userExistsByLegacyIDQuery, legacyID)
}

func (g *PgUserRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}
