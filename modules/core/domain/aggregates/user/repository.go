package user

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type FindParams struct {
	MigratedOnly bool
	Limit        int
	Offset       int
}

type Repository interface {
	GetByID(ctx context.Context, id uint) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, params *FindParams) ([]User, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, data User) (User, error)

	// Read-through duplicate checks used by the migration row validator.
	// They query current truth rather than any cached registry.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error)
}
