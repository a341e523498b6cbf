package services

import (
	"context"
	"fmt"

	"github.com/wildroots/wildroots/modules/core/domain/aggregates/user"
	"github.com/wildroots/wildroots/pkg/composables"
	"github.com/wildroots/wildroots/pkg/eventbus"
)

// TxFunc runs fn inside a transaction. Tests inject a pass-through
// implementation so services run against in-memory repositories.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type UserServiceConfig struct {
	Repo      user.Repository
	Publisher eventbus.EventBus

	// InTx defaults to composables.InTx.
	InTx TxFunc
}

type UserService struct {
	repo      user.Repository
	publisher eventbus.EventBus
	inTx      TxFunc
}

func NewUserService(cfg UserServiceConfig) *UserService {
	inTx := cfg.InTx
	if inTx == nil {
		inTx = composables.InTx
	}
	return &UserService{
		repo:      cfg.Repo,
		publisher: cfg.Publisher,
		inTx:      inTx,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) GetPaginatedWithTotal(ctx context.Context, params *user.FindParams) ([]user.User, int64, error) {
	us, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return us, total, nil
}

// GetMigrated lists accounts created by the legacy migration engine.
func (s *UserService) GetMigrated(ctx context.Context) ([]user.User, int64, error) {
	return s.GetPaginatedWithTotal(ctx, &user.FindParams{MigratedOnly: true})
}

func (s *UserService) Create(ctx context.Context, data user.User) (user.User, error) {
	exists, err := s.repo.ExistsByEmail(ctx, data.Email().Value())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", data.Email().Value(), user.ErrEmailTaken)
	}

	createdEvent := user.NewCreatedEvent(ctx, data)

	var createdUser user.User
	err = s.inTx(ctx, func(txCtx context.Context) error {
		created, err := s.repo.Create(txCtx, data)
		if err != nil {
			return err
		}
		createdUser = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	createdEvent.Result = createdUser

	if s.publisher != nil {
		s.publisher.Publish(createdEvent)
	}

	return createdUser, nil
}
