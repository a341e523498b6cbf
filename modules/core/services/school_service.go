package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	"github.com/wildroots/wildroots/pkg/composables"
)

type SchoolServiceConfig struct {
	Repo school.Repository

	// InTx defaults to composables.InTx.
	InTx TxFunc
}

type SchoolService struct {
	repo school.Repository
	inTx TxFunc
}

func NewSchoolService(cfg SchoolServiceConfig) *SchoolService {
	inTx := cfg.InTx
	if inTx == nil {
		inTx = composables.InTx
	}
	return &SchoolService{repo: cfg.Repo, inTx: inTx}
}

func (s *SchoolService) GetByID(ctx context.Context, id uuid.UUID) (*school.School, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SchoolService) GetAll(ctx context.Context) ([]*school.School, error) {
	return s.repo.List(ctx)
}

// Create registers a new school. Names that normalize to an existing school's
// name are rejected, so manual creation cannot mint the duplicates the
// consolidator exists to clean up.
func (s *SchoolService) Create(ctx context.Context, data *school.School) (*school.School, error) {
	existing, err := s.repo.GetByNormalizedName(ctx, school.NormalizeName(data.Name))
	if err != nil && !errors.Is(err, school.ErrSchoolNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("name %q matches %q: %w", data.Name, existing.Name, school.ErrSchoolExists)
	}

	var created *school.School
	err = s.inTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.Create(txCtx, data)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
