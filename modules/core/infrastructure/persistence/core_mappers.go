package persistence

import (
	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/core/domain/aggregates/user"
	"github.com/wildroots/wildroots/modules/core/domain/entities/evidence"
	"github.com/wildroots/wildroots/modules/core/domain/entities/membership"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	"github.com/wildroots/wildroots/modules/core/domain/value_objects/internet"
	"github.com/wildroots/wildroots/modules/core/infrastructure/persistence/models"
)

func toDomainUser(row *models.User) (user.User, error) {
	email, err := internet.NewEmail(row.Email)
	if err != nil {
		return nil, err
	}
	opts := []user.Option{
		user.WithID(row.ID),
		user.WithPasswordHash(row.Password),
		user.WithNeedsEvidenceResubmission(row.NeedsEvidenceResubmission),
		user.WithCreatedAt(row.CreatedAt),
	}
	if row.MigratedFrom != nil && row.MigratedAt != nil {
		opts = append(opts, user.WithMigratedFrom(*row.MigratedFrom, *row.MigratedAt))
	}
	return user.New(row.FirstName, row.LastName, email, opts...), nil
}

func toDBUser(entity user.User) *models.User {
	row := &models.User{
		ID:                        entity.ID(),
		Email:                     entity.Email().Value(),
		FirstName:                 entity.FirstName(),
		LastName:                  entity.LastName(),
		Password:                  entity.PasswordHash(),
		NeedsEvidenceResubmission: entity.NeedsEvidenceResubmission(),
		CreatedAt:                 entity.CreatedAt(),
	}
	if legacyID := entity.MigratedFrom(); legacyID != "" {
		row.MigratedFrom = &legacyID
		row.MigratedAt = entity.MigratedAt()
	}
	return row
}

func toDomainSchool(row *models.School) (*school.School, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	return &school.School{
		ID:        id,
		Name:      row.Name,
		Country:   row.Country,
		Stage:     school.Stage(row.Stage),
		CreatedAt: row.CreatedAt,
	}, nil
}

func toDomainMembership(row *models.Membership) (*membership.Membership, error) {
	schoolID, err := uuid.Parse(row.SchoolID)
	if err != nil {
		return nil, err
	}
	return &membership.Membership{
		ID:        row.ID,
		UserID:    row.UserID,
		SchoolID:  schoolID,
		Role:      row.Role,
		CreatedAt: row.CreatedAt,
	}, nil
}

func toDomainEvidence(row *models.Evidence) (*evidence.Evidence, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	schoolID, err := uuid.Parse(row.SchoolID)
	if err != nil {
		return nil, err
	}
	return &evidence.Evidence{
		ID:          id,
		SchoolID:    schoolID,
		SubmittedBy: row.SubmittedBy,
		Stage:       row.Stage,
		Title:       row.Title,
		Status:      evidence.Status(row.Status),
		CreatedAt:   row.CreatedAt,
	}, nil
}
