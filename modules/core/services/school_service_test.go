package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	"github.com/wildroots/wildroots/modules/core/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/core/services"
)

func passThroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newSchoolService() (*services.SchoolService, *persistence.InmemSchoolRepository) {
	repo := persistence.NewInmemSchoolRepository()
	svc := services.NewSchoolService(services.SchoolServiceConfig{
		Repo: repo,
		InTx: passThroughTx,
	})
	return svc, repo
}

func TestSchoolService_Create(t *testing.T) {
	svc, _ := newSchoolService()

	created, err := svc.Create(context.Background(), &school.School{
		Name:    "Willow Creek Primary",
		Country: "KE",
		Stage:   school.StageSeedling,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Willow Creek Primary", created.Name)
}

func TestSchoolService_CreateRejectsNameVariantOfExistingSchool(t *testing.T) {
	svc, repo := newSchoolService()

	_, err := svc.Create(context.Background(), &school.School{
		Name:    "Willow Creek Primary",
		Country: "KE",
		Stage:   school.StageSeedling,
	})
	require.NoError(t, err)

	for _, name := range []string{"willow creek primary", "  Willow   Creek Primary ", "WILLOW CREEK PRIMARY"} {
		_, err := svc.Create(context.Background(), &school.School{
			Name:    name,
			Country: "KE",
			Stage:   school.StageSeedling,
		})
		assert.ErrorIs(t, err, school.ErrSchoolExists, "name %q", name)
	}

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
