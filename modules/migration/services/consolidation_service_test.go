package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildroots/wildroots/modules/core/domain/entities/evidence"
	"github.com/wildroots/wildroots/modules/core/domain/entities/membership"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	corepersistence "github.com/wildroots/wildroots/modules/core/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/migration/services"
)

type consolidationFixture struct {
	schools     *corepersistence.InmemSchoolRepository
	memberships *corepersistence.InmemMembershipRepository
	evidence    *corepersistence.InmemEvidenceRepository
	service     *services.ConsolidationService
}

func newConsolidationFixture() *consolidationFixture {
	f := &consolidationFixture{
		schools:     corepersistence.NewInmemSchoolRepository(),
		memberships: corepersistence.NewInmemMembershipRepository(),
		evidence:    corepersistence.NewInmemEvidenceRepository(),
	}
	f.service = services.NewConsolidationService(services.ConsolidationServiceConfig{
		Schools:     f.schools,
		Memberships: f.memberships,
		Evidence:    f.evidence,
		InTx:        passThroughTx,
	})
	return f
}

func (f *consolidationFixture) seedSchool(t *testing.T, name string, createdAt time.Time) *school.School {
	t.Helper()
	s, err := f.schools.Create(context.Background(), &school.School{
		ID:        uuid.New(),
		Name:      name,
		Country:   "KE",
		Stage:     school.StageSeedling,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return s
}

func (f *consolidationFixture) seedMember(t *testing.T, userID uint, schoolID uuid.UUID) *membership.Membership {
	t.Helper()
	m, err := f.memberships.Create(context.Background(), &membership.Membership{
		UserID:   userID,
		SchoolID: schoolID,
		Role:     membership.RoleTeacher,
	})
	require.NoError(t, err)
	return m
}

func TestConsolidate_MergesNameVariants(t *testing.T) {
	f := newConsolidationFixture()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	survivor := f.seedSchool(t, "Greenfield Primary", base)
	dupA := f.seedSchool(t, "greenfield primary", base.Add(24*time.Hour))
	dupB := f.seedSchool(t, "Greenfield  Primary ", base.Add(48*time.Hour))
	other := f.seedSchool(t, "Riverside School", base)

	f.seedMember(t, 1, survivor.ID)
	f.seedMember(t, 2, dupA.ID)
	f.seedMember(t, 3, dupB.ID)
	f.seedMember(t, 4, other.ID)

	_, err := f.evidence.Create(context.Background(), &evidence.Evidence{
		SchoolID: dupA.ID, SubmittedBy: 2, Stage: 1, Title: "Garden beds",
	})
	require.NoError(t, err)

	report, err := f.service.ConsolidateDuplicates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.GroupsFound)
	assert.Equal(t, 2, report.SchoolsDeleted)
	assert.Equal(t, 2, report.MembershipsMoved)
	assert.Equal(t, 0, report.MembershipsDeleted)
	assert.Equal(t, int64(1), report.EvidenceMoved)
	assert.Empty(t, report.Errors)

	remaining, err := f.schools.List(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	members, err := f.memberships.ListBySchool(context.Background(), survivor.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	moved, err := f.evidence.ListBySchool(context.Background(), survivor.ID)
	require.NoError(t, err)
	assert.Len(t, moved, 1)
}

func TestConsolidate_OldestSchoolSurvives(t *testing.T) {
	f := newConsolidationFixture()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	younger := f.seedSchool(t, "willow creek primary", base.Add(time.Hour))
	oldest := f.seedSchool(t, "Willow Creek Primary", base)

	report, err := f.service.ConsolidateDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SchoolsDeleted)

	_, err = f.schools.GetByID(context.Background(), oldest.ID)
	require.NoError(t, err)
	_, err = f.schools.GetByID(context.Background(), younger.ID)
	assert.ErrorIs(t, err, school.ErrSchoolNotFound)
}

func TestConsolidate_TieBreaksOnID(t *testing.T) {
	f := newConsolidationFixture()
	createdAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	a := f.seedSchool(t, "Willow Creek Primary", createdAt)
	b := f.seedSchool(t, "willow creek primary", createdAt)
	expected := a
	if b.ID.String() < a.ID.String() {
		expected = b
	}

	report, err := f.service.ConsolidateDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SchoolsDeleted)

	_, err = f.schools.GetByID(context.Background(), expected.ID)
	require.NoError(t, err)
}

func TestConsolidate_DropsMembershipAlreadyOnSurvivor(t *testing.T) {
	f := newConsolidationFixture()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	survivor := f.seedSchool(t, "Greenfield Primary", base)
	dup := f.seedSchool(t, "greenfield primary", base.Add(time.Hour))

	// User 1 belongs to both records; moving the duplicate membership would
	// collide with the survivor's.
	f.seedMember(t, 1, survivor.ID)
	f.seedMember(t, 1, dup.ID)
	f.seedMember(t, 2, dup.ID)

	report, err := f.service.ConsolidateDuplicates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.MembershipsMoved)
	assert.Equal(t, 1, report.MembershipsDeleted)

	members, err := f.memberships.ListBySchool(context.Background(), survivor.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	total, err := f.memberships.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestConsolidate_SecondPassIsNoop(t *testing.T) {
	f := newConsolidationFixture()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	f.seedSchool(t, "Greenfield Primary", base)
	f.seedSchool(t, "greenfield primary", base.Add(time.Hour))

	first, err := f.service.ConsolidateDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.SchoolsDeleted)

	second, err := f.service.ConsolidateDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.GroupsFound)
	assert.Equal(t, 0, second.SchoolsDeleted)
	assert.Equal(t, 0, second.MembershipsMoved)
	assert.Equal(t, int64(0), second.EvidenceMoved)
}

func TestConsolidate_NoDuplicates(t *testing.T) {
	f := newConsolidationFixture()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	f.seedSchool(t, "Greenfield Primary", base)
	f.seedSchool(t, "Riverside School", base)

	report, err := f.service.ConsolidateDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.GroupsFound)
	assert.Equal(t, 0, report.SchoolsDeleted)
}
