package user_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildroots/wildroots/modules/core/domain/aggregates/user"
	"github.com/wildroots/wildroots/modules/core/domain/value_objects/internet"
)

func TestUser_SetAndCheckPassword(t *testing.T) {
	u := user.New("Amara", "Diallo", internet.MustParseEmail("amara@example.org"))

	u, err := u.SetPassword("s3cret-temp")
	require.NoError(t, err)

	assert.NotEmpty(t, u.PasswordHash())
	assert.NotContains(t, u.PasswordHash(), "s3cret-temp", "hash must not embed the plaintext")
	assert.True(t, u.CheckPassword("s3cret-temp"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestUser_MigratedFrom(t *testing.T) {
	migratedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	u := user.New(
		"Amara", "Diallo",
		internet.MustParseEmail("amara@example.org"),
		user.WithMigratedFrom("L-42", migratedAt),
		user.WithNeedsEvidenceResubmission(true),
	)

	assert.Equal(t, "L-42", u.MigratedFrom())
	require.NotNil(t, u.MigratedAt())
	assert.Equal(t, migratedAt, *u.MigratedAt())
	assert.True(t, u.NeedsEvidenceResubmission())
}

func TestUser_NotMigratedByDefault(t *testing.T) {
	u := user.New("Amara", "Diallo", internet.MustParseEmail("amara@example.org"))

	assert.Empty(t, u.MigratedFrom())
	assert.Nil(t, u.MigratedAt())
	assert.False(t, u.NeedsEvidenceResubmission())
}
