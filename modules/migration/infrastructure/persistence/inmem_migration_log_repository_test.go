package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
	"github.com/wildroots/wildroots/modules/migration/infrastructure/persistence"
)

func TestInmemMigrationLogRepository_ReturnsDetachedCopies(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewInmemMigrationLogRepository()

	created, err := repo.Create(ctx, false)
	require.NoError(t, err)
	require.NoError(t, repo.AppendError(ctx, created.ID, migrationlog.RowError{Row: 2, Reason: "bad row"}))
	require.NoError(t, repo.Finalize(ctx, created.ID, migrationlog.Counters{TotalRows: 1, FailedRows: 1},
		&migrationlog.CredentialReport{UserCredentials: []migrationlog.CredentialEntry{{Email: "a@old.com"}}},
		migrationlog.StatusCompleted))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	got.Status = migrationlog.StatusRunning
	got.Errors[0].Reason = "mutated"
	got.Report.UserCredentials[0].Email = "mutated@old.com"

	again, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, migrationlog.StatusCompleted, again.Status)
	assert.Equal(t, "bad row", again.Errors[0].Reason)
	assert.Equal(t, "a@old.com", again.Report.UserCredentials[0].Email)
}

func TestInmemMigrationLogRepository_FinalizeIsSingleShot(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewInmemMigrationLogRepository()

	created, err := repo.Create(ctx, true)
	require.NoError(t, err)
	require.NoError(t, repo.Finalize(ctx, created.ID, migrationlog.Counters{}, nil, migrationlog.StatusCompleted))

	err = repo.Finalize(ctx, created.ID, migrationlog.Counters{}, nil, migrationlog.StatusFailed)
	assert.ErrorIs(t, err, migrationlog.ErrLogNotFound)
}
