package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
	"github.com/wildroots/wildroots/modules/migration/infrastructure/persistence/models"
)

func toDomainMigrationLog(dbRow *models.MigrationLog) (*migrationlog.MigrationLog, error) {
	entity := &migrationlog.MigrationLog{
		ID:         dbRow.ID,
		StartedAt:  dbRow.StartedAt,
		FinishedAt: dbRow.FinishedAt,
		DryRun:     dbRow.DryRun,
		Status:     migrationlog.Status(dbRow.Status),
	}
	if len(dbRow.Counters) > 0 {
		if err := json.Unmarshal(dbRow.Counters, &entity.Counters); err != nil {
			return nil, fmt.Errorf("decoding counters of log %s: %w", dbRow.ID, err)
		}
	}
	if len(dbRow.ErrorLog) > 0 {
		if err := json.Unmarshal(dbRow.ErrorLog, &entity.Errors); err != nil {
			return nil, fmt.Errorf("decoding error log of %s: %w", dbRow.ID, err)
		}
	}
	if len(dbRow.Report) > 0 {
		var report migrationlog.CredentialReport
		if err := json.Unmarshal(dbRow.Report, &report); err != nil {
			return nil, fmt.Errorf("decoding report of log %s: %w", dbRow.ID, err)
		}
		entity.Report = &report
	}
	return entity, nil
}
