package events

import (
	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
)

// MigrationCompleted is published after a run finalizes, dry or live.
type MigrationCompleted struct {
	LogID    uuid.UUID
	DryRun   bool
	Status   migrationlog.Status
	Counters migrationlog.Counters
}

// ConsolidationCompleted is published after a duplicate-school
// consolidation pass.
type ConsolidationCompleted struct {
	GroupsFound    int
	SchoolsDeleted int
}
