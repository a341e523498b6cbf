package models

import (
	"time"

	"github.com/google/uuid"
)

type MigrationLog struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt *time.Time
	DryRun     bool
	Status     string
	Counters   []byte
	ErrorLog   []byte
	Report     []byte
}
