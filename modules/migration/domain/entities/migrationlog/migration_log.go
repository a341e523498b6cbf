package migrationlog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var ErrLogNotFound = errors.New("migration log not found")

type Counters struct {
	TotalRows      int `json:"totalRows"`
	ValidRows      int `json:"validRows"`
	SkippedRows    int `json:"skippedRows"`
	FailedRows     int `json:"failedRows"`
	UsersCreated   int `json:"usersCreated"`
	SchoolsCreated int `json:"schoolsCreated"`
}

type RowError struct {
	Row    int    `json:"row"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// CredentialEntry is the one-time plaintext record of a generated temporary
// password. It exists only inside a run's credential report; the user row
// stores a bcrypt hash.
type CredentialEntry struct {
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporaryPassword"`
	SchoolName        string `json:"schoolName"`
}

type CredentialReport struct {
	UserCredentials []CredentialEntry `json:"userCredentials"`
}

// MigrationLog is one record per engine invocation. It is created when the
// run starts so a crash mid-run stays visible as a stuck "running" log, and
// finalized exactly once at the end.
type MigrationLog struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt *time.Time
	DryRun     bool
	Status     Status
	Counters   Counters
	Errors     []RowError
	Report     *CredentialReport
}

type Repository interface {
	Create(ctx context.Context, dryRun bool) (*MigrationLog, error)
	AppendError(ctx context.Context, id uuid.UUID, rowErr RowError) error
	// Finalize is called exactly once per run. A log that is never
	// finalized stays "running" until an operator intervenes.
	Finalize(ctx context.Context, id uuid.UUID, counters Counters, report *CredentialReport, status Status) error
	GetByID(ctx context.Context, id uuid.UUID) (*MigrationLog, error)
	List(ctx context.Context) ([]*MigrationLog, error)
	FindRunning(ctx context.Context) ([]*MigrationLog, error)
}
