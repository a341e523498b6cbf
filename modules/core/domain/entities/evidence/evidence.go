package evidence

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Evidence is a stage submission made by a school. Unlike memberships there
// is no uniqueness constraint across (school, anything).
type Evidence struct {
	ID          uuid.UUID
	SchoolID    uuid.UUID
	SubmittedBy uint
	Stage       int
	Title       string
	Status      Status
	CreatedAt   time.Time
}

type Repository interface {
	Create(ctx context.Context, e *Evidence) (*Evidence, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*Evidence, error)
	Count(ctx context.Context) (int64, error)
	// ReassignSchool moves every evidence row from one school to another.
	// Returns the number of rows moved.
	ReassignSchool(ctx context.Context, fromSchoolID, toSchoolID uuid.UUID) (int64, error)
}
