package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Membership links a user to a school. (user, school) pairs are unique.
type Membership struct {
	ID        uint
	UserID    uint
	SchoolID  uuid.UUID
	Role      string
	CreatedAt time.Time
}

const (
	RoleTeacher     = "teacher"
	RoleCoordinator = "coordinator"
)

type Repository interface {
	Create(ctx context.Context, m *Membership) (*Membership, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*Membership, error)
	Exists(ctx context.Context, userID uint, schoolID uuid.UUID) (bool, error)
	Count(ctx context.Context) (int64, error)
	// Reassign moves one membership row to another school.
	Reassign(ctx context.Context, id uint, schoolID uuid.UUID) error
	Delete(ctx context.Context, id uint) error
}
