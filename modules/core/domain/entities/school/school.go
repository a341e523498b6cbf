package school

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSchoolNotFound = errors.New("school not found")
	ErrSchoolExists   = errors.New("school already exists")
)

// Stage is a school's current position in the program.
type Stage int

const (
	StageSeedling Stage = 1
	StageGrowing  Stage = 2
	StageThriving Stage = 3
)

func (s Stage) IsValid() bool {
	return s >= StageSeedling && s <= StageThriving
}

type School struct {
	ID        uuid.UUID
	Name      string
	Country   string
	Stage     Stage
	CreatedAt time.Time
}

// NormalizeName produces the comparison key for school names: surrounding
// whitespace trimmed, internal runs collapsed to single spaces, case-folded.
// Display names keep their original casing.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*School, error)
	GetByNormalizedName(ctx context.Context, normalized string) (*School, error)
	List(ctx context.Context) ([]*School, error)
	Create(ctx context.Context, s *School) (*School, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
