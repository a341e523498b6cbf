package persistence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/core/domain/aggregates/user"
	"github.com/wildroots/wildroots/modules/core/domain/entities/evidence"
	"github.com/wildroots/wildroots/modules/core/domain/entities/membership"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
)

// In-memory repository implementations backing service tests and the offline
// CLI's dry-run mode. They mirror the constraints the SQL schema enforces:
// unique emails, unique legacy ids, unique (user, school) memberships.

type InmemUserRepository struct {
	mu     sync.RWMutex
	nextID uint
	users  []user.User
}

func NewInmemUserRepository() *InmemUserRepository {
	return &InmemUserRepository{}
}

func (r *InmemUserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID() == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("id: %d: %w", id, user.ErrUserNotFound)
}

func (r *InmemUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email().Value(), email) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("email: %s: %w", email, user.ErrUserNotFound)
}

func (r *InmemUserRepository) List(ctx context.Context, params *user.FindParams) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []user.User
	for _, u := range r.users {
		if params != nil && params.MigratedOnly && u.MigratedFrom() == "" {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *InmemUserRepository) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	users, err := r.List(ctx, params)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (r *InmemUserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email().Value(), data.Email().Value()) {
			return nil, fmt.Errorf("duplicate key value violates unique constraint on email %s", data.Email().Value())
		}
		if data.MigratedFrom() != "" && u.MigratedFrom() == data.MigratedFrom() {
			return nil, fmt.Errorf("duplicate key value violates unique constraint on migrated_from %s", data.MigratedFrom())
		}
	}
	r.nextID++
	opts := []user.Option{
		user.WithID(r.nextID),
		user.WithPasswordHash(data.PasswordHash()),
		user.WithNeedsEvidenceResubmission(data.NeedsEvidenceResubmission()),
		user.WithCreatedAt(data.CreatedAt()),
	}
	if data.MigratedFrom() != "" && data.MigratedAt() != nil {
		opts = append(opts, user.WithMigratedFrom(data.MigratedFrom(), *data.MigratedAt()))
	}
	created := user.New(data.FirstName(), data.LastName(), data.Email(), opts...)
	r.users = append(r.users, created)
	return created, nil
}

func (r *InmemUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *InmemUserRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.MigratedFrom() == legacyID {
			return true, nil
		}
	}
	return false, nil
}

type InmemSchoolRepository struct {
	mu      sync.RWMutex
	schools []*school.School
}

func NewInmemSchoolRepository() *InmemSchoolRepository {
	return &InmemSchoolRepository{}
}

func (r *InmemSchoolRepository) GetByID(ctx context.Context, id uuid.UUID) (*school.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.schools {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("id: %s: %w", id, school.ErrSchoolNotFound)
}

func (r *InmemSchoolRepository) GetByNormalizedName(ctx context.Context, normalized string) (*school.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var match *school.School
	for _, s := range r.schools {
		if school.NormalizeName(s.Name) != normalized {
			continue
		}
		if match == nil || s.CreatedAt.Before(match.CreatedAt) {
			match = s
		}
	}
	if match == nil {
		return nil, fmt.Errorf("normalized name: %s: %w", normalized, school.ErrSchoolNotFound)
	}
	return match, nil
}

func (r *InmemSchoolRepository) List(ctx context.Context) ([]*school.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*school.School, len(r.schools))
	copy(out, r.schools)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InmemSchoolRepository) Create(ctx context.Context, s *school.School) (*school.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.schools = append(r.schools, s)
	return s, nil
}

func (r *InmemSchoolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.schools {
		if s.ID == id {
			r.schools = append(r.schools[:i], r.schools[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("id: %s: %w", id, school.ErrSchoolNotFound)
}

type InmemMembershipRepository struct {
	mu          sync.RWMutex
	nextID      uint
	memberships []*membership.Membership
}

func NewInmemMembershipRepository() *InmemMembershipRepository {
	return &InmemMembershipRepository{}
}

func (r *InmemMembershipRepository) Create(ctx context.Context, m *membership.Membership) (*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.memberships {
		if existing.UserID == m.UserID && existing.SchoolID == m.SchoolID {
			return nil, fmt.Errorf("duplicate key value violates unique constraint on (user, school)")
		}
	}
	r.nextID++
	m.ID = r.nextID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.memberships = append(r.memberships, m)
	return m, nil
}

func (r *InmemMembershipRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*membership.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*membership.Membership
	for _, m := range r.memberships {
		if m.SchoolID == schoolID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *InmemMembershipRepository) Exists(ctx context.Context, userID uint, schoolID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.memberships {
		if m.UserID == userID && m.SchoolID == schoolID {
			return true, nil
		}
	}
	return false, nil
}

func (r *InmemMembershipRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.memberships)), nil
}

func (r *InmemMembershipRepository) Reassign(ctx context.Context, id uint, schoolID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.memberships {
		if m.ID == id {
			m.SchoolID = schoolID
			return nil
		}
	}
	return fmt.Errorf("membership %d not found", id)
}

func (r *InmemMembershipRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.memberships {
		if m.ID == id {
			r.memberships = append(r.memberships[:i], r.memberships[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("membership %d not found", id)
}

type InmemEvidenceRepository struct {
	mu      sync.RWMutex
	records []*evidence.Evidence
}

func NewInmemEvidenceRepository() *InmemEvidenceRepository {
	return &InmemEvidenceRepository{}
}

func (r *InmemEvidenceRepository) Create(ctx context.Context, e *evidence.Evidence) (*evidence.Evidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = evidence.StatusPending
	}
	r.records = append(r.records, e)
	return e, nil
}

func (r *InmemEvidenceRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*evidence.Evidence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*evidence.Evidence
	for _, e := range r.records {
		if e.SchoolID == schoolID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *InmemEvidenceRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}

func (r *InmemEvidenceRepository) ReassignSchool(ctx context.Context, fromSchoolID, toSchoolID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var moved int64
	for _, e := range r.records {
		if e.SchoolID == fromSchoolID {
			e.SchoolID = toSchoolID
			moved++
		}
	}
	return moved, nil
}
