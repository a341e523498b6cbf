package user

import (
	"time"

	"github.com/wildroots/wildroots/modules/core/domain/value_objects/internet"

	"golang.org/x/crypto/bcrypt"
)

// User is an account in the CRM. Accounts created by the legacy migration
// engine carry a MigratedFrom legacy identifier and a migration timestamp;
// all other accounts have neither.
type User interface {
	ID() uint
	Email() internet.Email
	FirstName() string
	LastName() string
	PasswordHash() string
	MigratedFrom() string
	MigratedAt() *time.Time
	NeedsEvidenceResubmission() bool
	CreatedAt() time.Time

	SetPassword(plaintext string) (User, error)
	CheckPassword(plaintext string) bool
}

type Option func(u *userImpl)

func WithID(id uint) Option {
	return func(u *userImpl) {
		u.id = id
	}
}

func WithPasswordHash(hash string) Option {
	return func(u *userImpl) {
		u.passwordHash = hash
	}
}

func WithMigratedFrom(legacyID string, at time.Time) Option {
	return func(u *userImpl) {
		u.migratedFrom = legacyID
		u.migratedAt = &at
	}
}

func WithNeedsEvidenceResubmission(v bool) Option {
	return func(u *userImpl) {
		u.needsEvidenceResubmission = v
	}
}

func WithCreatedAt(t time.Time) Option {
	return func(u *userImpl) {
		u.createdAt = t
	}
}

func New(firstName, lastName string, email internet.Email, opts ...Option) User {
	u := &userImpl{
		firstName: firstName,
		lastName:  lastName,
		email:     email,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type userImpl struct {
	id                        uint
	email                     internet.Email
	firstName                 string
	lastName                  string
	passwordHash              string
	migratedFrom              string
	migratedAt                *time.Time
	needsEvidenceResubmission bool
	createdAt                 time.Time
}

func (u *userImpl) ID() uint {
	return u.id
}

func (u *userImpl) Email() internet.Email {
	return u.email
}

func (u *userImpl) FirstName() string {
	return u.firstName
}

func (u *userImpl) LastName() string {
	return u.lastName
}

func (u *userImpl) PasswordHash() string {
	return u.passwordHash
}

func (u *userImpl) MigratedFrom() string {
	return u.migratedFrom
}

func (u *userImpl) MigratedAt() *time.Time {
	return u.migratedAt
}

func (u *userImpl) NeedsEvidenceResubmission() bool {
	return u.needsEvidenceResubmission
}

func (u *userImpl) CreatedAt() time.Time {
	return u.createdAt
}

func (u *userImpl) SetPassword(plaintext string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	copied := *u
	copied.passwordHash = string(hash)
	return &copied, nil
}

func (u *userImpl) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(plaintext)) == nil
}
