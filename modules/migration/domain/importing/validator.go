package importing

import (
	"context"
	"fmt"
	"strings"

	"github.com/wildroots/wildroots/pkg/constants"
)

// Lookups are the read-only storage queries validation needs. Injecting them
// keeps validation side-effect free and lets the same snapshot of existing
// emails and legacy ids produce identical outcomes on every pass.
type Lookups struct {
	EmailExists    func(ctx context.Context, email string) (bool, error)
	LegacyIDExists func(ctx context.Context, legacyID string) (bool, error)
}

type Validator struct {
	lookups Lookups
}

func NewValidator(lookups Lookups) *Validator {
	return &Validator{lookups: lookups}
}

// Validate decides the row's outcome. Only storage faults are returned as
// errors; skip and fail are ordinary outcomes, not errors.
func (v *Validator) Validate(ctx context.Context, row RawRow) (ValidatedRow, error) {
	if row.ParseError != "" {
		return failed(row, row.ParseError), nil
	}

	// The legacy store is full of abandoned signup attempts that never got
	// stage-1 data. They are excluded on purpose, not failures.
	if strings.TrimSpace(row.Stage1) == "" {
		return ValidatedRow{Row: row, Outcome: OutcomeSkipped, Reason: "no stage 1 program data"}, nil
	}

	email := strings.TrimSpace(row.Email)
	if err := constants.Validate.Var(email, "required,email"); err != nil {
		return failed(row, fmt.Sprintf("invalid email: %q", email)), nil
	}

	exists, err := v.lookups.EmailExists(ctx, email)
	if err != nil {
		return ValidatedRow{}, fmt.Errorf("email lookup: %w", err)
	}
	if exists {
		return failed(row, fmt.Sprintf("email already registered: %s", email)), nil
	}

	// The legacy id is what ties a created account back to its source row.
	// A row without one cannot be tracked or re-run safely.
	legacyID := strings.TrimSpace(row.LegacyUserID)
	if legacyID == "" {
		return failed(row, "missing legacy user id"), nil
	}
	migrated, err := v.lookups.LegacyIDExists(ctx, legacyID)
	if err != nil {
		return ValidatedRow{}, fmt.Errorf("legacy id lookup: %w", err)
	}
	if migrated {
		return failed(row, fmt.Sprintf("legacy user %s already migrated", legacyID)), nil
	}

	return ValidatedRow{Row: row, Outcome: OutcomeValid}, nil
}

func failed(row RawRow, reason string) ValidatedRow {
	return ValidatedRow{Row: row, Outcome: OutcomeFailed, Reason: reason}
}
