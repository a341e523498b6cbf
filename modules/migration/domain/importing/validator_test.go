package importing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildroots/wildroots/modules/migration/domain/importing"
)

func noneExist() importing.Lookups {
	return importing.Lookups{
		EmailExists: func(context.Context, string) (bool, error) {
			return false, nil
		},
		LegacyIDExists: func(context.Context, string) (bool, error) {
			return false, nil
		},
	}
}

func validRow() importing.RawRow {
	return importing.RawRow{
		Line:         2,
		LegacyUserID: "L-1",
		Email:        "amara@example.org",
		FirstName:    "Amara",
		LastName:     "Diallo",
		SchoolName:   "Willow Creek Primary",
		Country:      "KE",
		Stage1:       "done",
	}
}

func TestValidate_ValidRow(t *testing.T) {
	v := importing.NewValidator(noneExist())

	out, err := v.Validate(context.Background(), validRow())
	require.NoError(t, err)
	assert.Equal(t, importing.OutcomeValid, out.Outcome)
	assert.Empty(t, out.Reason)
}

func TestValidate_ParseErrorFails(t *testing.T) {
	v := importing.NewValidator(noneExist())

	out, err := v.Validate(context.Background(), importing.RawRow{Line: 3, ParseError: "malformed row"})
	require.NoError(t, err)
	assert.Equal(t, importing.OutcomeFailed, out.Outcome)
	assert.Equal(t, "malformed row", out.Reason)
}

func TestValidate_MissingStageDataSkips(t *testing.T) {
	v := importing.NewValidator(noneExist())

	row := validRow()
	row.Stage1 = "   "
	out, err := v.Validate(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, importing.OutcomeSkipped, out.Outcome)
	assert.Equal(t, "no stage 1 program data", out.Reason)
}

func TestValidate_InvalidEmailFails(t *testing.T) {
	v := importing.NewValidator(noneExist())

	for _, email := range []string{"", "not-an-email", "missing@tld@twice"} {
		row := validRow()
		row.Email = email
		out, err := v.Validate(context.Background(), row)
		require.NoError(t, err)
		assert.Equal(t, importing.OutcomeFailed, out.Outcome, "email %q", email)
		assert.Contains(t, out.Reason, "invalid email")
	}
}

func TestValidate_MissingLegacyIDFails(t *testing.T) {
	v := importing.NewValidator(noneExist())

	for _, legacyID := range []string{"", "   "} {
		row := validRow()
		row.LegacyUserID = legacyID
		out, err := v.Validate(context.Background(), row)
		require.NoError(t, err)
		assert.Equal(t, importing.OutcomeFailed, out.Outcome, "legacy id %q", legacyID)
		assert.Equal(t, "missing legacy user id", out.Reason)
	}
}

func TestValidate_ExistingEmailFails(t *testing.T) {
	lookups := noneExist()
	lookups.EmailExists = func(_ context.Context, email string) (bool, error) {
		return email == "amara@example.org", nil
	}
	v := importing.NewValidator(lookups)

	out, err := v.Validate(context.Background(), validRow())
	require.NoError(t, err)
	assert.Equal(t, importing.OutcomeFailed, out.Outcome)
	assert.Contains(t, out.Reason, "email already registered")
}

func TestValidate_MigratedLegacyIDFails(t *testing.T) {
	lookups := noneExist()
	lookups.LegacyIDExists = func(_ context.Context, legacyID string) (bool, error) {
		return legacyID == "L-1", nil
	}
	v := importing.NewValidator(lookups)

	out, err := v.Validate(context.Background(), validRow())
	require.NoError(t, err)
	assert.Equal(t, importing.OutcomeFailed, out.Outcome)
	assert.Contains(t, out.Reason, "already migrated")
}

func TestValidate_SkipWinsOverInvalidEmail(t *testing.T) {
	v := importing.NewValidator(noneExist())

	// An abandoned signup with a broken email is still a skip: the stage
	// check runs first.
	row := validRow()
	row.Email = "not-an-email"
	row.Stage1 = ""
	out, err := v.Validate(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, importing.OutcomeSkipped, out.Outcome)
}

func TestValidate_LookupFaultIsAnError(t *testing.T) {
	lookups := noneExist()
	lookups.EmailExists = func(context.Context, string) (bool, error) {
		return false, errors.New("connection refused")
	}
	v := importing.NewValidator(lookups)

	_, err := v.Validate(context.Background(), validRow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email lookup")
}
