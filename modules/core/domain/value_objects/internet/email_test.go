package internet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildroots/wildroots/modules/core/domain/value_objects/internet"
)

func TestNewEmail(t *testing.T) {
	email, err := internet.NewEmail("amara@example.org")
	require.NoError(t, err)
	assert.Equal(t, "amara@example.org", email.Value())
	assert.False(t, email.IsZero())
}

func TestNewEmail_Invalid(t *testing.T) {
	for _, v := range []string{"", "plainaddress", "@no-local.org", "spaces in@addr.org"} {
		_, err := internet.NewEmail(v)
		assert.ErrorIs(t, err, internet.ErrInvalidEmail, "value %q", v)
	}
}

func TestMustParseEmail_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		internet.MustParseEmail("not-an-email")
	})
}
