package school_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Greenfield Primary", "greenfield primary"},
		{"collapses inner whitespace", "Greenfield  \t Primary", "greenfield primary"},
		{"trims edges", "  Greenfield Primary ", "greenfield primary"},
		{"mixed case and spacing", " GREENFIELD  primary", "greenfield primary"},
		{"single word", "Greenfield", "greenfield"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, school.NormalizeName(tc.input))
		})
	}
}

func TestNormalizeName_VariantsCollide(t *testing.T) {
	variants := []string{
		"Greenfield Primary",
		"greenfield primary",
		"GREENFIELD PRIMARY",
		" Greenfield  Primary ",
	}
	for _, v := range variants {
		assert.Equal(t, "greenfield primary", school.NormalizeName(v), "variant %q", v)
	}
}
