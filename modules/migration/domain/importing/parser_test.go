package importing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildroots/wildroots/modules/migration/domain/importing"
)

func TestParse_SkipsHeader(t *testing.T) {
	content := "legacy_user_id,email,first_name,last_name,school_name,country,stage_1\n" +
		"L-1,amara@example.org,Amara,Diallo,Willow Creek Primary,KE,done\n"

	rows := importing.Parse(content)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "L-1", rows[0].LegacyUserID)
	assert.Equal(t, "amara@example.org", rows[0].Email)
	assert.Equal(t, "Willow Creek Primary", rows[0].SchoolName)
	assert.Empty(t, rows[0].ParseError)
}

func TestParse_NoHeader(t *testing.T) {
	content := "L-1,amara@example.org,Amara,Diallo,Willow Creek Primary,KE,done\n"

	rows := importing.Parse(content)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, "L-1", rows[0].LegacyUserID)
}

func TestParse_StripsBOM(t *testing.T) {
	content := "\xEF\xBB\xBFlegacy_user_id,email,first_name,last_name,school_name,country,stage_1\n" +
		"L-1,amara@example.org,Amara,Diallo,Willow Creek Primary,KE,done\n"

	rows := importing.Parse(content)
	require.Len(t, rows, 1)
	assert.Equal(t, "L-1", rows[0].LegacyUserID)
}

func TestParse_RaggedRowPadsMissingColumns(t *testing.T) {
	content := "L-2,tomas@example.org,Tomas,Vega\n"

	rows := importing.Parse(content)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].ParseError)
	assert.Equal(t, "tomas@example.org", rows[0].Email)
	assert.Empty(t, rows[0].SchoolName)
	assert.Empty(t, rows[0].Stage1)
}

func TestParse_QuotedNewlinesKeepSourceLineNumbers(t *testing.T) {
	content := "legacy_user_id,email,first_name,last_name,school_name,country,stage_1\n" +
		"L-1,amara@example.org,Amara,\"Diallo\nSow\",Willow Creek Primary,KE,done\n" +
		"L-2,tomas@example.org,Tomas,Vega,River School,AR,done\n"

	rows := importing.Parse(content)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Diallo\nSow", rows[0].LastName)
	assert.Equal(t, 4, rows[1].Line, "a quoted newline above must not shift later row numbers")
}

func TestParse_MalformedRowBecomesParseError(t *testing.T) {
	content := "L-1,amara@example.org,Amara,Diallo,Willow Creek Primary,KE,done\n" +
		"L-2,\"unterminated,Tomas,Vega,River School,AR,done\n"

	rows := importing.Parse(content)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].ParseError)
	assert.NotEmpty(t, rows[1].ParseError)
	assert.Equal(t, 2, rows[1].Line)
}

func TestParse_Deterministic(t *testing.T) {
	content := "legacy_user_id,email,first_name,last_name,school_name,country,stage_1\n" +
		"L-1,amara@example.org,Amara,Diallo,Willow Creek Primary,KE,done\n" +
		"L-2,tomas@example.org,Tomas,Vega,River School,AR,\n"

	first := importing.Parse(content)
	second := importing.Parse(content)
	assert.Equal(t, first, second)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, importing.Parse(""))
}
