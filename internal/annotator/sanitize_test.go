package annotator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_Empty(t *testing.T) {
	assert.Equal(t, "[No content provided]", Sanitize(""))
	assert.Equal(t, "[No content provided]", Sanitize("   \n\t"))
}

func TestSanitize_PhraseSubstitutions(t *testing.T) {
	out := Sanitize("I want to kill myself, thinking about suicide, want to die, end it all")
	assert.NotContains(t, out, "kill myself")
	assert.NotContains(t, out, "suicide")
	assert.NotContains(t, out, "want to die")
	assert.NotContains(t, out, "end it all")
	assert.Contains(t, out, "harm myself")
	assert.Contains(t, out, "self-harm")
}

func TestSanitize_Truncates(t *testing.T) {
	long := strings.Repeat("a", 5000)
	assert.Len(t, Sanitize(long), maxInputChars)
}

func TestSanitize_TruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the cap must not be split in half.
	long := strings.Repeat("a", maxInputChars-1) + "éé"

	out := Sanitize(long)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("a", maxInputChars-1), out)
}

func TestSanitize_StripsDelimiters(t *testing.T) {
	out := Sanitize(`here """ and ` + "```" + ` there`)
	assert.NotContains(t, out, `"""`)
	assert.NotContains(t, out, "```")
}

func TestBuildUserPrompt(t *testing.T) {
	p := buildUserPrompt("feeling overwhelmed lately")
	assert.Contains(t, p, "feeling overwhelmed lately")
	assert.Contains(t, p, `"label": "A0|A1|A2|A3"`)
	assert.Contains(t, p, "confidence")
	assert.Contains(t, p, "rationale")
}
