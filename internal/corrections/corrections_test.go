package corrections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyE3Example(t *testing.T) {
	table, err := Compile([]Rule{
		{Misspellings: []string{"Charlie Eccleshead"}, CorrectedSpelling: "Charlie Eccleshare"},
	})
	require.NoError(t, err)

	text, report := table.Apply("We spoke with Charlie Eccleshead about the transfer window.")

	assert.Contains(t, text, "Charlie Eccleshare")
	assert.NotContains(t, text, "Charlie Eccleshead")
	assert.GreaterOrEqual(t, report["Charlie Eccleshare"], 1)
}

func TestApplyIsWholeWordCaseInsensitive(t *testing.T) {
	table, err := Compile([]Rule{
		{Misspellings: []string{"arsenal"}, CorrectedSpelling: "Arsenal FC"},
	})
	require.NoError(t, err)

	text, report := table.Apply("ARSENAL won, but arsenalfc is a different word.")
	assert.Equal(t, "Arsenal FC won, but arsenalfc is a different word.", text)
	assert.Equal(t, 1, report["Arsenal FC"])
}

func TestApplyDoesNotRescanReplacementOutput(t *testing.T) {
	table, err := Compile([]Rule{
		{Misspellings: []string{"foo"}, CorrectedSpelling: "foobar"},
		{Misspellings: []string{"bar"}, CorrectedSpelling: "baz"},
	})
	require.NoError(t, err)

	text, _ := table.Apply("foo")
	// "foo" -> "foobar" by rule 1; rule 2 must not then turn the embedded
	// "bar" into "baz" since rules apply once, in document order.
	assert.Equal(t, "foobar", text)
}
