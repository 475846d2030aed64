package references

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateDeduplicatesPerSource(t *testing.T) {
	hits := []Hit{
		{Source: "handbook.pdf", Text: "a", Pages: []string{"3", "1"}},
		{Source: "specsheet.pdf", Text: "b", Pages: []string{"2"}},
		{Source: "handbook.pdf", Text: "c", Pages: []string{"1", "7"}},
	}

	refs := Aggregate(hits)
	require.Len(t, refs, 2)

	assert.Equal(t, "handbook.pdf", refs[0].Source)
	assert.Equal(t, []string{"1", "3", "7"}, refs[0].Pages)
	assert.Equal(t, "specsheet.pdf", refs[1].Source)
	assert.Equal(t, []string{"2"}, refs[1].Pages)
}

func TestAggregateFirstSeenOrder(t *testing.T) {
	hits := []Hit{
		{Source: "z.pdf", Pages: []string{"1"}},
		{Source: "a.pdf", Pages: []string{"1"}},
		{Source: "z.pdf", Pages: []string{"2"}},
	}

	refs := Aggregate(hits)
	require.Len(t, refs, 2)
	assert.Equal(t, "z.pdf", refs[0].Source)
	assert.Equal(t, "a.pdf", refs[1].Source)
}

func TestAggregatePagesSortedLexicographically(t *testing.T) {
	// Page labels are free text; "10" sorts before "2".
	hits := []Hit{
		{Source: "s", Pages: []string{"2", "10", "ix"}},
	}

	refs := Aggregate(hits)
	require.Len(t, refs, 1)
	assert.Equal(t, []string{"10", "2", "ix"}, refs[0].Pages)
}

func TestAggregateIdempotent(t *testing.T) {
	hits := []Hit{
		{Source: "a", Text: "x", Pages: []string{"4", "2"}},
		{Source: "b", Text: "y", Pages: []string{"9"}},
		{Source: "a", Text: "z", Pages: []string{"2"}},
	}

	first := Aggregate(hits)
	second := Aggregate(hits)
	assert.Equal(t, first, second)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestBuildAnswerNumbersBySourceFirstSeen(t *testing.T) {
	hits := []Hit{
		{Source: "handbook.pdf", Text: "The limit is 5.", Pages: []string{"3"}},
		{Source: "specsheet.pdf", Text: "Use mode B.", Pages: []string{"12"}},
		{Source: "handbook.pdf", Text: "Reset monthly.", Pages: []string{"8"}},
	}

	got := BuildAnswer(hits)
	want := "1- Page 3, 8: The limit is 5.\n\n" +
		"2- Page 12: Use mode B.\n\n" +
		"1- Page 3, 8: Reset monthly."
	assert.Equal(t, want, got)
}

func TestBuildAnswerTrimsTrailingWhitespace(t *testing.T) {
	hits := []Hit{{Source: "s", Text: "only one", Pages: []string{"1"}}}
	assert.Equal(t, "1- Page 1: only one", BuildAnswer(hits))
}
