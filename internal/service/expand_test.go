package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandQuery_FourDistinctLenses(t *testing.T) {
	expansions := ExpandQuery("how do I scale a queue?")

	require.Len(t, expansions, 4)
	assert.Equal(t, LensAnalogies, expansions[0].Lens)
	assert.Equal(t, LensOpposites, expansions[1].Lens)
	assert.Equal(t, LensCauses, expansions[2].Lens)
	assert.Equal(t, LensCombinations, expansions[3].Lens)

	seen := make(map[string]bool)
	for _, e := range expansions {
		assert.Contains(t, e.Query, "how do I scale a queue?")
		assert.False(t, seen[e.Query], "each lens must yield a distinct phrasing")
		seen[e.Query] = true
	}
}

func TestExpandQuery_Deterministic(t *testing.T) {
	first := ExpandQuery("why do caches go stale?")
	second := ExpandQuery("why do caches go stale?")
	assert.Equal(t, first, second)
}

func TestExpandQuery_TruncatesLongQuestions(t *testing.T) {
	long := strings.Repeat("x", 500)
	expansions := ExpandQuery(long)

	require.Len(t, expansions, 4)
	for _, e := range expansions {
		assert.Contains(t, e.Query, strings.Repeat("x", maxExpandQueryChars))
		assert.NotContains(t, e.Query, strings.Repeat("x", maxExpandQueryChars+1))
	}
}

func TestExpandQuery_TruncationCountsRunes(t *testing.T) {
	long := strings.Repeat("é", 300)
	expansions := ExpandQuery(long)

	for _, e := range expansions {
		assert.Contains(t, e.Query, strings.Repeat("é", maxExpandQueryChars))
		assert.NotContains(t, e.Query, strings.Repeat("é", maxExpandQueryChars+1))
	}
}

func TestExpandQuery_EmptyQuestion(t *testing.T) {
	expansions := ExpandQuery("")
	require.Len(t, expansions, 4)
	for _, e := range expansions {
		assert.NotEmpty(t, e.Query)
	}
}
