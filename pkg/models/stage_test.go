package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStageRoundTrip(t *testing.T) {
	for s := StageToday; s <= StageCompleted; s++ {
		parsed, err := ParseStage(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStage("yesterday")
	assert.Error(t, err)
}

// Stage names must survive as JSON map keys, which is how snapshots are
// serialized.
func TestStageAsMapKey(t *testing.T) {
	counts := map[Stage]int{
		StageToday:     2,
		StageCompleted: 1,
	}

	data, err := json.Marshal(counts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"today": 2, "completed": 1}`, string(data))

	var decoded map[Stage]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, counts, decoded)
}

func TestNewReviewSetHasAllStages(t *testing.T) {
	set := NewReviewSet("u1", "blind75")
	assert.Len(t, set.Stages, 7)
	assert.Len(t, set.Counts, 7)
	for s := StageToday; s <= StageCompleted; s++ {
		assert.NotNil(t, set.Stages[s])
		assert.Zero(t, set.Counts[s])
	}
}
