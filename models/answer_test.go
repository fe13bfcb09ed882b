package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerStorageRoundTrip(t *testing.T) {
	// Single answers persist as a bare index, sets as an array; both come
	// back exactly as stored.
	single := SingleAnswer(2)
	value, err := single.Value()
	require.NoError(t, err)
	assert.Equal(t, "2", value)

	var decodedSingle Answer
	require.NoError(t, decodedSingle.Scan(value))
	idx, ok := decodedSingle.Index()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.False(t, decodedSingle.IsSet())

	multiple := MultipleAnswer(0, 2)
	value, err = multiple.Value()
	require.NoError(t, err)
	assert.Equal(t, "[0,2]", value)

	var decodedMultiple Answer
	require.NoError(t, decodedMultiple.Scan(value))
	indices, ok := decodedMultiple.Indices()
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, indices)
}

func TestAnswerSingleAndSetStayDistinct(t *testing.T) {
	// A set holding only the correct index must not decode into a single
	// answer; the two shapes never collapse into each other.
	var decoded Answer
	require.NoError(t, decoded.Scan("[2]"))
	assert.True(t, decoded.IsSet())
	_, ok := decoded.Index()
	assert.False(t, ok)
}

func TestAnswerMapRoundTrip(t *testing.T) {
	answers := AnswerMap{
		1: SingleAnswer(0),
		7: MultipleAnswer(1, 3),
	}

	value, err := answers.Value()
	require.NoError(t, err)

	var decoded AnswerMap
	require.NoError(t, decoded.Scan(value))

	require.Len(t, decoded, 2)
	idx, ok := decoded[1].Index()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	indices, ok := decoded[7].Indices()
	require.True(t, ok)
	assert.ElementsMatch(t, []int{1, 3}, indices)
}

func TestAnswerRejectsMalformedShapes(t *testing.T) {
	var a Answer
	assert.Error(t, a.Scan(`"two"`))
	assert.Error(t, a.Scan(`[0,"x"]`))
	assert.Error(t, a.Scan(`{"index":2}`))
}

func TestAnswerScanNullMeansUnanswered(t *testing.T) {
	var a Answer
	require.NoError(t, a.Scan(nil))
	assert.True(t, a.IsZero())

	require.NoError(t, a.Scan("null"))
	assert.True(t, a.IsZero())
}
