package services

import (
	"testing"

	"examcore/models"

	"github.com/stretchr/testify/assert"
)

func TestIsAnswerCorrectSingle(t *testing.T) {
	correct := models.SingleAnswer(2)

	testCases := []struct {
		name      string
		submitted models.Answer
		want      bool
	}{
		{
			name:      "exact index matches",
			submitted: models.SingleAnswer(2),
			want:      true,
		},
		{
			name:      "different index",
			submitted: models.SingleAnswer(1),
			want:      false,
		},
		{
			name:      "one-element set wrapping the correct index",
			submitted: models.MultipleAnswer(2),
			want:      false,
		},
		{
			name:      "unanswered",
			submitted: models.Answer{},
			want:      false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsAnswerCorrect(models.QuestionTypeSingle, correct, tc.submitted)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsAnswerCorrectMultiple(t *testing.T) {
	correct := models.MultipleAnswer(0, 2, 3)

	testCases := []struct {
		name      string
		submitted models.Answer
		want      bool
	}{
		{
			name:      "same order",
			submitted: models.MultipleAnswer(0, 2, 3),
			want:      true,
		},
		{
			name:      "permuted order",
			submitted: models.MultipleAnswer(3, 0, 2),
			want:      true,
		},
		{
			name:      "missing member",
			submitted: models.MultipleAnswer(0, 2),
			want:      false,
		},
		{
			name:      "extra member",
			submitted: models.MultipleAnswer(0, 1, 2, 3),
			want:      false,
		},
		{
			name:      "wrong member same size",
			submitted: models.MultipleAnswer(0, 1, 3),
			want:      false,
		},
		{
			name:      "single answer instead of a set",
			submitted: models.SingleAnswer(0),
			want:      false,
		},
		{
			name: "duplicate padding passes on membership alone",
			// Size matches and every member belongs to the correct set, so
			// this counts as correct even though 3 is missing.
			submitted: models.MultipleAnswer(0, 2, 2),
			want:      true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsAnswerCorrect(models.QuestionTypeMultiple, correct, tc.submitted)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsAnswerCorrectUnknownType(t *testing.T) {
	assert.False(t, IsAnswerCorrect("essay", models.SingleAnswer(0), models.SingleAnswer(0)))
}
