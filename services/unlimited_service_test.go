package services

import (
	"testing"

	"examcore/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionValidatesInitialScore(t *testing.T) {
	_, _, _, _, unlimited := newTestServices(t)

	for _, score := range []int{0, -5} {
		_, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: score})
		assert.ErrorIs(t, err, ErrInvalidInitialScore)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	_, _, _, _, unlimited := newTestServices(t)

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)

	assert.Equal(t, 50, session.InitialScore)
	assert.Equal(t, 50, session.CurrentScore)
	assert.Equal(t, 5, session.QuestionsPerRound)
	assert.True(t, session.IsActive)
	assert.Zero(t, session.TotalQuestionsAnswered)
}

func TestOneActiveSessionPerUser(t *testing.T) {
	_, _, _, _, unlimited := newTestServices(t)

	first, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)

	_, err = unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 30})
	assert.ErrorIs(t, err, ErrActiveSessionExists)

	// A different user is unaffected.
	_, err = unlimited.CreateSession(&CreateSessionRequest{UserID: 10, InitialScore: 30})
	require.NoError(t, err)

	// Ending the session frees the slot.
	require.NoError(t, unlimited.EndSession(9, first.ID))
	_, err = unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 30})
	require.NoError(t, err)
}

func TestActiveSessionLookup(t *testing.T) {
	_, _, _, _, unlimited := newTestServices(t)

	session, err := unlimited.ActiveSession(9)
	require.NoError(t, err)
	assert.Nil(t, session)

	created, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)

	session, err = unlimited.ActiveSession(9)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, created.ID, session.ID)
}

func TestEliminationScoring(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	q15 := seedSingleQuestion(t, questions, 0, 15)
	q10 := seedSingleQuestion(t, questions, 0, 10)

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 20})
	require.NoError(t, err)

	// Wrong answer on a 15-point question: 20 - 15 = 5, still running.
	result, err := unlimited.SubmitAnswer(9, session.ID, q15.ID, models.SingleAnswer(3))
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, -15, result.ScoreChange)
	assert.Equal(t, 5, result.NewScore)
	assert.False(t, result.SessionEnded)

	// Wrong again on a 10-point question: floors at zero and the session
	// ends on its own.
	result, err = unlimited.SubmitAnswer(9, session.ID, q10.ID, models.SingleAnswer(3))
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewScore)
	assert.True(t, result.SessionEnded)

	ended, err := unlimited.GetSession(session.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	assert.NotNil(t, ended.EndedAt)

	// No further answers land on an ended session.
	_, err = unlimited.SubmitAnswer(9, session.ID, q10.ID, models.SingleAnswer(0))
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestCorrectAnswerCostsNothing(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	q := seedSingleQuestion(t, questions, 2, 15)

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 20})
	require.NoError(t, err)

	result, err := unlimited.SubmitAnswer(9, session.ID, q.ID, models.SingleAnswer(2))
	require.NoError(t, err)

	assert.True(t, result.IsCorrect)
	assert.Equal(t, 0, result.ScoreChange)
	assert.Equal(t, 20, result.NewScore)
	assert.Equal(t, 1, result.TotalAnswered)
	assert.Equal(t, 1, result.TotalCorrect)

	// The correct answer is revealed once the answer is in.
	idx, ok := result.CorrectAnswer.Index()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestSubmitAnswerOwnership(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	q := seedSingleQuestion(t, questions, 0, 5)
	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 20})
	require.NoError(t, err)

	_, err = unlimited.SubmitAnswer(10, session.ID, q.ID, models.SingleAnswer(0))
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = unlimited.SubmitAnswer(9, 999, q.ID, models.SingleAnswer(0))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNextQuestionsNeverRepeat(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	pool := make(map[uint]bool)
	for i := 0; i < 5; i++ {
		q := seedSingleQuestion(t, questions, 0, 1)
		pool[q.ID] = true
	}

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 100})
	require.NoError(t, err)

	seen := make(map[uint]bool)
	for {
		batch, err := unlimited.NextQuestions(9, session.ID, 2)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		for _, view := range batch {
			assert.False(t, seen[view.ID], "question %d issued twice", view.ID)
			seen[view.ID] = true

			// Answer correctly so the session stays alive while the pool
			// drains.
			_, err := unlimited.SubmitAnswer(9, session.ID, view.ID, models.SingleAnswer(0))
			require.NoError(t, err)
		}
	}

	// Exhaustion enumerates the full pool exactly once.
	assert.Equal(t, pool, seen)
}

func TestNextQuestionsBatchSizeAndOwnership(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	for i := 0; i < 8; i++ {
		seedSingleQuestion(t, questions, 0, 1)
	}

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 100, QuestionsPerRound: 3})
	require.NoError(t, err)

	// Zero count falls back to the session's configured round size.
	batch, err := unlimited.NextQuestions(9, session.ID, 0)
	require.NoError(t, err)
	assert.Len(t, batch, 3)

	_, err = unlimited.NextQuestions(10, session.ID, 3)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestNextQuestionsOnEndedSession(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	seedSingleQuestion(t, questions, 0, 1)
	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 100})
	require.NoError(t, err)
	require.NoError(t, unlimited.EndSession(9, session.ID))

	_, err = unlimited.NextQuestions(9, session.ID, 5)
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestEndSessionIdempotent(t *testing.T) {
	_, _, _, _, unlimited := newTestServices(t)

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)

	require.NoError(t, unlimited.EndSession(9, session.ID))
	require.NoError(t, unlimited.EndSession(9, session.ID))

	ended, err := unlimited.GetSession(session.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	assert.NotNil(t, ended.EndedAt)
}

func TestSessionStats(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	q1 := seedSingleQuestion(t, questions, 0, 5)
	q2 := seedSingleQuestion(t, questions, 1, 5)

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)

	_, err = unlimited.SubmitAnswer(9, session.ID, q1.ID, models.SingleAnswer(0))
	require.NoError(t, err)
	_, err = unlimited.SubmitAnswer(9, session.ID, q2.ID, models.SingleAnswer(0))
	require.NoError(t, err)

	stats, err := unlimited.SessionStats(9, session.ID)
	require.NoError(t, err)

	assert.Equal(t, 50, stats.Accuracy)
	require.Len(t, stats.Records, 2)
	assert.Equal(t, q1.ID, stats.Records[0].QuestionID)
	assert.True(t, stats.Records[0].IsCorrect)
	assert.Equal(t, q2.ID, stats.Records[1].QuestionID)
	assert.False(t, stats.Records[1].IsCorrect)
	assert.Equal(t, -5, stats.Records[1].ScoreChange)
	assert.Equal(t, 2, stats.Session.TotalQuestionsAnswered)
}

func TestSessionStatsEmptySession(t *testing.T) {
	_, _, _, _, unlimited := newTestServices(t)

	session, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)

	stats, err := unlimited.SessionStats(9, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Accuracy)
	assert.Empty(t, stats.Records)
}

func TestUserStatsAggregates(t *testing.T) {
	_, questions, _, _, unlimited := newTestServices(t)

	q1 := seedSingleQuestion(t, questions, 0, 5)
	q2 := seedSingleQuestion(t, questions, 0, 5)
	q3 := seedSingleQuestion(t, questions, 0, 5)

	first, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)
	_, err = unlimited.SubmitAnswer(9, first.ID, q1.ID, models.SingleAnswer(0))
	require.NoError(t, err)
	_, err = unlimited.SubmitAnswer(9, first.ID, q2.ID, models.SingleAnswer(3))
	require.NoError(t, err)
	require.NoError(t, unlimited.EndSession(9, first.ID))

	second, err := unlimited.CreateSession(&CreateSessionRequest{UserID: 9, InitialScore: 50})
	require.NoError(t, err)
	_, err = unlimited.SubmitAnswer(9, second.ID, q3.ID, models.SingleAnswer(0))
	require.NoError(t, err)

	stats, err := unlimited.UserStats(9)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.CompletedSessions)
	assert.Equal(t, 3, stats.TotalQuestions)
	assert.Equal(t, 2, stats.TotalCorrect)
	assert.Equal(t, 67, stats.AvgAccuracy)

	sessions, err := unlimited.UserSessions(9, 50, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
