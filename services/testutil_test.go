package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"examcore/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// openTestDB gives each test its own in-memory store with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:examcore_test_%d?mode=memory&cache=shared",
		atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamRecord{},
		&models.UnlimitedSession{},
		&models.UnlimitedQuestionRecord{},
	))

	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *QuestionService, *ExamService, *AttemptService, *UnlimitedService) {
	t.Helper()

	db := openTestDB(t)
	questions := NewQuestionService(db)
	exams := NewExamService(db, questions)
	attempts := NewAttemptService(db, exams)
	unlimited := NewUnlimitedService(db, nil)
	return db, questions, exams, attempts, unlimited
}

func seedSingleQuestion(t *testing.T, questions *QuestionService, correct, score int) *models.Question {
	t.Helper()

	q, err := questions.Create(&CreateQuestionRequest{
		Type:          models.QuestionTypeSingle,
		Text:          fmt.Sprintf("single choice worth %d", score),
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: models.SingleAnswer(correct),
		Score:         score,
		CreatedBy:     1,
	})
	require.NoError(t, err)
	return q
}

func seedMultipleQuestion(t *testing.T, questions *QuestionService, correct []int, score int) *models.Question {
	t.Helper()

	q, err := questions.Create(&CreateQuestionRequest{
		Type:          models.QuestionTypeMultiple,
		Text:          fmt.Sprintf("multiple choice worth %d", score),
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: models.MultipleAnswer(correct...),
		Score:         score,
		CreatedBy:     1,
	})
	require.NoError(t, err)
	return q
}
