package services

import (
	"errors"
	"fmt"
	"math/rand"

	"examcore/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type ExamService struct {
	db        *gorm.DB
	questions *QuestionService
	validate  *validator.Validate
}

func NewExamService(db *gorm.DB, questions *QuestionService) *ExamService {
	return &ExamService{db: db, questions: questions, validate: validator.New()}
}

type CreateExamRequest struct {
	Title              string `json:"title" validate:"required"`
	Description        string `json:"description"`
	Duration           int    `json:"duration" validate:"omitempty,gt=0"`
	ScoringMode        string `json:"scoring_mode" validate:"omitempty,oneof=add subtract unlimited"`
	QuestionIDs        []uint `json:"questions"`
	CreatedBy          uint   `json:"created_by"`
	CustomTotalScore   int    `json:"custom_total_score" validate:"omitempty,gt=0"` // 0 means use the question sum
	RandomizeQuestions bool   `json:"randomize_questions"`
}

type UpdateExamRequest struct {
	Title              *string `json:"title"`
	Description        *string `json:"description"`
	Duration           *int    `json:"duration" validate:"omitempty,gt=0"`
	ScoringMode        *string `json:"scoring_mode" validate:"omitempty,oneof=add subtract unlimited"`
	IsActive           *bool   `json:"is_active"`
	RandomizeQuestions *bool   `json:"randomize_questions"`
	QuestionIDs        []uint  `json:"questions"` // nil leaves the question set untouched
	CustomTotalScore   int     `json:"custom_total_score" validate:"omitempty,gt=0"`
}

// ExamDetail is an exam plus its question set in serving order.
type ExamDetail struct {
	models.Exam
	Questions []models.Question `json:"questions"`
}

// ExamSummary is a listing row with the counts the original admin screens
// show next to each exam.
type ExamSummary struct {
	models.Exam
	QuestionCount    int `json:"question_count"`
	ParticipantCount int `json:"participant_count"`
}

// totalScoreFor resolves an exam's cached total: the admin override when one
// is supplied, otherwise the sum of the referenced questions' scores. Missing
// references contribute nothing.
func (s *ExamService) totalScoreFor(questionIDs []uint, customTotalScore int) (int, error) {
	if customTotalScore > 0 {
		return customTotalScore, nil
	}
	questions, err := s.questions.FindByIDs(questionIDs)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, q := range questions {
		total += q.Score
	}
	return total, nil
}

func replaceExamQuestions(tx *gorm.DB, examID uint, questionIDs []uint) error {
	if err := tx.Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error; err != nil {
		return err
	}
	for i, questionID := range questionIDs {
		link := models.ExamQuestion{
			ExamID:        examID,
			QuestionID:    questionID,
			QuestionOrder: i + 1,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ExamService) Create(req *CreateExamRequest) (*ExamDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(req.QuestionIDs) == 0 {
		return nil, ErrNoQuestions
	}

	duration := req.Duration
	if duration == 0 {
		duration = 60
	}
	scoringMode := req.ScoringMode
	if scoringMode == "" {
		scoringMode = models.ScoringModeAdd
	}

	totalScore, err := s.totalScoreFor(req.QuestionIDs, req.CustomTotalScore)
	if err != nil {
		return nil, err
	}

	exam := models.Exam{
		Title:              req.Title,
		Description:        req.Description,
		Duration:           duration,
		ScoringMode:        scoringMode,
		TotalScore:         totalScore,
		IsActive:           true,
		RandomizeQuestions: req.RandomizeQuestions,
		CreatedBy:          req.CreatedBy,
	}

	// Exam row and ordered association rows commit together; a crash must
	// never leave an exam without its questions.
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&exam).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := replaceExamQuestions(tx, exam.ID, req.QuestionIDs); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.Get(exam.ID)
}

// Get loads an exam with its questions in stored order, or in a fresh random
// order on every call when the exam's randomize flag is set.
func (s *ExamService) Get(examID uint) (*ExamDetail, error) {
	detail, err := s.getStoredOrder(examID)
	if err != nil {
		return nil, err
	}
	if detail.RandomizeQuestions {
		rand.Shuffle(len(detail.Questions), func(i, j int) {
			detail.Questions[i], detail.Questions[j] = detail.Questions[j], detail.Questions[i]
		})
	}
	return detail, nil
}

// getStoredOrder always returns the persisted question order; scoring and
// review reads go through it so a randomized exam still grades
// deterministically.
func (s *ExamService) getStoredOrder(examID uint) (*ExamDetail, error) {
	var exam models.Exam
	if err := s.db.First(&exam, examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	var questions []models.Question
	err := s.db.
		Select("questions.*").
		Joins("JOIN exam_questions ON exam_questions.question_id = questions.id").
		Where("exam_questions.exam_id = ?", examID).
		Order("exam_questions.question_order").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	return &ExamDetail{Exam: exam, Questions: questions}, nil
}

func (s *ExamService) List(limit, offset int) ([]ExamSummary, error) {
	return s.list(s.db, limit, offset)
}

func (s *ExamService) ListByCreator(creatorID uint, limit, offset int) ([]ExamSummary, error) {
	return s.list(s.db.Where("created_by = ?", creatorID), limit, offset)
}

func (s *ExamService) list(query *gorm.DB, limit, offset int) ([]ExamSummary, error) {
	var exams []models.Exam
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&exams).Error; err != nil {
		return nil, err
	}

	summaries := make([]ExamSummary, 0, len(exams))
	for _, exam := range exams {
		var questionCount, participantCount int64
		if err := s.db.Model(&models.ExamQuestion{}).Where("exam_id = ?", exam.ID).Count(&questionCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.ExamRecord{}).Where("exam_id = ?", exam.ID).Count(&participantCount).Error; err != nil {
			return nil, err
		}
		summaries = append(summaries, ExamSummary{
			Exam:             exam,
			QuestionCount:    int(questionCount),
			ParticipantCount: int(participantCount),
		})
	}
	return summaries, nil
}

func (s *ExamService) Update(examID uint, req *UpdateExamRequest) (*ExamDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var exam models.Exam
	if err := s.db.First(&exam, examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.ScoringMode != nil {
		exam.ScoringMode = *req.ScoringMode
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.RandomizeQuestions != nil {
		exam.RandomizeQuestions = *req.RandomizeQuestions
	}

	// Replacing the question set recomputes the cached total under the same
	// rule as creation. Scalar-only patches leave it alone.
	if req.QuestionIDs != nil {
		if len(req.QuestionIDs) == 0 {
			return nil, ErrNoQuestions
		}
		totalScore, err := s.totalScoreFor(req.QuestionIDs, req.CustomTotalScore)
		if err != nil {
			return nil, err
		}
		exam.TotalScore = totalScore
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(&exam).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if req.QuestionIDs != nil {
		if err := replaceExamQuestions(tx, exam.ID, req.QuestionIDs); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.Get(exam.ID)
}

// Delete removes an exam and its question associations. Exams that any
// record references are immutable for deletion.
func (s *ExamService) Delete(examID uint) error {
	var recordCount int64
	if err := s.db.Model(&models.ExamRecord{}).Where("exam_id = ?", examID).Count(&recordCount).Error; err != nil {
		return err
	}
	if recordCount > 0 {
		return ErrExamHasRecords
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	result := tx.Delete(&models.Exam{}, examID)
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrExamNotFound
	}

	return tx.Commit().Error
}

// HasUserTaken reports whether a record already exists for the (user, exam)
// pair.
func (s *ExamService) HasUserTaken(userID, examID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ExamRecord{}).
		Where("user_id = ? AND exam_id = ?", userID, examID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
