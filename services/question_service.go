package services

import (
	"errors"
	"fmt"

	"examcore/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// QuestionService owns question content. The exam and unlimited engines only
// read through it.
type QuestionService struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db, validate: validator.New()}
}

type CreateQuestionRequest struct {
	Type          string        `json:"type" validate:"required,oneof=single multiple"`
	Text          string        `json:"question" validate:"required"`
	Options       []string      `json:"options" validate:"required,min=2"`
	CorrectAnswer models.Answer `json:"correct_answer"`
	Score         int           `json:"score" validate:"omitempty,gt=0"`
	ImageURL      *string       `json:"image_url"`
	AudioURL      *string       `json:"audio_url"`
	VideoURL      *string       `json:"video_url"`
	CreatedBy     uint          `json:"created_by"`
}

type UpdateQuestionRequest struct {
	Type          *string        `json:"type" validate:"omitempty,oneof=single multiple"`
	Text          *string        `json:"question"`
	Options       []string       `json:"options" validate:"omitempty,min=2"`
	CorrectAnswer *models.Answer `json:"correct_answer"`
	Score         *int           `json:"score" validate:"omitempty,gt=0"`
	ImageURL      *string        `json:"image_url"`
	AudioURL      *string        `json:"audio_url"`
	VideoURL      *string        `json:"video_url"`
}

// validateAnswerShape rejects correct answers whose shape does not match the
// question type or whose indices fall outside the option list.
func validateAnswerShape(questionType string, answer models.Answer, optionCount int) error {
	switch questionType {
	case models.QuestionTypeSingle:
		idx, ok := answer.Index()
		if !ok {
			return fmt.Errorf("%w: single-choice questions take one index", ErrInvalidAnswerShape)
		}
		if idx < 0 || idx >= optionCount {
			return fmt.Errorf("%w: index %d out of range", ErrInvalidAnswerShape, idx)
		}
	case models.QuestionTypeMultiple:
		indices, ok := answer.Indices()
		if !ok || len(indices) == 0 {
			return fmt.Errorf("%w: multiple-choice questions take a non-empty index set", ErrInvalidAnswerShape)
		}
		for _, idx := range indices {
			if idx < 0 || idx >= optionCount {
				return fmt.Errorf("%w: index %d out of range", ErrInvalidAnswerShape, idx)
			}
		}
	}
	return nil
}

func (s *QuestionService) Create(req *CreateQuestionRequest) (*models.Question, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateAnswerShape(req.Type, req.CorrectAnswer, len(req.Options)); err != nil {
		return nil, err
	}

	score := req.Score
	if score == 0 {
		score = 10
	}

	question := models.Question{
		Type:          req.Type,
		Text:          req.Text,
		Options:       models.StringSlice(req.Options),
		CorrectAnswer: req.CorrectAnswer,
		Score:         score,
		ImageURL:      req.ImageURL,
		AudioURL:      req.AudioURL,
		VideoURL:      req.VideoURL,
		CreatedBy:     req.CreatedBy,
	}

	if err := s.db.Create(&question).Error; err != nil {
		return nil, err
	}

	return &question, nil
}

func (s *QuestionService) GetByID(questionID uint) (*models.Question, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

// FindByIDs returns the questions that exist among ids; missing ids are
// simply absent from the result.
func (s *QuestionService) FindByIDs(ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return []models.Question{}, nil
	}
	var questions []models.Question
	if err := s.db.Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *QuestionService) List(limit, offset int) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&questions).Error
	return questions, err
}

func (s *QuestionService) Search(keyword, questionType string, limit, offset int) ([]models.Question, error) {
	query := s.db.Where("text LIKE ?", "%"+keyword+"%")
	if questionType != "" {
		query = query.Where("type = ?", questionType)
	}

	var questions []models.Question
	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&questions).Error
	return questions, err
}

func (s *QuestionService) Update(questionID uint, req *UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	question, err := s.GetByID(questionID)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		question.Type = *req.Type
	}
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Options != nil {
		question.Options = models.StringSlice(req.Options)
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Score != nil {
		question.Score = *req.Score
	}
	if req.ImageURL != nil {
		question.ImageURL = req.ImageURL
	}
	if req.AudioURL != nil {
		question.AudioURL = req.AudioURL
	}
	if req.VideoURL != nil {
		question.VideoURL = req.VideoURL
	}

	if err := validateAnswerShape(question.Type, question.CorrectAnswer, len(question.Options)); err != nil {
		return nil, err
	}

	if err := s.db.Save(question).Error; err != nil {
		return nil, err
	}

	return question, nil
}

func (s *QuestionService) Delete(questionID uint) error {
	result := s.db.Delete(&models.Question{}, questionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
