package services

import (
	"errors"
	"math"
	"time"

	"examcore/models"

	"gorm.io/gorm"
)

// AttemptService runs the exam attempt lifecycle: not-started → in-progress →
// submitted, one attempt per user per exam, no way back.
type AttemptService struct {
	db    *gorm.DB
	exams *ExamService
}

func NewAttemptService(db *gorm.DB, exams *ExamService) *AttemptService {
	return &AttemptService{db: db, exams: exams}
}

// QuestionView is a question as served to an examinee: everything except the
// correct answer.
type QuestionView struct {
	ID       uint     `json:"id"`
	Type     string   `json:"type"`
	Text     string   `json:"question"`
	Options  []string `json:"options"`
	Score    int      `json:"score"`
	ImageURL *string  `json:"image_url"`
	AudioURL *string  `json:"audio_url"`
	VideoURL *string  `json:"video_url"`
}

func newQuestionView(q models.Question) QuestionView {
	return QuestionView{
		ID:       q.ID,
		Type:     q.Type,
		Text:     q.Text,
		Options:  []string(q.Options),
		Score:    q.Score,
		ImageURL: q.ImageURL,
		AudioURL: q.AudioURL,
		VideoURL: q.VideoURL,
	}
}

// ExamView is the answer-stripped exam an examinee sees after starting.
type ExamView struct {
	ID                 uint           `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Duration           int            `json:"duration"`
	ScoringMode        string         `json:"scoring_mode"`
	TotalScore         int            `json:"total_score"`
	RandomizeQuestions bool           `json:"randomize_questions"`
	Questions          []QuestionView `json:"questions"`
}

type StartResult struct {
	RecordID uint      `json:"record_id"`
	Exam     *ExamView `json:"exam"`
}

// Start opens an attempt. The pre-check gives the caller a clean conflict;
// the unique (user, exam) index closes the race when two starts interleave.
func (s *AttemptService) Start(userID, examID uint) (*StartResult, error) {
	detail, err := s.exams.Get(examID)
	if err != nil {
		return nil, err
	}
	if !detail.IsActive {
		return nil, ErrExamInactive
	}

	taken, err := s.exams.HasUserTaken(userID, examID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAttemptExists
	}

	record := models.ExamRecord{
		UserID:    userID,
		ExamID:    examID,
		Answers:   models.AnswerMap{},
		StartedAt: time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAttemptExists
		}
		return nil, err
	}

	view := &ExamView{
		ID:                 detail.ID,
		Title:              detail.Title,
		Description:        detail.Description,
		Duration:           detail.Duration,
		ScoringMode:        detail.ScoringMode,
		TotalScore:         detail.TotalScore,
		RandomizeQuestions: detail.RandomizeQuestions,
		Questions:          make([]QuestionView, 0, len(detail.Questions)),
	}
	for _, q := range detail.Questions {
		view.Questions = append(view.Questions, newQuestionView(q))
	}

	return &StartResult{RecordID: record.ID, Exam: view}, nil
}

// QuestionResult is the per-question line of a submission breakdown.
type QuestionResult struct {
	QuestionID    uint          `json:"question_id"`
	UserAnswer    models.Answer `json:"user_answer"`
	CorrectAnswer models.Answer `json:"correct_answer"`
	IsCorrect     bool          `json:"is_correct"`
	Score         int           `json:"score"`
}

type SubmitResult struct {
	RecordID        uint             `json:"record_id"`
	TotalScore      int              `json:"total_score"`
	CorrectCount    int              `json:"correct_count"`
	TotalQuestions  int              `json:"total_questions"`
	Results         []QuestionResult `json:"results"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	DurationSeconds int              `json:"duration_seconds"`
	ScoringMode     string           `json:"scoring_mode"`
}

// questionDelta maps one question's correctness to its score contribution
// under a scoring mode. Modes without a rule of their own tally like add.
func questionDelta(scoringMode string, isCorrect bool, score int) int {
	switch scoringMode {
	case models.ScoringModeSubtract:
		if isCorrect {
			return score
		}
		return -score
	default:
		if isCorrect {
			return score
		}
		return 0
	}
}

// Submit finalizes an attempt: grades every question in the exam's stored
// order, applies the exam's scoring mode and persists the whole outcome in
// one conditional update so a record can only ever be submitted once.
func (s *AttemptService) Submit(userID, recordID uint, answers models.AnswerMap) (*SubmitResult, error) {
	var record models.ExamRecord
	if err := s.db.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrNotOwner
	}
	if record.SubmittedAt != nil {
		return nil, ErrAlreadySubmitted
	}

	detail, err := s.exams.getStoredOrder(record.ExamID)
	if err != nil {
		return nil, err
	}

	rawScore := 0
	correctCount := 0
	results := make([]QuestionResult, 0, len(detail.Questions))

	for _, question := range detail.Questions {
		userAnswer := answers[question.ID]
		isCorrect := IsAnswerCorrect(question.Type, question.CorrectAnswer, userAnswer)
		if isCorrect {
			correctCount++
		}

		delta := questionDelta(detail.ScoringMode, isCorrect, question.Score)
		rawScore += delta

		results = append(results, QuestionResult{
			QuestionID:    question.ID,
			UserAnswer:    userAnswer,
			CorrectAnswer: question.CorrectAnswer,
			IsCorrect:     isCorrect,
			Score:         delta,
		})
	}

	totalScore := rawScore
	if detail.ScoringMode == models.ScoringModeSubtract {
		// The raw delta moves the exam total; it never goes below zero.
		totalScore = detail.TotalScore + rawScore
		if totalScore < 0 {
			totalScore = 0
		}
	}

	submittedAt := time.Now()
	durationSeconds := int(submittedAt.Sub(record.StartedAt).Seconds())

	result := s.db.Model(&models.ExamRecord{}).
		Where("id = ? AND submitted_at IS NULL", record.ID).
		Updates(map[string]interface{}{
			"answers":          answers,
			"total_score":      totalScore,
			"correct_count":    correctCount,
			"total_questions":  len(detail.Questions),
			"submitted_at":     submittedAt,
			"duration_seconds": durationSeconds,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadySubmitted
	}

	return &SubmitResult{
		RecordID:        record.ID,
		TotalScore:      totalScore,
		CorrectCount:    correctCount,
		TotalQuestions:  len(detail.Questions),
		Results:         results,
		SubmittedAt:     submittedAt,
		DurationSeconds: durationSeconds,
		ScoringMode:     detail.ScoringMode,
	}, nil
}

func (s *AttemptService) GetRecord(recordID uint) (*models.ExamRecord, error) {
	var record models.ExamRecord
	if err := s.db.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// RecordSummary is a history row: the record plus the exam facts the history
// screen shows next to it.
type RecordSummary struct {
	ID              uint       `json:"id"`
	ExamID          uint       `json:"exam_id"`
	ExamTitle       string     `json:"exam_title"`
	ExamTotalScore  int        `json:"exam_total_score"`
	TotalScore      int        `json:"total_score"`
	CorrectCount    int        `json:"correct_count"`
	TotalQuestions  int        `json:"total_questions"`
	StartedAt       time.Time  `json:"started_at"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	DurationSeconds int        `json:"duration_seconds"`
}

// UserHistory lists a user's records, most recent submission first.
func (s *AttemptService) UserHistory(userID uint, limit, offset int) ([]RecordSummary, error) {
	var rows []RecordSummary
	err := s.db.Table("exam_records").
		Select(`exam_records.id, exam_records.exam_id,
			exams.title AS exam_title, exams.total_score AS exam_total_score,
			exam_records.total_score, exam_records.correct_count,
			exam_records.total_questions, exam_records.started_at,
			exam_records.submitted_at, exam_records.duration_seconds`).
		Joins("JOIN exams ON exams.id = exam_records.exam_id").
		Where("exam_records.user_id = ?", userID).
		Order("exam_records.submitted_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LeaderboardEntry ranks submitted records: highest score first, earlier
// submission winning ties.
type LeaderboardEntry struct {
	RecordID        uint       `json:"record_id"`
	UserID          uint       `json:"user_id"`
	TotalScore      int        `json:"total_score"`
	CorrectCount    int        `json:"correct_count"`
	TotalQuestions  int        `json:"total_questions"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	DurationSeconds int        `json:"duration_seconds"`
}

func (s *AttemptService) Leaderboard(examID uint, limit, offset int) ([]LeaderboardEntry, error) {
	var rows []LeaderboardEntry
	err := s.db.Table("exam_records").
		Select(`exam_records.id AS record_id, exam_records.user_id,
			exam_records.total_score, exam_records.correct_count,
			exam_records.total_questions, exam_records.submitted_at,
			exam_records.duration_seconds`).
		Where("exam_records.exam_id = ? AND exam_records.submitted_at IS NOT NULL", examID).
		Order("exam_records.total_score DESC, exam_records.submitted_at ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReviewResult pairs a full question with what the user answered, for the
// post-exam review screen.
type ReviewResult struct {
	Question   models.Question `json:"question"`
	UserAnswer models.Answer   `json:"user_answer"`
	IsCorrect  bool            `json:"is_correct"`
	Score      int             `json:"score"`
}

type DetailedResult struct {
	Record         *models.ExamRecord `json:"record"`
	Exam           *models.Exam       `json:"exam"`
	Results        []ReviewResult     `json:"results"`
	CorrectCount   int                `json:"correct_count"`
	TotalQuestions int                `json:"total_questions"`
	Accuracy       int                `json:"accuracy"` // whole percent
}

// DetailedResult rebuilds a per-question breakdown from the stored answers
// and the exam's current question set. Correctness is re-derived; the stored
// total is not re-scored.
func (s *AttemptService) DetailedResult(recordID uint) (*DetailedResult, error) {
	record, err := s.GetRecord(recordID)
	if err != nil {
		return nil, err
	}

	detail, err := s.exams.getStoredOrder(record.ExamID)
	if err != nil {
		return nil, err
	}

	results := make([]ReviewResult, 0, len(detail.Questions))
	correctCount := 0

	for _, question := range detail.Questions {
		userAnswer := record.Answers[question.ID]
		isCorrect := IsAnswerCorrect(question.Type, question.CorrectAnswer, userAnswer)
		if isCorrect {
			correctCount++
		}
		score := 0
		if isCorrect {
			score = question.Score
		}
		results = append(results, ReviewResult{
			Question:   question,
			UserAnswer: userAnswer,
			IsCorrect:  isCorrect,
			Score:      score,
		})
	}

	return &DetailedResult{
		Record:         record,
		Exam:           &detail.Exam,
		Results:        results,
		CorrectCount:   correctCount,
		TotalQuestions: len(detail.Questions),
		Accuracy:       accuracyPercent(correctCount, len(detail.Questions)),
	}, nil
}

// accuracyPercent is correct/answered as a whole percent, rounded, zero when
// nothing was answered.
func accuracyPercent(correct, answered int) int {
	if answered == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(answered) * 100))
}
