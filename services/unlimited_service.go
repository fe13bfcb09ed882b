package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"examcore/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UnlimitedService runs the score-depleting practice sessions. The database
// is authoritative; Redis only caches a snapshot of the active session so the
// hot "where am I" lookup skips the store. A nil Redis client disables the
// cache.
type UnlimitedService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewUnlimitedService(db *gorm.DB, redis *redis.Client) *UnlimitedService {
	return &UnlimitedService{db: db, redis: redis}
}

type CreateSessionRequest struct {
	UserID            uint `json:"user_id"`
	InitialScore      int  `json:"initial_score"`
	QuestionsPerRound int  `json:"questions_per_round"`
}

// CreateSession opens a session with the full score pool. The insert is one
// conditional statement: it lands only when no active session exists for the
// user, so concurrent creates cannot both win.
func (s *UnlimitedService) CreateSession(req *CreateSessionRequest) (*models.UnlimitedSession, error) {
	if req.InitialScore <= 0 {
		return nil, ErrInvalidInitialScore
	}
	perRound := req.QuestionsPerRound
	if perRound <= 0 {
		perRound = 5
	}

	result := s.db.Exec(`INSERT INTO unlimited_sessions
		(user_id, initial_score, current_score, questions_per_round,
		 total_questions_answered, total_correct, is_active, started_at)
		SELECT ?, ?, ?, ?, 0, 0, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM unlimited_sessions WHERE user_id = ? AND is_active = ?)`,
		req.UserID, req.InitialScore, req.InitialScore, perRound,
		true, time.Now(), req.UserID, true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrActiveSessionExists
	}

	session, err := s.activeSessionFromDB(req.UserID)
	if err != nil {
		return nil, err
	}
	s.storeSessionState(session)
	return session, nil
}

// ActiveSession returns the user's active session, nil when there is none.
func (s *UnlimitedService) ActiveSession(userID uint) (*models.UnlimitedSession, error) {
	if cached := s.getSessionState(userID); cached != nil {
		return cached, nil
	}
	session, err := s.activeSessionFromDB(userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.storeSessionState(session)
	return session, nil
}

func (s *UnlimitedService) activeSessionFromDB(userID uint) (*models.UnlimitedSession, error) {
	var session models.UnlimitedSession
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *UnlimitedService) GetSession(sessionID uint) (*models.UnlimitedSession, error) {
	var session models.UnlimitedSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ownedSession loads a session and checks the caller owns it. Callers that
// mutate additionally require it active.
func (s *UnlimitedService) ownedSession(userID, sessionID uint) (*models.UnlimitedSession, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotOwner
	}
	return session, nil
}

// NextQuestions draws count random questions the session has never seen:
// everything already in the session's ledger is excluded. An empty result
// means the pool is exhausted; the caller treats that as the end of the run.
func (s *UnlimitedService) NextQuestions(userID, sessionID uint, count int) ([]QuestionView, error) {
	session, err := s.ownedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionEnded
	}
	if count <= 0 {
		count = session.QuestionsPerRound
	}

	var answeredIDs []uint
	err = s.db.Model(&models.UnlimitedQuestionRecord{}).
		Where("session_id = ?", sessionID).
		Distinct().
		Pluck("question_id", &answeredIDs).Error
	if err != nil {
		return nil, err
	}

	query := s.db.Order("RANDOM()").Limit(count)
	if len(answeredIDs) > 0 {
		query = query.Where("id NOT IN ?", answeredIDs)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, newQuestionView(q))
	}
	return views, nil
}

// UnlimitedAnswerResult is what one answer did to the session. The correct
// answer is safe to reveal once the answer is in.
type UnlimitedAnswerResult struct {
	IsCorrect     bool          `json:"is_correct"`
	ScoreChange   int           `json:"score_change"`
	NewScore      int           `json:"new_score"`
	SessionEnded  bool          `json:"session_ended"`
	CorrectAnswer models.Answer `json:"correct_answer"`
	TotalAnswered int           `json:"total_answered"`
	TotalCorrect  int           `json:"total_correct"`
}

// SubmitAnswer applies the elimination rule: a correct answer costs nothing,
// a wrong one subtracts the question's score, floored at zero. Ledger row and
// session counters commit together; hitting exactly zero ends the session in
// the same transaction.
func (s *UnlimitedService) SubmitAnswer(userID, sessionID, questionID uint, answer models.Answer) (*UnlimitedAnswerResult, error) {
	session, err := s.ownedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionEnded
	}

	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	isCorrect := IsAnswerCorrect(question.Type, question.CorrectAnswer, answer)

	scoreChange := 0
	if !isCorrect {
		scoreChange = -question.Score
	}
	newScore := session.CurrentScore + scoreChange
	if newScore < 0 {
		newScore = 0
	}
	ended := newScore == 0

	newTotalAnswered := session.TotalQuestionsAnswered + 1
	newTotalCorrect := session.TotalCorrect
	if isCorrect {
		newTotalCorrect++
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	record := models.UnlimitedQuestionRecord{
		SessionID:   sessionID,
		QuestionID:  questionID,
		UserAnswer:  answer,
		IsCorrect:   isCorrect,
		ScoreChange: scoreChange,
		AnsweredAt:  time.Now(),
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{
		"current_score":            newScore,
		"total_questions_answered": newTotalAnswered,
		"total_correct":            newTotalCorrect,
	}
	if ended {
		updates["is_active"] = false
		updates["ended_at"] = time.Now()
	}

	// Conditional on is_active so a concurrently ended session rejects the
	// answer instead of resurrecting.
	result := tx.Model(&models.UnlimitedSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrSessionEnded
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if ended {
		s.clearSessionState(userID)
	} else {
		session.CurrentScore = newScore
		session.TotalQuestionsAnswered = newTotalAnswered
		session.TotalCorrect = newTotalCorrect
		s.storeSessionState(session)
	}

	return &UnlimitedAnswerResult{
		IsCorrect:     isCorrect,
		ScoreChange:   scoreChange,
		NewScore:      newScore,
		SessionEnded:  ended,
		CorrectAnswer: question.CorrectAnswer,
		TotalAnswered: newTotalAnswered,
		TotalCorrect:  newTotalCorrect,
	}, nil
}

// EndSession closes the session. Ending an already-ended session is a no-op.
func (s *UnlimitedService) EndSession(userID, sessionID uint) error {
	session, err := s.ownedSession(userID, sessionID)
	if err != nil {
		return err
	}
	if !session.IsActive {
		return nil
	}

	err = s.db.Model(&models.UnlimitedSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  time.Now(),
		}).Error
	if err != nil {
		return err
	}

	s.clearSessionState(userID)
	return nil
}

// SessionRecord is one ledger row joined with the question it answered.
type SessionRecord struct {
	ID            uint          `json:"id"`
	QuestionID    uint          `json:"question_id"`
	QuestionText  string        `json:"question"`
	QuestionType  string        `json:"type"`
	QuestionScore int           `json:"score"`
	UserAnswer    models.Answer `json:"user_answer"`
	IsCorrect     bool          `json:"is_correct"`
	ScoreChange   int           `json:"score_change"`
	AnsweredAt    time.Time     `json:"answered_at"`
}

type SessionStats struct {
	Session  *models.UnlimitedSession `json:"session"`
	Records  []SessionRecord          `json:"records"`
	Accuracy int                      `json:"accuracy"` // whole percent
}

func (s *UnlimitedService) SessionStats(userID, sessionID uint) (*SessionStats, error) {
	session, err := s.ownedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	var records []SessionRecord
	err = s.db.Table("unlimited_question_records").
		Select(`unlimited_question_records.id, unlimited_question_records.question_id,
			questions.text AS question_text, questions.type AS question_type,
			questions.score AS question_score,
			unlimited_question_records.user_answer, unlimited_question_records.is_correct,
			unlimited_question_records.score_change, unlimited_question_records.answered_at`).
		Joins("JOIN questions ON questions.id = unlimited_question_records.question_id").
		Where("unlimited_question_records.session_id = ?", sessionID).
		Order("unlimited_question_records.answered_at").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	return &SessionStats{
		Session:  session,
		Records:  records,
		Accuracy: accuracyPercent(session.TotalCorrect, session.TotalQuestionsAnswered),
	}, nil
}

// UserUnlimitedStats aggregates a user's lifetime unlimited-mode play.
type UserUnlimitedStats struct {
	TotalSessions     int `json:"total_sessions"`
	CompletedSessions int `json:"completed_sessions"`
	TotalQuestions    int `json:"total_questions"`
	TotalCorrect      int `json:"total_correct"`
	AvgAccuracy       int `json:"avg_accuracy"` // whole percent
}

func (s *UnlimitedService) UserStats(userID uint) (*UserUnlimitedStats, error) {
	var totalSessions, completedSessions int64
	if err := s.db.Model(&models.UnlimitedSession{}).Where("user_id = ?", userID).Count(&totalSessions).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.UnlimitedSession{}).Where("user_id = ? AND is_active = ?", userID, false).Count(&completedSessions).Error; err != nil {
		return nil, err
	}

	var sums struct {
		TotalQuestions int
		TotalCorrect   int
	}
	err := s.db.Model(&models.UnlimitedSession{}).
		Select(`COALESCE(SUM(total_questions_answered), 0) AS total_questions,
			COALESCE(SUM(total_correct), 0) AS total_correct`).
		Where("user_id = ?", userID).
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	return &UserUnlimitedStats{
		TotalSessions:     int(totalSessions),
		CompletedSessions: int(completedSessions),
		TotalQuestions:    sums.TotalQuestions,
		TotalCorrect:      sums.TotalCorrect,
		AvgAccuracy:       accuracyPercent(sums.TotalCorrect, sums.TotalQuestions),
	}, nil
}

// UserSessions lists a user's sessions, newest first.
func (s *UnlimitedService) UserSessions(userID uint, limit, offset int) ([]models.UnlimitedSession, error) {
	var sessions []models.UnlimitedSession
	err := s.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	return sessions, err
}

func sessionStateKey(userID uint) string {
	return fmt.Sprintf("unlimited:user:%d", userID)
}

func (s *UnlimitedService) storeSessionState(session *models.UnlimitedSession) {
	if s.redis == nil || session == nil {
		return
	}

	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("Failed to marshal session state for user %d: %v", session.UserID, err)
		return
	}

	// Expiration keeps stale snapshots from outliving abandoned sessions.
	if err := s.redis.Set(context.Background(), sessionStateKey(session.UserID), data, 2*time.Hour).Err(); err != nil {
		log.Printf("Failed to store session state for user %d: %v", session.UserID, err)
	}
}

func (s *UnlimitedService) getSessionState(userID uint) *models.UnlimitedSession {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(context.Background(), sessionStateKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis error getting session state for user %d: %v", userID, err)
		}
		return nil
	}

	var session models.UnlimitedSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		log.Printf("Failed to unmarshal session state for user %d: %v", userID, err)
		return nil
	}
	return &session
}

func (s *UnlimitedService) clearSessionState(userID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), sessionStateKey(userID)).Err(); err != nil {
		log.Printf("Failed to clear session state for user %d: %v", userID, err)
	}
}
