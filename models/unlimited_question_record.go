package models

import (
	"time"
)

// UnlimitedQuestionRecord is one answered question in a session's ledger.
// The set of question ids recorded here is the exclusion set for future
// batches, so a session never sees the same question twice.
type UnlimitedQuestionRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SessionID   uint      `json:"session_id" gorm:"not null;index"`
	QuestionID  uint      `json:"question_id" gorm:"not null"`
	UserAnswer  Answer    `json:"user_answer" gorm:"type:text"`
	IsCorrect   bool      `json:"is_correct" gorm:"not null"`
	ScoreChange int       `json:"score_change" gorm:"not null"` // 0 or -question score
	AnsweredAt  time.Time `json:"answered_at"`
}
