package models

import (
	"time"
)

// ExamRecord is one user's single pass through one exam. The composite
// unique index is the storage-level guarantee behind the one-attempt rule;
// the services pre-check it too, but the index closes the race.
type ExamRecord struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	UserID          uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_exam_records_user_exam"`
	ExamID          uint       `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_records_user_exam"`
	Answers         AnswerMap  `json:"answers" gorm:"type:text"`
	TotalScore      int        `json:"total_score" gorm:"not null;default:0"`
	CorrectCount    int        `json:"correct_count" gorm:"not null;default:0"`
	TotalQuestions  int        `json:"total_questions" gorm:"not null;default:0"`
	StartedAt       time.Time  `json:"started_at"`
	SubmittedAt     *time.Time `json:"submitted_at"` // null while in progress
	DurationSeconds int        `json:"duration_seconds" gorm:"not null;default:0"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
