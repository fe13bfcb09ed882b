package models

import (
	"time"
)

// UnlimitedSession is a score-depleting practice run. CurrentScore only ever
// goes down, never below zero; the session ends when it hits zero or when the
// user ends it. At most one active session exists per user.
type UnlimitedSession struct {
	ID                     uint       `json:"id" gorm:"primaryKey"`
	UserID                 uint       `json:"user_id" gorm:"not null;index"`
	InitialScore           int        `json:"initial_score" gorm:"not null"`
	CurrentScore           int        `json:"current_score" gorm:"not null"`
	QuestionsPerRound      int        `json:"questions_per_round" gorm:"not null;default:5"`
	TotalQuestionsAnswered int        `json:"total_questions_answered" gorm:"not null;default:0"`
	TotalCorrect           int        `json:"total_correct" gorm:"not null;default:0"`
	IsActive               bool       `json:"is_active" gorm:"not null;default:true"`
	StartedAt              time.Time  `json:"started_at"`
	EndedAt                *time.Time `json:"ended_at"`
}
