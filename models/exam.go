package models

import (
	"time"
)

const (
	ScoringModeAdd      = "add"
	ScoringModeSubtract = "subtract"
	// ScoringModeUnlimited is accepted on exams but carries no attempt-level
	// scoring rule of its own; attempts score it like add.
	ScoringModeUnlimited = "unlimited"
)

type Exam struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Title              string    `json:"title" gorm:"not null"`
	Description        string    `json:"description"`
	Duration           int       `json:"duration" gorm:"not null;default:60"` // minutes, informational
	ScoringMode        string    `json:"scoring_mode" gorm:"not null;default:'add'"`
	TotalScore         int       `json:"total_score" gorm:"not null;default:0"`
	IsActive           bool      `json:"is_active" gorm:"not null;default:true"`
	RandomizeQuestions bool      `json:"randomize_questions" gorm:"not null;default:false"`
	CreatedBy          uint      `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
