package models

import (
	"time"
)

const (
	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
)

type Question struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	Type          string      `json:"type" gorm:"not null"` // single, multiple
	Text          string      `json:"question" gorm:"not null"`
	Options       StringSlice `json:"options" gorm:"type:text;not null"`
	CorrectAnswer Answer      `json:"correct_answer" gorm:"type:text;not null"`
	Score         int         `json:"score" gorm:"not null;default:10"`
	ImageURL      *string     `json:"image_url"`
	AudioURL      *string     `json:"audio_url"`
	VideoURL      *string     `json:"video_url"`
	CreatedBy     uint        `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
