package models

// ExamQuestion links a question into an exam at a 1-based position. An
// exam's question set is always replaced wholesale, never patched row by
// row.
type ExamQuestion struct {
	ID            uint `json:"id" gorm:"primaryKey"`
	ExamID        uint `json:"exam_id" gorm:"not null;index"`
	QuestionID    uint `json:"question_id" gorm:"not null"`
	QuestionOrder int  `json:"question_order" gorm:"not null"`
}
