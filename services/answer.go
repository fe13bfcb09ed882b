package services

import (
	"examcore/models"
)

// IsAnswerCorrect compares a submitted answer against a question's stored
// correct answer. Single-choice questions match on the exact index; a set
// containing only the correct index does not count. Multiple-choice questions
// match when the submitted set has the same size as the correct set and every
// submitted index is a member of it, in any order. Submitted duplicates are
// not deduplicated, so membership plus size is the whole rule.
func IsAnswerCorrect(questionType string, correct, submitted models.Answer) bool {
	switch questionType {
	case models.QuestionTypeSingle:
		ci, ok := correct.Index()
		if !ok {
			return false
		}
		si, ok := submitted.Index()
		return ok && si == ci
	case models.QuestionTypeMultiple:
		cs, ok := correct.Indices()
		if !ok {
			return false
		}
		ss, ok := submitted.Indices()
		if !ok || len(ss) != len(cs) {
			return false
		}
		for _, idx := range ss {
			if !correct.Contains(idx) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
