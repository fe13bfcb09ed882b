package services

import (
	"errors"
)

// Service errors, grouped the way callers report them. Everything here is
// scoped to the single operation that produced it; callers match with
// errors.Is.
var (
	// not found
	ErrQuestionNotFound = errors.New("question not found")
	ErrExamNotFound     = errors.New("exam not found")
	ErrRecordNotFound   = errors.New("exam record not found")
	ErrSessionNotFound  = errors.New("session not found")

	// conflict
	ErrExamInactive        = errors.New("exam is not active")
	ErrAttemptExists       = errors.New("user has already taken this exam")
	ErrAlreadySubmitted    = errors.New("exam has already been submitted")
	ErrActiveSessionExists = errors.New("user already has an active session")
	ErrSessionEnded        = errors.New("session has ended")
	ErrExamHasRecords      = errors.New("exam has records and cannot be deleted")

	// forbidden
	ErrNotOwner = errors.New("caller does not own this resource")

	// invalid input
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoQuestions         = errors.New("question list must not be empty")
	ErrInvalidInitialScore = errors.New("initial score must be greater than zero")
	ErrInvalidAnswerShape  = errors.New("answer shape does not match question type")
)
