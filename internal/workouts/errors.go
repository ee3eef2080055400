package workouts

import (
	"errors"
	"fmt"
)

// Store level errors. Services translate them into domain errors.
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrActiveSessionExists = errors.New("active workout session already exists")
	ErrEmailTaken          = errors.New("email already taken")
)

type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindValidation ErrorKind = "validation"
)

const (
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeSessionNotFound     = "WORKOUT_SESSION_NOT_FOUND"
	CodeActiveSessionExists = "ACTIVE_SESSION_EXISTS"
	CodeSessionNotActive    = "SESSION_NOT_ACTIVE"
	CodeExerciseNotLogged   = "EXERCISE_NOT_LOGGED"
	CodeValidation          = "VALIDATION_ERROR"
)

// Error is a domain error. Anything else returned by this package is an internal failure.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Field   string
	// set only for CodeActiveSessionExists, when the conflicting session could be read
	ActiveSessionID *int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsError unwraps err into a domain error, if it is one.
func AsError(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

func IsKind(err error, kind ErrorKind) bool {
	domainErr, ok := AsError(err)
	return ok && domainErr.Kind == kind
}

func IsCode(err error, code string) bool {
	domainErr, ok := AsError(err)
	return ok && domainErr.Code == code
}

func NewUserNotFoundError(userID int) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("User with ID %d does not exist", userID),
		Field:   "user_id",
	}
}

func NewSessionNotFoundError(sessionID int) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("Workout session with ID %d does not exist", sessionID),
		Field:   "session_id",
	}
}

func NewActiveSessionExistsError(userID int, activeSessionID *int) *Error {
	msg := fmt.Sprintf("User %d already has an active workout session", userID)
	if activeSessionID != nil {
		msg = fmt.Sprintf("%s (ID: %d)", msg, *activeSessionID)
	}
	return &Error{
		Kind:            KindConflict,
		Code:            CodeActiveSessionExists,
		Message:         msg,
		Field:           "user_id",
		ActiveSessionID: activeSessionID,
	}
}

func NewSessionNotActiveError(sessionID int) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeSessionNotActive,
		Message: fmt.Sprintf("Workout session %d is not active", sessionID),
		Field:   "session_id",
	}
}

func NewExerciseNotLoggedError(sessionID int) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeExerciseNotLogged,
		Message: fmt.Sprintf("Cannot end session %d: exercise results not logged", sessionID),
		Field:   "session_id",
	}
}

func NewValidationError(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}
