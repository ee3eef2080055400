package workouts

import (
	"context"
	"time"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// PageRequest selects a window of a sorted listing. Offset is zero based.
// Page is one based and, when set, takes precedence over Offset.
type PageRequest struct {
	Offset int
	Page   int
	Limit  int
	SortBy string
	Order  SortOrder
}

// Queries are the record level operations of the store. Not found lookups return
// ErrRecordNotFound.
type Queries interface {
	CreateUser(ctx context.Context, name string, email *string) (*User, error)
	GetUser(ctx context.Context, id int) (*User, error)
	DeleteUser(ctx context.Context, id int) error
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context, page PageRequest) ([]UserSummary, error)

	// CreateSession returns ErrActiveSessionExists when the user already has an active session.
	CreateSession(ctx context.Context, userID int, startedAt time.Time) (*Session, error)
	CreateExercise(ctx context.Context, sessionID int, name string, assignedReps int) (*Exercise, error)
	GetSession(ctx context.Context, id int) (*Session, error)
	// GetSessionForUpdate locks the session row until the surrounding transaction ends.
	GetSessionForUpdate(ctx context.Context, id int) (*Session, error)
	GetActiveSession(ctx context.Context, userID int) (*Session, error)
	UpdateCompletedReps(ctx context.Context, sessionID, completedReps int) error
	EndSession(ctx context.Context, sessionID int, endedAt time.Time) error
	CountSessions(ctx context.Context, filter SessionFilter) (int, error)
	ListSessions(ctx context.Context, filter SessionFilter, page PageRequest) ([]Session, error)
	// LastEndedSession orders by ended_at DESC, id DESC.
	LastEndedSession(ctx context.Context, userID int) (*Session, error)
	// FirstEndedSession orders by started_at ASC, id ASC.
	FirstEndedSession(ctx context.Context, userID int) (*Session, error)

	GetRecommendation(ctx context.Context, userID int) (*Recommendation, error)
	UpsertRecommendation(ctx context.Context, userID, nextReps int, updatedAt time.Time) (*Recommendation, error)
}

// Store is the persistent store. InTx runs fn in a single transaction, committed
// when fn returns nil and rolled back otherwise.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(tx Queries) error) error
}
