package workouts

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// memStore is an in-memory Store. Transactions run on a copy of the data which
// replaces the original only when fn returns nil.
type memStore struct {
	*memQueries
	mu sync.Mutex
}

type memData struct {
	users    map[int]User
	sessions map[int]Session
	recs     map[int]Recommendation
	nextID   int
	// method name to error returned by it
	failures map[string]error
}

func newMemStore() *memStore {
	s := &memStore{}
	s.memQueries = &memQueries{
		d: &memData{
			users:    map[int]User{},
			sessions: map[int]Session{},
			recs:     map[int]Recommendation{},
			failures: map[string]error{},
		},
		mu: &s.mu,
	}
	return s
}

func (s *memStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.failures[method] = err
}

func (s *memStore) InTx(_ context.Context, fn func(tx Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := s.d.clone()
	if err := fn(&memQueries{d: clone}); err != nil {
		return err
	}
	s.d = clone
	return nil
}

func (d *memData) clone() *memData {
	c := &memData{
		users:    make(map[int]User, len(d.users)),
		sessions: make(map[int]Session, len(d.sessions)),
		recs:     make(map[int]Recommendation, len(d.recs)),
		nextID:   d.nextID,
		failures: d.failures,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.sessions {
		if v.Exercise.CompletedReps != nil {
			reps := *v.Exercise.CompletedReps
			v.Exercise.CompletedReps = &reps
		}
		c.sessions[k] = v
	}
	for k, v := range d.recs {
		c.recs[k] = v
	}
	return c
}

// memQueries holds mu only outside of transactions.
type memQueries struct {
	d  *memData
	mu *sync.Mutex
}

func (q *memQueries) lock() func() {
	if q.mu == nil {
		return func() {}
	}
	q.mu.Lock()
	return q.mu.Unlock
}

func (q *memQueries) id() int {
	q.d.nextID++
	return q.d.nextID
}

func (q *memQueries) CreateUser(_ context.Context, name string, email *string) (*User, error) {
	defer q.lock()()
	if err := q.d.failures["CreateUser"]; err != nil {
		return nil, err
	}
	if email != nil {
		for _, u := range q.d.users {
			if u.Email != nil && *u.Email == *email {
				return nil, ErrEmailTaken
			}
		}
	}
	u := User{ID: q.id(), Name: name, Email: email, CreatedAt: time.Now().UTC()}
	q.d.users[u.ID] = u
	return &u, nil
}

func (q *memQueries) GetUser(_ context.Context, id int) (*User, error) {
	defer q.lock()()
	if err := q.d.failures["GetUser"]; err != nil {
		return nil, err
	}
	u, ok := q.d.users[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &u, nil
}

func (q *memQueries) DeleteUser(_ context.Context, id int) error {
	defer q.lock()()
	if _, ok := q.d.users[id]; !ok {
		return ErrRecordNotFound
	}
	delete(q.d.users, id)
	delete(q.d.recs, id)
	for sid, s := range q.d.sessions {
		if s.UserID == id {
			delete(q.d.sessions, sid)
		}
	}
	return nil
}

func (q *memQueries) CountUsers(_ context.Context) (int, error) {
	defer q.lock()()
	return len(q.d.users), nil
}

func (q *memQueries) ListUsers(_ context.Context, page PageRequest) ([]UserSummary, error) {
	defer q.lock()()
	users := make([]UserSummary, 0, len(q.d.users))
	for _, u := range q.d.users {
		summary := UserSummary{User: u}
		for _, s := range q.d.sessions {
			if s.UserID == u.ID {
				summary.TotalWorkouts++
			}
		}
		users = append(users, summary)
	}
	slices.SortFunc(users, func(a, b UserSummary) int {
		var c int
		switch page.SortBy {
		case "name":
			c = cmp.Compare(a.Name, b.Name)
		case "id":
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if page.Order != OrderAsc {
			c = -c
		}
		return c
	})
	return window(users, page), nil
}

func (q *memQueries) CreateSession(_ context.Context, userID int, startedAt time.Time) (*Session, error) {
	defer q.lock()()
	if err := q.d.failures["CreateSession"]; err != nil {
		return nil, err
	}
	if _, ok := q.d.users[userID]; !ok {
		return nil, ErrRecordNotFound
	}
	for _, s := range q.d.sessions {
		if s.UserID == userID && s.Active {
			return nil, ErrActiveSessionExists
		}
	}
	s := Session{ID: q.id(), UserID: userID, StartedAt: startedAt, Active: true}
	q.d.sessions[s.ID] = s
	return &s, nil
}

func (q *memQueries) CreateExercise(_ context.Context, sessionID int, name string, assignedReps int) (*Exercise, error) {
	defer q.lock()()
	if err := q.d.failures["CreateExercise"]; err != nil {
		return nil, err
	}
	s, ok := q.d.sessions[sessionID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	s.Exercise = Exercise{
		ID:           q.id(),
		SessionID:    sessionID,
		Name:         name,
		AssignedReps: assignedReps,
		CreatedAt:    s.StartedAt,
	}
	q.d.sessions[sessionID] = s
	e := s.Exercise
	return &e, nil
}

func (q *memQueries) GetSession(_ context.Context, id int) (*Session, error) {
	defer q.lock()()
	return q.d.session(id)
}

func (q *memQueries) GetSessionForUpdate(_ context.Context, id int) (*Session, error) {
	defer q.lock()()
	return q.d.session(id)
}

func (d *memData) session(id int) (*Session, error) {
	if err := d.failures["GetSession"]; err != nil {
		return nil, err
	}
	s, ok := d.sessions[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if s.Exercise.CompletedReps != nil {
		reps := *s.Exercise.CompletedReps
		s.Exercise.CompletedReps = &reps
	}
	return &s, nil
}

func (q *memQueries) GetActiveSession(_ context.Context, userID int) (*Session, error) {
	defer q.lock()()
	for id, s := range q.d.sessions {
		if s.UserID == userID && s.Active {
			return q.d.session(id)
		}
	}
	return nil, ErrRecordNotFound
}

func (q *memQueries) UpdateCompletedReps(_ context.Context, sessionID, completedReps int) error {
	defer q.lock()()
	s, ok := q.d.sessions[sessionID]
	if !ok {
		return ErrRecordNotFound
	}
	s.Exercise.CompletedReps = &completedReps
	q.d.sessions[sessionID] = s
	return nil
}

func (q *memQueries) EndSession(_ context.Context, sessionID int, endedAt time.Time) error {
	defer q.lock()()
	s, ok := q.d.sessions[sessionID]
	if !ok || !s.Active {
		return ErrRecordNotFound
	}
	s.Active = false
	s.EndedAt = &endedAt
	q.d.sessions[sessionID] = s
	return nil
}

func (q *memQueries) filtered(filter SessionFilter) []Session {
	var sessions []Session
	for id, s := range q.d.sessions {
		if s.UserID != filter.UserID {
			continue
		}
		if filter.Status == StatusActive && !s.Active || filter.Status == StatusCompleted && s.Active {
			continue
		}
		copied, _ := q.d.session(id)
		sessions = append(sessions, *copied)
	}
	return sessions
}

func (q *memQueries) CountSessions(_ context.Context, filter SessionFilter) (int, error) {
	defer q.lock()()
	return len(q.filtered(filter)), nil
}

func (q *memQueries) ListSessions(_ context.Context, filter SessionFilter, page PageRequest) ([]Session, error) {
	defer q.lock()()
	sessions := q.filtered(filter)
	slices.SortFunc(sessions, func(a, b Session) int {
		var c int
		switch page.SortBy {
		case "ended_at":
			c = compareTimePtr(a.EndedAt, b.EndedAt)
		case "id":
		default:
			c = a.StartedAt.Compare(b.StartedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if page.Order != OrderAsc {
			c = -c
		}
		return c
	})
	return window(sessions, page), nil
}

func (q *memQueries) LastEndedSession(_ context.Context, userID int) (*Session, error) {
	defer q.lock()()
	ended := q.filtered(SessionFilter{UserID: userID, Status: StatusCompleted})
	if len(ended) == 0 {
		return nil, ErrRecordNotFound
	}
	last := slices.MaxFunc(ended, func(a, b Session) int {
		if c := compareTimePtr(a.EndedAt, b.EndedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &last, nil
}

func (q *memQueries) FirstEndedSession(_ context.Context, userID int) (*Session, error) {
	defer q.lock()()
	ended := q.filtered(SessionFilter{UserID: userID, Status: StatusCompleted})
	if len(ended) == 0 {
		return nil, ErrRecordNotFound
	}
	first := slices.MinFunc(ended, func(a, b Session) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &first, nil
}

func (q *memQueries) GetRecommendation(_ context.Context, userID int) (*Recommendation, error) {
	defer q.lock()()
	rec, ok := q.d.recs[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (q *memQueries) UpsertRecommendation(_ context.Context, userID, nextReps int, updatedAt time.Time) (*Recommendation, error) {
	defer q.lock()()
	if err := q.d.failures["UpsertRecommendation"]; err != nil {
		return nil, err
	}
	if _, ok := q.d.users[userID]; !ok {
		return nil, ErrRecordNotFound
	}
	rec := Recommendation{UserID: userID, NextRecommendedReps: nextReps, UpdatedAt: updatedAt}
	q.d.recs[userID] = rec
	return &rec, nil
}

// compareTimePtr orders nil (not ended) after any time, like NULLs in postgres ascending order.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func window[T any](items []T, page PageRequest) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}

// testClock hands out increasing timestamps, one minute apart.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}
