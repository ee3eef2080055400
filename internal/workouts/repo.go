package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/repcoach/internal/telemetry/tracing"
	"github.com/2beens/repcoach/pkg"
)

const (
	constraintOneActiveSession = "workout_session_one_active_per_user"
	constraintUserEmail        = "app_user_email_key"
)

var (
	userSortColumns = map[string]string{
		"created_at": "u.created_at",
		"name":       "u.name",
		"id":         "u.id",
	}
	sessionSortColumns = map[string]string{
		"started_at": "s.started_at",
		"ended_at":   "s.ended_at",
		"id":         "s.id",
	}
)

const sessionColumns = `
	s.id, s.user_id, s.started_at, s.ended_at, s.is_active,
	e.id, e.exercise_name, e.assigned_reps, e.completed_reps, e.created_at`

// dbtx is satisfied by both the pool and a pgx transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo is the postgres backed Store.
type Repo struct {
	*queries
	pool *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		queries: &queries{db: db},
		pool:    db,
	}
}

func (r *Repo) InTx(ctx context.Context, fn func(tx Queries) error) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.tx")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	return fn(&queries{db: tx})
}

type queries struct {
	db dbtx
}

func (q *queries) CreateUser(ctx context.Context, name string, email *string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user := &User{}
	err = q.db.QueryRow(ctx, `
		INSERT INTO app_user (name, email)
		VALUES ($1, $2)
		RETURNING id, name, email, created_at
	`, name, email).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if constraint, ok := pkg.ViolatedConstraint(err); ok && constraint == constraintUserEmail {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (q *queries) GetUser(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	user := &User{}
	err = q.db.QueryRow(ctx, `
		SELECT id, name, email, created_at
		FROM app_user
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return user, nil
}

func (q *queries) DeleteUser(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.users.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	tag, err := q.db.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (q *queries) CountUsers(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.users.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (q *queries) ListUsers(ctx context.Context, page PageRequest) (_ []UserSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.users.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("offset", page.Offset),
		attribute.Int("limit", page.Limit),
		attribute.String("sort_by", page.SortBy),
	)

	orderBy := orderByClause(userSortColumns, "u.created_at", "u.id", page)
	rows, err := q.db.Query(ctx, fmt.Sprintf(`
		SELECT u.id, u.name, u.email, u.created_at, COUNT(s.id)
		FROM app_user u
		LEFT JOIN workout_session s ON s.user_id = u.id
		GROUP BY u.id
		ORDER BY %s
		LIMIT $1 OFFSET $2
	`, orderBy), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]UserSummary, 0, page.Limit)
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.TotalWorkouts); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (q *queries) CreateSession(ctx context.Context, userID int, startedAt time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	session := &Session{}
	err = q.db.QueryRow(ctx, `
		INSERT INTO workout_session (user_id, started_at, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id, user_id, started_at, ended_at, is_active
	`, userID, startedAt).Scan(
		&session.ID, &session.UserID, &session.StartedAt, &session.EndedAt, &session.Active,
	)
	if err != nil {
		if constraint, ok := pkg.ViolatedConstraint(err); ok && constraint == constraintOneActiveSession {
			return nil, ErrActiveSessionExists
		}
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return session, nil
}

func (q *queries) CreateExercise(ctx context.Context, sessionID int, name string, assignedReps int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.exercises.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	exercise := &Exercise{}
	err = q.db.QueryRow(ctx, `
		INSERT INTO exercise (session_id, exercise_name, assigned_reps)
		VALUES ($1, $2, $3)
		RETURNING id, session_id, exercise_name, assigned_reps, completed_reps, created_at
	`, sessionID, name, assignedReps).Scan(
		&exercise.ID, &exercise.SessionID, &exercise.Name,
		&exercise.AssignedReps, &exercise.CompletedReps, &exercise.CreatedAt,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return exercise, nil
}

func (q *queries) GetSession(ctx context.Context, id int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", id))

	return q.selectSession(ctx, `WHERE s.id = $1`, id)
}

func (q *queries) GetSessionForUpdate(ctx context.Context, id int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.getforupdate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", id))

	return q.selectSession(ctx, `WHERE s.id = $1 FOR UPDATE OF s, e`, id)
}

func (q *queries) GetActiveSession(ctx context.Context, userID int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.getactive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	return q.selectSession(ctx, `WHERE s.user_id = $1 AND s.is_active`, userID)
}

func (q *queries) LastEndedSession(ctx context.Context, userID int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.lastended")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	return q.selectSession(ctx, `
		WHERE s.user_id = $1 AND NOT s.is_active
		ORDER BY s.ended_at DESC, s.id DESC
		LIMIT 1
	`, userID)
}

func (q *queries) FirstEndedSession(ctx context.Context, userID int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.firstended")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	return q.selectSession(ctx, `
		WHERE s.user_id = $1 AND NOT s.is_active
		ORDER BY s.started_at ASC, s.id ASC
		LIMIT 1
	`, userID)
}

func (q *queries) selectSession(ctx context.Context, where string, args ...any) (*Session, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM workout_session s
		JOIN exercise e ON e.session_id = s.id
		`+where, args...)
	session, err := scanSession(row)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return session, nil
}

func (q *queries) UpdateCompletedReps(ctx context.Context, sessionID, completedReps int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.exercises.updatecompleted")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	tag, err := q.db.Exec(ctx, `
		UPDATE exercise
		SET completed_reps = $1
		WHERE session_id = $2
	`, completedReps, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (q *queries) EndSession(ctx context.Context, sessionID int, endedAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.end")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	tag, err := q.db.Exec(ctx, `
		UPDATE workout_session
		SET ended_at = $1, is_active = FALSE
		WHERE id = $2 AND is_active
	`, endedAt, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (q *queries) CountSessions(ctx context.Context, filter SessionFilter) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", filter.UserID),
		attribute.String("status", string(filter.Status)),
	)

	var count int
	err = q.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM workout_session s
		WHERE s.user_id = $1
		  AND ($2::boolean IS NULL OR s.is_active = $2)
	`, filter.UserID, activeFilterArg(filter.Status)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (q *queries) ListSessions(ctx context.Context, filter SessionFilter, page PageRequest) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.sessions.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", filter.UserID),
		attribute.String("status", string(filter.Status)),
		attribute.Int("offset", page.Offset),
		attribute.Int("limit", page.Limit),
		attribute.String("sort_by", page.SortBy),
	)

	orderBy := orderByClause(sessionSortColumns, "s.started_at", "s.id", page)
	rows, err := q.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM workout_session s
		JOIN exercise e ON e.session_id = s.id
		WHERE s.user_id = $1
		  AND ($2::boolean IS NULL OR s.is_active = $2)
		ORDER BY %s
		LIMIT $3 OFFSET $4
	`, sessionColumns, orderBy), filter.UserID, activeFilterArg(filter.Status), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]Session, 0, page.Limit)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (q *queries) GetRecommendation(ctx context.Context, userID int) (_ *Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.recommendations.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rec := &Recommendation{}
	err = q.db.QueryRow(ctx, `
		SELECT user_id, next_recommended_reps, updated_at
		FROM workout_recommendation
		WHERE user_id = $1
	`, userID).Scan(&rec.UserID, &rec.NextRecommendedReps, &rec.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return rec, nil
}

func (q *queries) UpsertRecommendation(ctx context.Context, userID, nextReps int, updatedAt time.Time) (_ *Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.recommendations.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.Int("next_reps", nextReps),
	)

	rec := &Recommendation{}
	err = q.db.QueryRow(ctx, `
		INSERT INTO workout_recommendation (user_id, next_recommended_reps, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET next_recommended_reps = EXCLUDED.next_recommended_reps,
		    updated_at = EXCLUDED.updated_at
		RETURNING user_id, next_recommended_reps, updated_at
	`, userID, nextReps, updatedAt).Scan(&rec.UserID, &rec.NextRecommendedReps, &rec.UpdatedAt)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanSession(row pgx.Row) (*Session, error) {
	s := &Session{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.Active,
		&s.Exercise.ID, &s.Exercise.Name, &s.Exercise.AssignedReps,
		&s.Exercise.CompletedReps, &s.Exercise.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Exercise.SessionID = s.ID
	return s, nil
}

// orderByClause builds the ORDER BY from whitelisted columns only, with tieBreak as secondary order.
func orderByClause(columns map[string]string, defaultColumn, tieBreak string, page PageRequest) string {
	column, ok := columns[page.SortBy]
	if !ok {
		column = defaultColumn
	}
	direction := "DESC"
	if page.Order == OrderAsc {
		direction = "ASC"
	}
	if column == tieBreak {
		return fmt.Sprintf("%s %s", column, direction)
	}
	return fmt.Sprintf("%s %s, %s %s", column, direction, tieBreak, direction)
}

// activeFilterArg returns nil for no filtering on the active flag.
func activeFilterArg(status SessionStatus) *bool {
	var active bool
	switch status {
	case StatusActive:
		active = true
	case StatusCompleted:
		active = false
	default:
		return nil
	}
	return &active
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRecordNotFound
	}
	return err
}
