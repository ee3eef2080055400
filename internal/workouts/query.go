package workouts

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/repcoach/internal/telemetry/tracing"
)

const (
	defaultUserSort    = "created_at"
	defaultSessionSort = "started_at"
	// offsets past it are clamped, such a page is empty anyway
	maxOffset = math.MaxInt32
)

var (
	userSortFields    = []string{"created_at", "name", "id"}
	sessionSortFields = []string{"started_at", "ended_at", "id"}
)

// Page is one window of a listing, plus the total number of matching items.
type Page[T any] struct {
	Items  []T
	Total  int
	Offset int
	Limit  int
}

// TotalPages is ceil(Total/Limit), never less than 1.
func (p *Page[T]) TotalPages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// CurrentPage is the one based number of the page.
func (p *Page[T]) CurrentPage() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

// QueryService lists users and sessions with pagination, sorting and filtering.
type QueryService struct {
	store           Store
	users           userGetter
	defaultPageSize int
	maxPageSize     int
}

func NewQueryService(store Store, users userGetter, defaultPageSize, maxPageSize int) *QueryService {
	return &QueryService{
		store:           store,
		users:           users,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

func (q *QueryService) ListUsers(ctx context.Context, req PageRequest) (_ *Page[UserSummary], err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.query.users")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	req = q.normalize(req, userSortFields, defaultUserSort)

	total, err := q.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	users, err := q.store.ListUsers(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &Page[UserSummary]{
		Items:  users,
		Total:  total,
		Offset: req.Offset,
		Limit:  req.Limit,
	}, nil
}

func (q *QueryService) ListUserSessions(
	ctx context.Context,
	userID int,
	status SessionStatus,
	req PageRequest,
) (_ *Page[Session], err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.query.sessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("status", string(status)),
	)

	if _, err := q.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	req = q.normalize(req, sessionSortFields, defaultSessionSort)
	filter := SessionFilter{UserID: userID, Status: status}

	total, err := q.store.CountSessions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	sessions, err := q.store.ListSessions(ctx, filter, req)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return &Page[Session]{
		Items:  sessions,
		Total:  total,
		Offset: req.Offset,
		Limit:  req.Limit,
	}, nil
}

// normalize clamps the page size to [1, maxPageSize] and falls back to defaults
// for unknown sort fields and orders.
func (q *QueryService) normalize(req PageRequest, sortFields []string, defaultSort string) PageRequest {
	switch {
	case req.Limit <= 0:
		req.Limit = q.defaultPageSize
	case req.Limit > q.maxPageSize:
		req.Limit = q.maxPageSize
	}
	if req.Page > 0 {
		if req.Page-1 > maxOffset/req.Limit {
			req.Offset = maxOffset
		} else {
			req.Offset = (req.Page - 1) * req.Limit
		}
		req.Page = 0
	}
	req.Offset = min(max(req.Offset, 0), maxOffset)

	sortBy := strings.ToLower(strings.TrimSpace(req.SortBy))
	req.SortBy = defaultSort
	for _, f := range sortFields {
		if f == sortBy {
			req.SortBy = f
			break
		}
	}

	if SortOrder(strings.ToLower(string(req.Order))) == OrderAsc {
		req.Order = OrderAsc
	} else {
		req.Order = OrderDesc
	}

	return req
}
