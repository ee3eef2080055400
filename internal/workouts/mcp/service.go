package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/2beens/repcoach/internal/workouts"
	"github.com/2beens/repcoach/pkg"
)

// workoutsService is the part of workouts.Service exposed to MCP clients. Read only.
type workoutsService interface {
	GetUser(ctx context.Context, id int) (*workouts.UserDetail, error)
	ListUserSessions(ctx context.Context, userID int, status workouts.SessionStatus, req workouts.PageRequest) (*workouts.Page[workouts.Session], error)
	GetRecommendation(ctx context.Context, userID int) (*workouts.RecommendationView, error)
}

// contextService provides workouts context data for the tool handlers.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	GetUser(ctx context.Context, userID int) (*workouts.UserDetailResponse, error)
	GetRecommendation(ctx context.Context, userID int) (*workouts.RecommendationResponse, error)
	ListUserSessions(ctx context.Context, params ListSessionsParams) (*SessionsPage, error)
}

type ListSessionsParams struct {
	UserID int
	Status workouts.SessionStatus
	Page   int
	Limit  int
}

// SessionsPage is a page of sessions in the same shape the HTTP API returns them.
type SessionsPage struct {
	Sessions   []workouts.SessionResponse `json:"sessions"`
	Pagination pkg.Pagination             `json:"pagination"`
}

// ContextService adapts the workouts service and the schema repo to MCP tools.
type ContextService struct {
	schema   SchemaRepo
	workouts workoutsService
}

func NewContextService(schemaRepo SchemaRepo, service workoutsService) *ContextService {
	return &ContextService{
		schema:   schemaRepo,
		workouts: service,
	}
}

// GetSchema returns the DB schema (table names, columns, types) of the workouts tables.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.GetWorkoutsColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatWorkoutsSchema(cols), nil
}

func formatWorkoutsSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Workouts DB Schema\n\nNo workouts tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}
	tableOrder := make([]string, 0, len(byTable))
	for t := range byTable {
		tableOrder = append(tableOrder, t)
	}
	sort.Strings(tableOrder)

	var b strings.Builder
	b.WriteString("# Workouts DB Schema\n\n")
	b.WriteString("Tables: " + strings.Join(workoutsTables, ", ") + " (schema: public).\n\n")

	for _, tableName := range tableOrder {
		b.WriteString("## ")
		b.WriteString(tableName)
		b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|--------|\n")
		for _, c := range byTable[tableName] {
			def := "-"
			if c.Default != nil && *c.Default != "" {
				def = *c.Default
			}
			nullable := "NO"
			if c.Nullable {
				nullable = "YES"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ColumnName, c.TypeName(), nullable, def)
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n\n") + "\n"
}

func (s *ContextService) GetUser(ctx context.Context, userID int) (*workouts.UserDetailResponse, error) {
	user, err := s.workouts.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := workouts.NewUserDetailResponse(user)
	return &resp, nil
}

func (s *ContextService) GetRecommendation(ctx context.Context, userID int) (*workouts.RecommendationResponse, error) {
	view, err := s.workouts.GetRecommendation(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := workouts.NewRecommendationResponse(view)
	return &resp, nil
}

func (s *ContextService) ListUserSessions(ctx context.Context, params ListSessionsParams) (*SessionsPage, error) {
	page, err := s.workouts.ListUserSessions(ctx, params.UserID, params.Status, workouts.PageRequest{
		Page:  max(1, params.Page),
		Limit: params.Limit,
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]workouts.SessionResponse, 0, len(page.Items))
	for i := range page.Items {
		sessions = append(sessions, workouts.NewSessionResponse(&page.Items[i]))
	}
	return &SessionsPage{
		Sessions:   sessions,
		Pagination: workouts.NewPagination(page),
	}, nil
}
