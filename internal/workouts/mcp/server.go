package mcp

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with read only workouts tools: schema, user, recommendation, sessions.
// Served over stdio by cmd/workouts_mcp and mounted at /mcp by the main service.
func NewServer(pool *pgxpool.Pool, service workoutsService) *mcp.Server {
	h := NewHandler(NewContextService(NewCachedSchemaRepo(NewPgSchemaRepo(pool)), service))
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "repcoach-workouts",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workouts_context",
		Description: "Returns the DB schema of the workouts tables (app_user, workout_session, exercise, workout_recommendation): columns, types, nullable, default.",
	}, h.GetWorkoutsContextTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_user",
		Description: "Returns a user with workout stats: total workouts, total exercises, active sessions and the current recommended reps. Arg: user_id.",
	}, h.GetUserTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_recommendation",
		Description: "Returns the recommended reps for the user's next workout, the reason, the last workout and the progression trend. Arg: user_id.",
	}, h.GetRecommendationTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_user_sessions",
		Description: "Returns the user's workout sessions, newest first. Args: user_id; optional: status_filter (all, active, completed), page, limit.",
	}, h.ListUserSessionsTool())

	return s
}
