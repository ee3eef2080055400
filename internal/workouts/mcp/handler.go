package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2beens/repcoach/internal/workouts"
)

// Handler handles MCP tool requests: parses input, calls the service, formats the MCP result.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// UserInput is the input for get_user and get_recommendation.
type UserInput struct {
	UserID int `json:"user_id" jsonschema:"Id of the user"`
}

// ListSessionsInput is the input for list_user_sessions.
type ListSessionsInput struct {
	UserID       int    `json:"user_id" jsonschema:"Id of the user"`
	StatusFilter string `json:"status_filter,omitempty" jsonschema:"One of all, active, completed. Defaults to all"`
	Page         int    `json:"page,omitempty" jsonschema:"Page number, starting at 1"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Page size, at most 100"`
}

// GetWorkoutsContextTool returns the MCP tool handler for get_workouts_context.
func (h *Handler) GetWorkoutsContextTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	}
}

// GetUserTool returns the MCP tool handler for get_user.
func (h *Handler) GetUserTool() func(context.Context, *mcp.CallToolRequest, UserInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		user, err := h.service.GetUser(ctx, in.UserID)
		if err != nil {
			return serviceErrorResult("Error fetching user", err), nil, nil
		}
		return jsonResult(user), nil, nil
	}
}

// GetRecommendationTool returns the MCP tool handler for get_recommendation.
func (h *Handler) GetRecommendationTool() func(context.Context, *mcp.CallToolRequest, UserInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		rec, err := h.service.GetRecommendation(ctx, in.UserID)
		if err != nil {
			return serviceErrorResult("Error fetching recommendation", err), nil, nil
		}
		return jsonResult(rec), nil, nil
	}
}

// ListUserSessionsTool returns the MCP tool handler for list_user_sessions.
func (h *Handler) ListUserSessionsTool() func(context.Context, *mcp.CallToolRequest, ListSessionsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ListSessionsInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		page, err := h.service.ListUserSessions(ctx, ListSessionsParams{
			UserID: in.UserID,
			Status: workouts.ParseSessionStatus(in.StatusFilter),
			Page:   in.Page,
			Limit:  in.Limit,
		})
		if err != nil {
			return serviceErrorResult("Error listing sessions", err), nil, nil
		}
		return jsonResult(page), nil, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// serviceErrorResult shows domain error messages as they are and hides internal failures.
func serviceErrorResult(prefix string, err error) *mcp.CallToolResult {
	if domainErr, ok := workouts.AsError(err); ok {
		return errorResult(prefix + ": " + domainErr.Message)
	}
	return errorResult(prefix + ": internal error")
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return textResult(string(raw))
}
