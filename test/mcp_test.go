package test

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestMCPOverHTTP() {
	user := s.createUser("Mcp")
	s.runWorkout(user.ID, 10, 11)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "repcoach-test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   serverEndpoint + "/mcp",
		HTTPClient: s.httpClient,
	}, nil)
	require.NoError(s.T(), err)
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_recommendation",
		Arguments: map[string]any{"user_id": user.ID},
	})
	require.NoError(s.T(), err)
	require.False(s.T(), res.IsError)
	require.Len(s.T(), res.Content, 1)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(s.T(), ok)
	assert.True(s.T(), strings.Contains(text.Text, `"recommended_reps": 12`), text.Text)

	schema, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_workouts_context",
		Arguments: map[string]any{},
	})
	require.NoError(s.T(), err)
	require.Len(s.T(), schema.Content, 1)
	schemaText, ok := schema.Content[0].(*mcp.TextContent)
	require.True(s.T(), ok)
	assert.Contains(s.T(), schemaText.Text, "workout_session")
}
