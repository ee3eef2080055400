// Package main runs the workouts MCP server over stdio.
// The same MCP server is mounted on the main service at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/repcoach/internal/config"
	"github.com/2beens/repcoach/internal/db"
	"github.com/2beens/repcoach/internal/logging"
	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/workouts"
	workoutsmcp "github.com/2beens/repcoach/internal/workouts/mcp"
)

// a single MCP client issues one tool call at a time
const mcpMaxConns = 2

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the MCP protocol
	logging.Setup(logging.LoggerSetupParams{
		ServiceName: "repcoach-mcp",
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
		Console:     os.Stderr,
	})

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:          cfg.PostgresHost,
		DBPort:          cfg.PostgresPort,
		DBName:          cfg.PostgresDBName,
		ApplicationName: "repcoach-mcp",
		MaxConns:        mcpMaxConns,
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	service := workouts.NewService(workouts.ServiceParams{
		Store:           workouts.NewRepo(dbPool),
		Metrics:         metrics.NewManager("repcoach", "mcp", nil),
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})
	server := workoutsmcp.NewServer(dbPool, service)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
