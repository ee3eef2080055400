package db

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultApplicationName = "repcoach"
	maxConnIdleTime        = 5 * time.Minute
	healthCheckPeriod      = 30 * time.Second
	// a session row lock must not outlive a stuck client
	idleInTxTimeout = "30s"
)

type NewDBPoolParams struct {
	DBHost string
	DBPort string
	DBName string
	// ApplicationName tells the service and the MCP server connections apart in pg_stat_activity.
	ApplicationName string
	// MaxConns of 0 keeps the pgx default.
	MaxConns       int32
	TracingEnabled bool
}

func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	poolConfig, err := newPoolConfig(params)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	return pool, nil
}

func newPoolConfig(params NewDBPoolParams) (*pgxpool.Config, error) {
	connString := fmt.Sprintf(
		"postgres://postgres@%s/%s",
		net.JoinHostPort(params.DBHost, params.DBPort), params.DBName,
	)
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	appName := params.ApplicationName
	if appName == "" {
		appName = defaultApplicationName
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
	poolConfig.ConnConfig.RuntimeParams["idle_in_transaction_session_timeout"] = idleInTxTimeout

	if params.MaxConns > 0 {
		poolConfig.MaxConns = params.MaxConns
	}
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	return poolConfig, nil
}
