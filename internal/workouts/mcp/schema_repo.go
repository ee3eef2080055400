package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coocood/freecache"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/repcoach/internal/telemetry/tracing"
)

const (
	schemaCacheSize = 256 * 1024
	// seconds; migrations only run on service start
	schemaCacheExpire = 10 * 60
	schemaCacheKey    = "workouts::columns"
)

// SchemaRepo lists the columns of the workouts tables.
type SchemaRepo interface {
	GetWorkoutsColumns(ctx context.Context) ([]SchemaColumn, error)
}

type SchemaColumn struct {
	TableName  string  `json:"table_name"`
	ColumnName string  `json:"column_name"`
	DataType   string  `json:"data_type"`
	MaxLength  *int    `json:"max_length,omitempty"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default,omitempty"`
}

// TypeName is the data type with its length, e.g. character varying(100).
func (c SchemaColumn) TypeName() string {
	if c.MaxLength == nil {
		return c.DataType
	}
	return fmt.Sprintf("%s(%d)", c.DataType, *c.MaxLength)
}

var workoutsTables = []string{"app_user", "workout_session", "exercise", "workout_recommendation"}

type pgSchemaRepo struct {
	pool *pgxpool.Pool
}

func NewPgSchemaRepo(pool *pgxpool.Pool) SchemaRepo {
	return &pgSchemaRepo{pool: pool}
}

func (r *pgSchemaRepo) GetWorkoutsColumns(ctx context.Context) (_ []SchemaColumn, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mcp.schema.columns")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.pool.Query(ctx, `
		SELECT c.table_name, c.column_name, c.data_type, c.character_maximum_length,
		       c.is_nullable = 'YES', c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		  AND c.table_name = ANY($1)
		ORDER BY c.table_name, c.ordinal_position
	`, workoutsTables)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []SchemaColumn
	for rows.Next() {
		var c SchemaColumn
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.DataType, &c.MaxLength, &c.Nullable, &c.Default); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return cols, nil
}

// cachedSchemaRepo keeps the columns in memory. The schema only changes with a deploy,
// so serving it from a process local cache is safe.
type cachedSchemaRepo struct {
	repo  SchemaRepo
	cache *freecache.Cache
}

func NewCachedSchemaRepo(repo SchemaRepo) SchemaRepo {
	return &cachedSchemaRepo{
		repo:  repo,
		cache: freecache.NewCache(schemaCacheSize),
	}
}

func (r *cachedSchemaRepo) GetWorkoutsColumns(ctx context.Context) ([]SchemaColumn, error) {
	if raw, err := r.cache.Get([]byte(schemaCacheKey)); err == nil {
		var cols []SchemaColumn
		if err := json.Unmarshal(raw, &cols); err == nil {
			return cols, nil
		} else {
			log.Errorf("unmarshal cached workouts columns: %s", err)
		}
	}

	cols, err := r.repo.GetWorkoutsColumns(ctx)
	if err != nil {
		return nil, err
	}
	// an empty schema means migrations did not run yet, ask again next time
	if len(cols) == 0 {
		return cols, nil
	}

	raw, err := json.Marshal(cols)
	if err != nil {
		log.Errorf("marshal workouts columns: %s", err)
		return cols, nil
	}
	if err := r.cache.Set([]byte(schemaCacheKey), raw, schemaCacheExpire); err != nil {
		log.Errorf("cache workouts columns: %s", err)
	}
	return cols, nil
}
