// Package query executes generated SQL against the clinical views.
//
// The SQL arrives from an external translation service and is executed
// exactly as received. That pass-through is an inherited trust boundary, not
// an oversight: there is no rewriting, no parameterization, and no allow-list
// in front of the pool. Malformed or non-compliant translator output is
// detected here, when Postgres rejects it.
package query

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/clinsight/clinsight/pkg/models"
)

// Runner executes query text and returns the projected rows.
type Runner interface {
	Run(ctx context.Context, sql string) (models.ResultSet, error)
}

// ExecutionError wraps a rejection from the data store: syntax errors,
// unknown relations or columns, type mismatches.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Executor runs queries on a shared pgx pool. The pool's max-connections
// setting is the only concurrency throttle in the pipeline.
type Executor struct {
	pool *pgxpool.Pool
}

// NewExecutor wraps a connection pool.
func NewExecutor(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool}
}

// Run executes the SQL and collects every row, preserving the projection's
// column order. No timeout beyond the pool defaults; no cancellation beyond
// the passed context.
func (e *Executor) Run(ctx context.Context, sql string) (models.ResultSet, error) {
	rows, err := e.pool.Query(ctx, sql)
	if err != nil {
		return nil, &ExecutionError{SQL: sql, Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}

	result, err := collectRows(rows, names)
	if err != nil {
		return nil, &ExecutionError{SQL: sql, Err: err}
	}

	log.Debug().Int("rows", len(result)).Int("columns", len(names)).Msg("Query executed")
	return result, nil
}

func collectRows(rows pgx.Rows, names []string) (models.ResultSet, error) {
	// Non-nil even for zero rows: an empty set is a normal outcome and
	// renderers distinguish it from a malformed one.
	result := make(models.ResultSet, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(models.Row, 0, len(values))
		for i, v := range values {
			row = append(row, models.Field{Name: names[i], Value: convertValue(v)})
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// convertValue maps a pgx-decoded cell onto the tagged value model. Types
// the mapping does not know degrade to their string form rather than failing
// the whole result set.
func convertValue(v any) models.Value {
	switch x := v.(type) {
	case nil:
		return models.NullValue()
	case string:
		return models.TextValue(x)
	case bool:
		return models.TextValue(fmt.Sprintf("%t", x))
	case int16:
		return models.NumberValue(float64(x))
	case int32:
		return models.NumberValue(float64(x))
	case int64:
		return models.NumberValue(float64(x))
	case float32:
		return models.NumberValue(float64(x))
	case float64:
		return models.NumberValue(x)
	case time.Time:
		return models.TimestampValue(x)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid || math.IsNaN(f.Float64) {
			return models.TextValue(fmt.Sprint(v))
		}
		return models.NumberValue(f.Float64)
	default:
		return models.TextValue(fmt.Sprint(v))
	}
}
