package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/member-search-service/internal/query"
)

// psql builds Postgres-flavoured plans ($n placeholders).
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// executor runs query plans on the pool, or on the transaction carried by ctx.
type executor[T any] struct {
	pool *pgxpool.Pool
	scan pgx.RowToFunc[T]
}

func newExecutor[T any](pool *pgxpool.Pool, scan pgx.RowToFunc[T]) *executor[T] {
	return &executor[T]{pool: pool, scan: scan}
}

func (e *executor[T]) ExecuteList(ctx context.Context, plan sq.Sqlizer) ([]T, error) {
	if err := ensurePool(e.pool); err != nil {
		return nil, err
	}
	sql, args, err := plan.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sql: %w", err)
	}
	rows, err := getQ(ctx, e.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	// CollectRows closes rows on every path
	return pgx.CollectRows(rows, e.scan)
}

func (e *executor[T]) ExecuteCount(ctx context.Context, plan sq.Sqlizer) (int64, error) {
	if err := ensurePool(e.pool); err != nil {
		return 0, err
	}
	sql, args, err := plan.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count sql: %w", err)
	}
	var n int64
	if err := getQ(ctx, e.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

var _ query.Executor[struct{}] = (*executor[struct{}])(nil)
