// Package warehouse provides read-only access to the externally
// maintained fact and target tables. Facts are daily grain keyed by
// (date, level, territory); targets are monthly grain at kabupaten
// level only. Nothing in this package writes.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telcodash/telcodash/internal/territory"
)

// Reader queries the warehouse through a pgx pool.
type Reader struct {
	pool *pgxpool.Pool
}

// NewReader wraps the shared connection pool.
func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{pool: pool}
}

// ReadActuals sums the daily fact value per territory for one date.
// Territories without a row for that date are absent from the map, so
// the engine can distinguish "no data" from "data is zero".
func (r *Reader) ReadActuals(ctx context.Context, table string, level territory.Level, nodes []string, date time.Time) (map[string]float64, error) {
	if err := r.check(table); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return map[string]float64{}, nil
	}
	query := fmt.Sprintf(
		`SELECT territory, SUM(amount) FROM %s WHERE event_date = $1 AND level = $2 AND territory = ANY($3) GROUP BY territory`,
		table,
	)
	return r.scanAmounts(ctx, "read actuals", query, date, level.String(), nodes)
}

// ReadActualRange sums the daily fact values per territory over the
// inclusive [from, to] window. Used for computed year-to-date figures
// on non-partitioned families.
func (r *Reader) ReadActualRange(ctx context.Context, table string, level territory.Level, nodes []string, from, to time.Time) (map[string]float64, error) {
	if err := r.check(table); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return map[string]float64{}, nil
	}
	query := fmt.Sprintf(
		`SELECT territory, SUM(amount) FROM %s WHERE event_date BETWEEN $1 AND $2 AND level = $3 AND territory = ANY($4) GROUP BY territory`,
		table,
	)
	return r.scanAmounts(ctx, "read actual range", query, from, to, level.String(), nodes)
}

// ReadYTD returns the warehouse-precomputed year-to-date column per
// territory for one date, for families that carry it. Values pass
// through to the report unchanged.
func (r *Reader) ReadYTD(ctx context.Context, table string, level territory.Level, nodes []string, date time.Time) (map[string]float64, error) {
	if err := r.check(table); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return map[string]float64{}, nil
	}
	query := fmt.Sprintf(
		`SELECT territory, MAX(ytd_pct) FROM %s WHERE event_date = $1 AND level = $2 AND territory = ANY($3) GROUP BY territory`,
		table,
	)
	return r.scanAmounts(ctx, "read ytd", query, date, level.String(), nodes)
}

// ReadTargets returns the raw monthly target per kabupaten for one
// yyyyMM period. Coarser-level targets are never stored; the engine
// sums these upward through the catalog.
func (r *Reader) ReadTargets(ctx context.Context, table string, kabupatens []string, period string) (map[string]float64, error) {
	if err := r.check(table); err != nil {
		return nil, err
	}
	if len(kabupatens) == 0 {
		return map[string]float64{}, nil
	}
	query := fmt.Sprintf(
		`SELECT kabupaten, SUM(amount) FROM %s WHERE period = $1 AND kabupaten = ANY($2) GROUP BY kabupaten`,
		table,
	)
	return r.scanAmounts(ctx, "read targets", query, period, kabupatens)
}

func (r *Reader) check(table string) error {
	if r == nil || r.pool == nil {
		return unavailable("pool", fmt.Errorf("reader not configured"))
	}
	if !ValidTable(table) {
		return unavailable("table", fmt.Errorf("invalid identifier %q", table))
	}
	return nil
}

func (r *Reader) scanAmounts(ctx context.Context, op, query string, args ...any) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var amount *float64
		if err := rows.Scan(&name, &amount); err != nil {
			return nil, unavailable(op, err)
		}
		if amount == nil {
			continue
		}
		out[name] = *amount
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}
