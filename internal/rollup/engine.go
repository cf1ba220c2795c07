// Package rollup implements the hierarchical territory metrics engine:
// one generic, family-parameterized computation that resolves the
// visible territory nodes per hierarchy level, aggregates actuals and
// targets for a requested date, derives the achievement indicators,
// and stitches the five levels into one flat report.
package rollup

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/telcodash/telcodash/internal/shared"
	"github.com/telcodash/telcodash/internal/territory"
	"github.com/telcodash/telcodash/internal/warehouse"
)

// Warehouse exposes the read-only fact and target accessors the engine
// relies on. *warehouse.Reader satisfies it; tests substitute fakes.
type Warehouse interface {
	ReadActuals(ctx context.Context, table string, level territory.Level, nodes []string, date time.Time) (map[string]float64, error)
	ReadActualRange(ctx context.Context, table string, level territory.Level, nodes []string, from, to time.Time) (map[string]float64, error)
	ReadYTD(ctx context.Context, table string, level territory.Level, nodes []string, date time.Time) (map[string]float64, error)
	ReadTargets(ctx context.Context, table string, kabupatens []string, period string) (map[string]float64, error)
}

// Engine computes rollup reports. It is stateless and a pure function
// of (family, date, filter); safe for concurrent use.
type Engine struct {
	catalog *territory.Catalog
	wh      Warehouse
	now     func() time.Time
}

// NewEngine wires the catalog and warehouse accessors.
func NewEngine(catalog *territory.Catalog, wh Warehouse) *Engine {
	return &Engine{
		catalog: catalog,
		wh:      wh,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the engine clock for testing.
func (e *Engine) WithNow(fn func() time.Time) {
	if fn != nil {
		e.now = fn
	}
}

// EffectiveDate resolves the report date: the requested date truncated
// to day granularity, or today minus the family's warehouse latency
// when no date was supplied.
func (e *Engine) EffectiveDate(spec FamilySpec, requested time.Time) time.Time {
	if !requested.IsZero() {
		return time.Date(requested.Year(), requested.Month(), requested.Day(), 0, 0, 0, 0, time.UTC)
	}
	now := e.now().UTC()
	base := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, -spec.LatencyDays)
}

// Build computes the full five-level report for one family, date, and
// filter. A zero date selects the family default. Any warehouse
// failure fails the whole report; there is no partial-level mode.
func (e *Engine) Build(ctx context.Context, familyKey string, date time.Time, filter territory.Filter) ([]Row, error) {
	spec, err := Lookup(familyKey)
	if err != nil {
		return nil, err
	}
	date = e.EffectiveDate(spec, date)

	// Targets exist only at kabupaten grain; read them once for the
	// whole filter scope and sum upward per level through the catalog.
	kabupatens := e.catalog.Kabupatens(filter)
	targets, err := e.wh.ReadTargets(ctx, spec.TargetTable, kabupatens, shared.PeriodKey(date))
	if err != nil {
		return nil, err
	}

	var perLevel [5][]Row
	g, gctx := errgroup.WithContext(ctx)
	for i, level := range territory.Levels() {
		g.Go(func() error {
			rows, err := e.buildLevel(gctx, spec, level, date, filter, targets)
			if err != nil {
				return err
			}
			perLevel[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Assemble(perLevel), nil
}

func (e *Engine) buildLevel(ctx context.Context, spec FamilySpec, level territory.Level, date time.Time, filter territory.Filter, rawTargets map[string]float64) ([]Row, error) {
	nodes := e.catalog.Resolve(level, filter)
	if len(nodes) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}

	curTable, err := warehouse.TableForMonth(spec.FactTable, spec.Partitioned, date)
	if err != nil {
		return nil, err
	}
	momDate := shared.SameDayMonthsAgo(date, 1)
	momTable, err := warehouse.TableForMonth(spec.FactTable, spec.Partitioned, momDate)
	if err != nil {
		return nil, err
	}
	yoyDate := shared.SameDayYearsAgo(date, 1)
	yoyTable, err := warehouse.TableForMonth(spec.FactTable, spec.Partitioned, yoyDate)
	if err != nil {
		return nil, err
	}

	var cur, mom, yoy, ytd map[string]float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = e.wh.ReadActuals(gctx, curTable, level, names, date)
		return err
	})
	g.Go(func() error {
		var err error
		mom, err = e.wh.ReadActuals(gctx, momTable, level, names, momDate)
		return err
	})
	g.Go(func() error {
		var err error
		yoy, err = e.wh.ReadActuals(gctx, yoyTable, level, names, yoyDate)
		return err
	})
	g.Go(func() error {
		var err error
		switch spec.YTDSource {
		case YTDPassthrough:
			ytd, err = e.wh.ReadYTD(gctx, curTable, level, names, date)
		case YTDComputed:
			ytd, err = e.wh.ReadActualRange(gctx, spec.FactTable, level, names, shared.StartOfYear(date), date)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	day, days := shared.MonthProgress(date)
	rows := make([]Row, 0, len(nodes))
	for _, node := range nodes {
		target := spec.TargetScale * e.sumTargets(level, node.Name, rawTargets)
		actual := cur[node.Name]
		prior := mom[node.Name]
		priorYear := yoy[node.Name]

		row := Row{
			Kind:        Data,
			Name:        node.Name,
			Target:      AmountOf(target),
			Actual:      AmountOf(actual),
			Achievement: achievementPct(actual, target),
			DRR:         drrPct(actual, target, day, days),
			Gap:         AmountOf(actual - target),
			MoM:         growthPct(actual, prior),
			YoY:         growthPct(actual, priorYear),
			Delta:       AmountOf(actual - prior),
		}
		switch spec.YTDSource {
		case YTDPassthrough:
			if v, ok := ytd[node.Name]; ok {
				row.YTD = PercentOf(v)
			}
		case YTDComputed:
			row.YTD = ytdComputedPct(ytd[node.Name], target, int(date.Month()))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sumTargets rolls the kabupaten-grain raw targets up to one node at
// the requested level through the catalog's ancestor links.
func (e *Engine) sumTargets(level territory.Level, node string, raw map[string]float64) float64 {
	var sum float64
	for kabupaten, value := range raw {
		if ancestor, ok := e.catalog.AncestorAt(level, kabupaten); ok && ancestor == node {
			sum += value
		}
	}
	return sum
}
