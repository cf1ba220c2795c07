package rollup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/telcodash/telcodash/internal/territory"
)

// fakeWarehouse keys actuals by "LEVEL/NAME" per ISO date so one fixture
// can hold distinct values per hierarchy level.
type fakeWarehouse struct {
	mu          sync.Mutex
	actuals     map[string]map[string]float64
	ytd         map[string]float64
	rangeSums   map[string]float64
	targets     map[string]float64
	readErr     error
	targetErr   error
	tables      map[string]int
	targetCalls int
}

func levelKey(level territory.Level, name string) string {
	return level.String() + "/" + name
}

func (f *fakeWarehouse) record(table string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables == nil {
		f.tables = make(map[string]int)
	}
	f.tables[table]++
}

func (f *fakeWarehouse) ReadActuals(ctx context.Context, table string, level territory.Level, nodes []string, date time.Time) (map[string]float64, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.record(table)
	day := f.actuals[date.Format("2006-01-02")]
	out := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		if v, ok := day[levelKey(level, n)]; ok {
			out[n] = v
		}
	}
	return out, nil
}

func (f *fakeWarehouse) ReadActualRange(ctx context.Context, table string, level territory.Level, nodes []string, from, to time.Time) (map[string]float64, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.record(table)
	out := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		if v, ok := f.rangeSums[levelKey(level, n)]; ok {
			out[n] = v
		}
	}
	return out, nil
}

func (f *fakeWarehouse) ReadYTD(ctx context.Context, table string, level territory.Level, nodes []string, date time.Time) (map[string]float64, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.record(table)
	out := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		if v, ok := f.ytd[levelKey(level, n)]; ok {
			out[n] = v
		}
	}
	return out, nil
}

func (f *fakeWarehouse) ReadTargets(ctx context.Context, table string, kabupatens []string, period string) (map[string]float64, error) {
	f.mu.Lock()
	f.targetCalls++
	f.mu.Unlock()
	if f.targetErr != nil {
		return nil, f.targetErr
	}
	out := make(map[string]float64, len(kabupatens))
	for _, k := range kabupatens {
		if v, ok := f.targets[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T, wh Warehouse) *Engine {
	t.Helper()
	catalog, err := territory.Bundled()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewEngine(catalog, wh)
}

// revenueFixture models gross revenue on 2025-06-28: regional actual is
// the sum of the four branch actuals; raw targets live at kabupaten
// grain and are stored at one-tenth scale.
func revenueFixture() *fakeWarehouse {
	return &fakeWarehouse{
		actuals: map[string]map[string]float64{
			"2025-06-28": {
				"REGIONAL/PUMA":   1000,
				"BRANCH/AMBON":    400,
				"BRANCH/JAYAPURA": 300,
				"BRANCH/SORONG":   200,
				"BRANCH/TIMIKA":   100,
			},
			"2025-05-28": {
				"BRANCH/AMBON": 320,
			},
			"2024-06-28": {
				"BRANCH/AMBON": 200,
			},
		},
		ytd: map[string]float64{
			"REGIONAL/PUMA": 55.5,
		},
		targets: map[string]float64{
			"KOTA AMBON":    50,
			"KOTA JAYAPURA": 20,
			"MIMIKA":        30,
		},
	}
}

func findRow(t *testing.T, rows []Row, name string) Row {
	t.Helper()
	for _, r := range rows {
		if r.Kind == Data && r.Name == name {
			return r
		}
	}
	t.Fatalf("row %s not found", name)
	return Row{}
}

func reportDate() time.Time {
	return time.Date(2025, time.June, 28, 0, 0, 0, 0, time.UTC)
}

func TestBuildStructuralInvariant(t *testing.T) {
	engine := newTestEngine(t, revenueFixture())
	rows, err := engine.Build(context.Background(), "revenue-gross", reportDate(), territory.Filter{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if rows[0].Kind != Data || rows[0].Name != "PUMA" {
		t.Fatalf("first row must be the unlabeled regional block, got %+v", rows[0])
	}
	var headers []string
	for _, r := range rows {
		if r.Kind == Header {
			headers = append(headers, r.Name)
		}
	}
	want := []string{"BRANCH", "SUBBRANCH", "CLUSTER", "KABUPATEN"}
	if len(headers) != 4 {
		t.Fatalf("expected 4 headers got %d", len(headers))
	}
	for i, label := range want {
		if headers[i] != label {
			t.Fatalf("header %d = %s, want %s", i, headers[i], label)
		}
	}
}

func TestBuildAggregationConsistency(t *testing.T) {
	engine := newTestEngine(t, revenueFixture())
	rows, err := engine.Build(context.Background(), "revenue-gross", reportDate(), territory.Filter{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	regional := findRow(t, rows, "PUMA")
	var branchActual, branchGap float64
	for _, name := range []string{"AMBON", "JAYAPURA", "SORONG", "TIMIKA"} {
		row := findRow(t, rows, name)
		branchActual += row.Actual.Value
		branchGap += row.Gap.Value
	}
	if regional.Actual.Value != branchActual {
		t.Fatalf("regional actual %v != branch sum %v", regional.Actual.Value, branchActual)
	}
	if regional.Gap.Value != branchGap {
		t.Fatalf("regional gap %v != branch gap sum %v", regional.Gap.Value, branchGap)
	}
}

func TestBuildIndicators(t *testing.T) {
	engine := newTestEngine(t, revenueFixture())
	rows, err := engine.Build(context.Background(), "revenue-gross", reportDate(), territory.Filter{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	regional := findRow(t, rows, "PUMA")
	// Raw targets sum to 100, scaled x10 for the revenue family.
	if regional.Target.Value != 1000 {
		t.Fatalf("regional target = %v, want 1000", regional.Target.Value)
	}
	if regional.Achievement.String() != "100.00%" {
		t.Fatalf("regional achievement = %q", regional.Achievement.String())
	}
	if regional.YTD.String() != "55.50%" {
		t.Fatalf("regional ytd passthrough = %q", regional.YTD.String())
	}

	ambon := findRow(t, rows, "AMBON")
	if ambon.Target.Value != 500 {
		t.Fatalf("ambon target = %v, want 500", ambon.Target.Value)
	}
	if ambon.Achievement.String() != "80.00%" {
		t.Fatalf("ambon achievement = %q", ambon.Achievement.String())
	}
	// Day 28 of a 30-day month: 400 / (28/30 * 500).
	if ambon.DRR.String() != "85.71%" {
		t.Fatalf("ambon drr = %q", ambon.DRR.String())
	}
	if ambon.Gap.Value != -100 {
		t.Fatalf("ambon gap = %v, want -100", ambon.Gap.Value)
	}
	if ambon.MoM.String() != "25.00%" {
		t.Fatalf("ambon mom = %q", ambon.MoM.String())
	}
	if ambon.YoY.String() != "100.00%" {
		t.Fatalf("ambon yoy = %q", ambon.YoY.String())
	}
	if ambon.Delta.Value != 80 {
		t.Fatalf("ambon delta = %v, want 80", ambon.Delta.Value)
	}

	// SORONG has no target rows: achievement and DRR blank, gap still
	// computed against zero.
	sorong := findRow(t, rows, "SORONG")
	if sorong.Achievement.Valid || sorong.DRR.Valid {
		t.Fatalf("sorong indicators must be blank: %+v", sorong)
	}
	if !sorong.Gap.Valid || sorong.Gap.Value != 200 {
		t.Fatalf("sorong gap = %+v, want 200", sorong.Gap)
	}
}

func TestBuildReadsMonthlyPartitions(t *testing.T) {
	wh := revenueFixture()
	engine := newTestEngine(t, wh)
	if _, err := engine.Build(context.Background(), "revenue-gross", reportDate(), territory.Filter{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, table := range []string{"summary_rev_202506", "summary_rev_202505", "summary_rev_202406"} {
		if wh.tables[table] == 0 {
			t.Fatalf("expected reads against %s, observed %v", table, wh.tables)
		}
	}
	if wh.targetCalls != 1 {
		t.Fatalf("expected a single target read per report, got %d", wh.targetCalls)
	}
}

func TestBuildIdempotent(t *testing.T) {
	engine := newTestEngine(t, revenueFixture())
	ctx := context.Background()
	first, err := engine.Build(ctx, "revenue-gross", reportDate(), territory.Filter{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := engine.Build(ctx, "revenue-gross", reportDate(), territory.Filter{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatal("identical inputs must yield byte-identical reports")
	}
}

func TestBuildUnknownSubbranchKeepsHeaders(t *testing.T) {
	engine := newTestEngine(t, revenueFixture())
	filter := territory.Filter{Branch: "AMBON", Subbranch: "UNKNOWN_X"}
	rows, err := engine.Build(context.Background(), "revenue-gross", reportDate(), filter)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Regional and branch blocks survive; subbranch and below are
	// empty data-wise but the headers stay in place.
	if rows[0].Name != "PUMA" {
		t.Fatalf("expected regional row, got %+v", rows[0])
	}
	var dataAfterSubbranch int
	seenSubbranch := false
	for _, r := range rows {
		if r.Kind == Header && r.Name == "SUBBRANCH" {
			seenSubbranch = true
			continue
		}
		if seenSubbranch && r.Kind == Data {
			dataAfterSubbranch++
		}
	}
	if !seenSubbranch {
		t.Fatal("subbranch header missing")
	}
	if dataAfterSubbranch != 0 {
		t.Fatalf("expected no data rows past the subbranch header, got %d", dataAfterSubbranch)
	}
}

func TestBuildUnknownFamilyFailsBeforeIO(t *testing.T) {
	wh := revenueFixture()
	engine := newTestEngine(t, wh)
	_, err := engine.Build(context.Background(), "churn", reportDate(), territory.Filter{})
	if !errors.Is(err, ErrUnknownFamily) {
		t.Fatalf("expected ErrUnknownFamily got %v", err)
	}
	if wh.targetCalls != 0 || len(wh.tables) != 0 {
		t.Fatal("unknown family must fail before any warehouse read")
	}
}

func TestBuildFailsWholeReportOnReadError(t *testing.T) {
	wh := revenueFixture()
	wh.readErr = errors.New("connection refused")
	engine := newTestEngine(t, wh)
	rows, err := engine.Build(context.Background(), "revenue-gross", reportDate(), territory.Filter{})
	if err == nil {
		t.Fatal("expected error")
	}
	if rows != nil {
		t.Fatal("no partial report on failure")
	}
}

func TestBuildFailsOnTargetError(t *testing.T) {
	wh := revenueFixture()
	wh.targetErr = errors.New("timeout")
	engine := newTestEngine(t, wh)
	if _, err := engine.Build(context.Background(), "revenue-gross", reportDate(), territory.Filter{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildComputedYTD(t *testing.T) {
	wh := &fakeWarehouse{
		actuals: map[string]map[string]float64{
			"2025-06-28": {"REGIONAL/PUMA": 480},
		},
		rangeSums: map[string]float64{
			// Cumulative January through June.
			"REGIONAL/PUMA": 3000,
		},
		targets: map[string]float64{
			// new-sales targets are stored at face value.
			"KOTA AMBON": 1000,
		},
	}
	engine := newTestEngine(t, wh)
	rows, err := engine.Build(context.Background(), "new-sales", reportDate(), territory.Filter{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	regional := findRow(t, rows, "PUMA")
	// 3000 cumulative vs 1000/month over six elapsed months.
	if regional.YTD.String() != "50.00%" {
		t.Fatalf("computed ytd = %q, want 50.00%%", regional.YTD.String())
	}
	if wh.tables["summary_trx_ns"] == 0 {
		t.Fatalf("flat families read the unpartitioned table, observed %v", wh.tables)
	}
}

func TestEffectiveDateDefaultsToLatency(t *testing.T) {
	engine := newTestEngine(t, revenueFixture())
	engine.WithNow(func() time.Time {
		return time.Date(2025, time.June, 30, 13, 45, 0, 0, time.UTC)
	})
	spec, _ := Lookup("revenue-gross")
	got := engine.EffectiveDate(spec, time.Time{})
	if !got.Equal(reportDate()) {
		t.Fatalf("expected 2025-06-28 got %s", got.Format("2006-01-02"))
	}

	campaign, _ := Lookup("campaign")
	got = engine.EffectiveDate(campaign, time.Time{})
	if !got.Equal(time.Date(2025, time.June, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("campaign latency is one day, got %s", got.Format("2006-01-02"))
	}
}
