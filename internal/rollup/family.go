package rollup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFamily rejects report requests for families the registry
// has no configuration for, before any warehouse I/O happens.
var ErrUnknownFamily = errors.New("unknown metric family")

// YTDSource selects how a family's year-to-date figure is produced.
// The two modes are not numerically equivalent; which one a family
// uses is inherited from the source warehouse and must not be unified.
type YTDSource int

const (
	// YTDComputed derives the figure from a year-to-date fact read
	// against the family's monthly target.
	YTDComputed YTDSource = iota
	// YTDPassthrough forwards the warehouse-precomputed ytd column
	// unchanged.
	YTDPassthrough
)

// FamilySpec is the declarative configuration record for one metric
// family. The rollup engine is generic; everything family-specific
// lives here.
type FamilySpec struct {
	Key         string
	Label       string
	FactTable   string
	TargetTable string
	// Partitioned families store one physical fact table per month
	// (base_yyyyMM); flat families keep a single table.
	Partitioned bool
	// TargetScale compensates for target tables stored at one-tenth
	// scale. It is a per-family quirk of the source data, not a
	// global rule.
	TargetScale float64
	// LatencyDays is how far the warehouse typically lags behind
	// today; it drives the default report date.
	LatencyDays int
	YTDSource   YTDSource
}

var registry = []FamilySpec{
	{
		Key:         "revenue-gross",
		Label:       "Gross Revenue",
		FactTable:   "summary_rev",
		TargetTable: "target_rev",
		Partitioned: true,
		TargetScale: 10,
		LatencyDays: 2,
		YTDSource:   YTDPassthrough,
	},
	{
		Key:         "revenue-byu",
		Label:       "BYU Revenue",
		FactTable:   "summary_rev_byu",
		TargetTable: "target_rev_byu",
		Partitioned: true,
		TargetScale: 10,
		LatencyDays: 2,
		YTDSource:   YTDPassthrough,
	},
	{
		Key:         "new-sales",
		Label:       "New Sales Transactions",
		FactTable:   "summary_trx_ns",
		TargetTable: "target_trx_ns",
		Partitioned: false,
		TargetScale: 1,
		LatencyDays: 2,
		YTDSource:   YTDComputed,
	},
	{
		Key:         "campaign",
		Label:       "Campaign Achievement",
		FactTable:   "summary_campaign",
		TargetTable: "target_campaign",
		Partitioned: false,
		TargetScale: 1,
		LatencyDays: 1,
		YTDSource:   YTDComputed,
	},
}

// Families lists the configured specs in registry order.
func Families() []FamilySpec {
	out := make([]FamilySpec, len(registry))
	copy(out, registry)
	return out
}

// Lookup resolves a family key, case-insensitively.
func Lookup(key string) (FamilySpec, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, spec := range registry {
		if spec.Key == key {
			return spec, nil
		}
	}
	return FamilySpec{}, fmt.Errorf("%w: %q", ErrUnknownFamily, key)
}
