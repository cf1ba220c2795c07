package rollup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/telcodash/telcodash/internal/territory"
)

// Service coordinates report computation with the cache layer. Cached
// entries hold the serialized wire form, so cache hits are served
// without re-marshalling.
type Service struct {
	engine *Engine
	cache  *Cache
}

// NewService wires an Engine with a Cache helper. A nil cache degrades
// to direct computation.
func NewService(engine *Engine, cache *Cache) *Service {
	return &Service{engine: engine, cache: cache}
}

// ReportJSON returns the report in wire form. A zero date selects the
// family's default (today minus warehouse latency).
func (s *Service) ReportJSON(ctx context.Context, familyKey string, date time.Time, filter territory.Filter) ([]byte, error) {
	spec, err := Lookup(familyKey)
	if err != nil {
		return nil, err
	}
	date = s.engine.EffectiveDate(spec, date)

	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.engine.Build(ctx, spec.Key, date, filter)
		if err != nil {
			return nil, err
		}
		// Header and data rows always materialize; an empty level is
		// legal and serializes as consecutive headers.
		return rows, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	}

	key, err := s.cache.BuildKey(ctx, keyReport(spec.Key, date, filter.Token()))
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
		return nil, err
	}
	return raw, nil
}

// Rows computes the typed report, bypassing the cache. Used by tests
// and anywhere the tagged row variant matters.
func (s *Service) Rows(ctx context.Context, familyKey string, date time.Time, filter territory.Filter) ([]Row, error) {
	return s.engine.Build(ctx, familyKey, date, filter)
}

// Invalidate bumps the cache version after a warehouse load.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
