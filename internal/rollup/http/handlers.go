// Package rolluphttp exposes the report API consumed by the dashboard
// front end.
package rolluphttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/telcodash/telcodash/internal/platform/httpx"
	"github.com/telcodash/telcodash/internal/rollup"
	"github.com/telcodash/telcodash/internal/territory"
	"github.com/telcodash/telcodash/internal/warehouse"
)

const requestTimeout = 15 * time.Second

// ReportService is the report computation contract used by the handler.
type ReportService interface {
	ReportJSON(ctx context.Context, familyKey string, date time.Time, filter territory.Filter) ([]byte, error)
}

// ReportMetrics counts report outcomes per metric family.
type ReportMetrics interface {
	ReportComputed(family, status string)
}

// Handler coordinates HTTP requests for rollup reports.
type Handler struct {
	logger   *slog.Logger
	service  ReportService
	metrics  ReportMetrics
	validate *validator.Validate
}

// NewHandler constructs the report HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// WithMetrics installs the report outcome counter.
func (h *Handler) WithMetrics(metrics ReportMetrics) *Handler {
	h.metrics = metrics
	return h
}

type reportQuery struct {
	Date      string `validate:"omitempty,datetime=2006-01-02"`
	Branch    string `validate:"omitempty,max=64"`
	Subbranch string `validate:"omitempty,max=64"`
	Cluster   string `validate:"omitempty,max=64"`
	Kabupaten string `validate:"omitempty,max=64"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	family := strings.TrimSpace(chi.URLParam(r, "family"))

	q := reportQuery{
		Date:      strings.TrimSpace(r.URL.Query().Get("date")),
		Branch:    strings.TrimSpace(r.URL.Query().Get("branch")),
		Subbranch: strings.TrimSpace(r.URL.Query().Get("subbranch")),
		Cluster:   strings.TrimSpace(r.URL.Query().Get("cluster")),
		Kabupaten: strings.TrimSpace(r.URL.Query().Get("kabupaten")),
	}
	if err := h.validate.Struct(q); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameters", err.Error())
		return
	}

	var date time.Time
	if q.Date != "" {
		parsed, err := time.Parse("2006-01-02", q.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Parameters", "date must be yyyy-mm-dd")
			return
		}
		date = parsed
	}

	filter := territory.Filter{
		Branch:    q.Branch,
		Subbranch: q.Subbranch,
		Cluster:   q.Cluster,
		Kabupaten: q.Kabupaten,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	payload, err := h.service.ReportJSON(ctx, family, date, filter)
	if err != nil {
		h.respondServiceError(w, family, err)
		return
	}
	h.countReport(family, "ok")
	httpx.Raw(w, http.StatusOK, payload)
}

func (h *Handler) handleFamilies(w http.ResponseWriter, r *http.Request) {
	type familyVM struct {
		Key         string `json:"key"`
		Label       string `json:"label"`
		LatencyDays int    `json:"latency_days"`
	}
	specs := rollup.Families()
	out := make([]familyVM, 0, len(specs))
	for _, spec := range specs {
		out = append(out, familyVM{Key: spec.Key, Label: spec.Label, LatencyDays: spec.LatencyDays})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, family string, err error) {
	switch {
	case errors.Is(err, rollup.ErrUnknownFamily):
		h.countReport(family, "unknown_family")
		httpx.Problem(w, http.StatusBadRequest, "Unknown Metric Family", family)
	case errors.Is(err, warehouse.ErrUnavailable):
		h.countReport(family, "unavailable")
		h.logError("warehouse read", err)
		httpx.Problem(w, http.StatusServiceUnavailable, "Warehouse Unavailable", "retry the request")
	case errors.Is(err, context.DeadlineExceeded):
		h.countReport(family, "timeout")
		h.logError("report timeout", err)
		httpx.Problem(w, http.StatusServiceUnavailable, "Report Timed Out", "retry the request")
	default:
		h.countReport(family, "error")
		h.logError("build report", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) countReport(family, status string) {
	if h.metrics != nil {
		h.metrics.ReportComputed(family, status)
	}
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
