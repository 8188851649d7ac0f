package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vnmchuo/cloudsaver/internal/billing"
	"github.com/vnmchuo/cloudsaver/internal/costs"
	"github.com/vnmchuo/cloudsaver/internal/store"
	"github.com/vnmchuo/cloudsaver/internal/tenant"
	"github.com/vnmchuo/cloudsaver/pkg/ratelimit"
)

const processingFailed = "Failed to process cost data"

// Report is the response body of a successful cost analysis.
type Report struct {
	Costs           []costs.CostRecord `json:"costs"`
	Recommendations []string           `json:"recommendations"`
}

type Handler struct {
	billing        billing.Client
	store          store.Store
	limiter        *ratelimit.Limiter
	tracer         trace.Tracer
	subscriptionID string
}

// NewHandler wires the long-lived clients into the handler. limiter may be
// nil, which disables rate limiting.
func NewHandler(billing billing.Client, store store.Store, limiter *ratelimit.Limiter, tracer trace.Tracer, subscriptionID string) *Handler {
	return &Handler{
		billing:        billing,
		store:          store,
		limiter:        limiter,
		tracer:         tracer,
		subscriptionID: subscriptionID,
	}
}

// HandleCostAnalysis serves GET /api/cost-analysis.
func (h *Handler) HandleCostAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		tenant.WriteUnauthorized(w)
		return
	}
	requestID := tenant.GetRequestID(ctx)

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, tenantID)
		if err != nil {
			log.Printf("ratelimit: tenant %s: %v", tenantID, err)
		} else if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error":       "rate limit exceeded",
				"retry_after": "60s",
			})
			return
		}
	}

	report, err := h.Analyze(ctx, tenantID, requestID)
	if err != nil {
		log.Printf("analysis: tenant %s request %s: %v", tenantID, requestID, err)
		writeError(w, http.StatusInternalServerError, processingFailed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}

// Analyze runs one fetch, map, recommend, upsert pass for tenantID. Upserts
// are sequential and stop at the first failure; documents written before it
// stay written.
func (h *Handler) Analyze(ctx context.Context, tenantID, requestID string) (*Report, error) {
	ctx, span := h.tracer.Start(ctx, "costs.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("request_id", requestID),
	)

	result, err := h.query(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "billing query failed")
		return nil, err
	}

	records, err := costs.MapRows(result.Rows, tenantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mapping failed")
		return nil, err
	}

	recommendations := costs.Recommend(records)
	span.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("recommendations", len(recommendations)),
	)

	for i, record := range records {
		if err := h.upsert(ctx, costs.NewDocument(record, recommendations)); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "store upsert failed")
			return nil, fmt.Errorf("record %d of %d: %w", i+1, len(records), err)
		}
	}

	return &Report{Costs: records, Recommendations: recommendations}, nil
}

func (h *Handler) query(ctx context.Context) (*billing.Result, error) {
	ctx, span := h.tracer.Start(ctx, "costs.query")
	defer span.End()
	span.SetAttributes(attribute.String("subscription_id", h.subscriptionID))

	result, err := h.billing.QueryUsage(ctx, billing.SubscriptionScope(h.subscriptionID), billing.MonthToDateUsage())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("billing query: %w", err)
	}
	if result == nil {
		return &billing.Result{}, nil
	}
	span.SetAttributes(attribute.Int("rows", len(result.Rows)))
	return result, nil
}

func (h *Handler) upsert(ctx context.Context, doc *costs.Document) error {
	ctx, span := h.tracer.Start(ctx, "costs.upsert")
	defer span.End()
	span.SetAttributes(attribute.String("document_id", doc.ID))

	if err := h.store.Upsert(ctx, doc); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store upsert: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
