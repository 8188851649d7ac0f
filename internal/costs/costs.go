// Package costs turns billing rows into tenant cost records and derives the
// threshold recommendations stored alongside them.
package costs

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HighCostThreshold is the cost above which a record gets a recommendation.
// The unit is whatever currency the billing API reports in.
const HighCostThreshold = 100

var ErrMalformedRow = errors.New("malformed billing row")

type CostRecord struct {
	Date     string  `json:"date"`
	Cost     float64 `json:"cost"`
	Resource string  `json:"resource"`
	TenantID string  `json:"tenantId"`
}

// Document is the persisted form of a CostRecord.
type Document struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	Cost            float64  `json:"cost"`
	Resource        string   `json:"resource"`
	TenantID        string   `json:"tenantId"`
	Recommendations []string `json:"recommendations"`
}

// MapRows interprets each row positionally as (cost, date, resource).
func MapRows(rows [][]any, tenantID string) ([]CostRecord, error) {
	records := make([]CostRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("%w: row %d has %d columns, want at least 3", ErrMalformedRow, i, len(row))
		}
		cost, err := toFloat(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d cost: %v", ErrMalformedRow, i, err)
		}
		if math.IsNaN(cost) || math.IsInf(cost, 0) {
			return nil, fmt.Errorf("%w: row %d cost is not finite: %v", ErrMalformedRow, i, cost)
		}
		records = append(records, CostRecord{
			Date:     toString(row[1]),
			Cost:     cost,
			Resource: toString(row[2]),
			TenantID: tenantID,
		})
	}
	return records, nil
}

// Recommend returns one recommendation per record whose cost is strictly
// above HighCostThreshold, in record order.
func Recommend(records []CostRecord) []string {
	recs := make([]string, 0)
	for _, r := range records {
		if r.Cost > HighCostThreshold {
			recs = append(recs, fmt.Sprintf("High cost for %s. Consider resizing or scheduling shutdown.", r.Resource))
		}
	}
	return recs
}

// ForResource returns the recommendations whose text contains resource.
// This is substring containment, so "VM1" also picks up the message for
// "VM10".
func ForResource(recommendations []string, resource string) []string {
	matched := make([]string, 0)
	for _, rec := range recommendations {
		if strings.Contains(rec, resource) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// DocumentID is the store key of a record: tenantId_date_resource.
func DocumentID(r CostRecord) string {
	return r.TenantID + "_" + r.Date + "_" + r.Resource
}

// NewDocument builds the persisted document for r, attaching every
// recommendation that mentions r's resource.
func NewDocument(r CostRecord, recommendations []string) *Document {
	return &Document{
		ID:              DocumentID(r),
		Date:            r.Date,
		Cost:            r.Cost,
		Resource:        r.Resource,
		TenantID:        r.TenantID,
		Recommendations: ForResource(recommendations, r.Resource),
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported cost value %v (%T)", v, v)
	}
}

// toString renders a date or resource cell. Azure returns UsageDate as a
// number like 20240101, which must not come out as 2.0240101e+07. A missing
// cell renders as "null" so its document id stays distinct, e.g.
// tenant_null_VM1.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
