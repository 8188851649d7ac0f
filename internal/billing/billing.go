package billing

import (
	"context"
	"fmt"
)

// Aggregation asks the billing API to fold a column, e.g. Sum(Cost).
type Aggregation struct {
	Name     string
	Function string
}

type Query struct {
	Type         string // "Usage"
	Timeframe    string // "MonthToDate"
	Granularity  string // "Daily"
	Aggregations map[string]Aggregation
}

// Result is the tabular answer of a usage query. Rows are positional; the
// column order is whatever the upstream query returned.
type Result struct {
	Columns []string
	Rows    [][]any
}

type Client interface {
	QueryUsage(ctx context.Context, scope string, q Query) (*Result, error)
}

// MonthToDateUsage is the query issued for every cost analysis: daily usage
// since the start of the month with the cost column summed.
func MonthToDateUsage() Query {
	return Query{
		Type:        "Usage",
		Timeframe:   "MonthToDate",
		Granularity: "Daily",
		Aggregations: map[string]Aggregation{
			"totalCost": {Name: "Cost", Function: "Sum"},
		},
	}
}

// SubscriptionScope returns the query scope for a subscription.
func SubscriptionScope(subscriptionID string) string {
	return fmt.Sprintf("subscriptions/%s", subscriptionID)
}
