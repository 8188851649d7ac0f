package azure

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement/v2"

	"github.com/vnmchuo/cloudsaver/internal/billing"
)

type mockQuerier struct {
	scope string
	def   armcostmanagement.QueryDefinition
	resp  armcostmanagement.QueryClientUsageResponse
	err   error
}

func (m *mockQuerier) Usage(ctx context.Context, scope string, parameters armcostmanagement.QueryDefinition, options *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error) {
	m.scope = scope
	m.def = parameters
	return m.resp, m.err
}

func TestQueryUsage_MapsQueryAndRows(t *testing.T) {
	m := &mockQuerier{}
	m.resp.Properties = &armcostmanagement.QueryProperties{
		Columns: []*armcostmanagement.QueryColumn{
			{Name: to.Ptr("Cost")},
			{Name: to.Ptr("UsageDate")},
			{Name: to.Ptr("ResourceId")},
		},
		Rows: [][]any{
			{150.0, "2024-01-01", "VM1"},
			{50.0, "2024-01-02", "VM2"},
		},
	}
	c := &CostManagementClient{query: m}

	res, err := c.QueryUsage(context.Background(), billing.SubscriptionScope("sub-1"), billing.MonthToDateUsage())
	if err != nil {
		t.Fatalf("QueryUsage failed: %v", err)
	}

	if m.scope != "subscriptions/sub-1" {
		t.Errorf("Expected scope subscriptions/sub-1, got %s", m.scope)
	}
	if *m.def.Type != armcostmanagement.ExportTypeUsage {
		t.Errorf("Expected Usage, got %s", *m.def.Type)
	}
	if *m.def.Timeframe != armcostmanagement.TimeframeTypeMonthToDate {
		t.Errorf("Expected MonthToDate, got %s", *m.def.Timeframe)
	}
	if *m.def.Dataset.Granularity != armcostmanagement.GranularityTypeDaily {
		t.Errorf("Expected Daily, got %s", *m.def.Dataset.Granularity)
	}
	agg := m.def.Dataset.Aggregation["totalCost"]
	if agg == nil || *agg.Name != "Cost" || *agg.Function != armcostmanagement.FunctionTypeSum {
		t.Errorf("Expected totalCost = Sum(Cost), got %+v", agg)
	}

	if len(res.Columns) != 3 || res.Columns[1] != "UsageDate" {
		t.Errorf("Unexpected columns %v", res.Columns)
	}
	if len(res.Rows) != 2 || res.Rows[0][2] != "VM1" {
		t.Errorf("Unexpected rows %v", res.Rows)
	}
}

func TestQueryUsage_NoProperties(t *testing.T) {
	c := &CostManagementClient{query: &mockQuerier{}}

	res, err := c.QueryUsage(context.Background(), "subscriptions/sub", billing.MonthToDateUsage())
	if err != nil {
		t.Fatalf("QueryUsage failed: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(res.Rows))
	}
}

func TestQueryUsage_Error(t *testing.T) {
	upstreamErr := errors.New("429 too many requests")
	c := &CostManagementClient{query: &mockQuerier{err: upstreamErr}}

	_, err := c.QueryUsage(context.Background(), "subscriptions/sub", billing.MonthToDateUsage())
	if !errors.Is(err, upstreamErr) {
		t.Errorf("Expected wrapped upstream error, got %v", err)
	}
}
