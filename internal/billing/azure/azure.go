package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement/v2"

	"github.com/vnmchuo/cloudsaver/internal/billing"
)

// usageQuerier is the slice of armcostmanagement.QueryClient we depend on.
type usageQuerier interface {
	Usage(ctx context.Context, scope string, parameters armcostmanagement.QueryDefinition, options *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error)
}

// CostManagementClient queries Azure Cost Management.
type CostManagementClient struct {
	query usageQuerier
}

// New builds a client authenticated with the default Azure credential chain
// (environment, workload identity, managed identity, Azure CLI).
func New() (billing.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure credential: %w", err)
	}
	return NewWithCredential(cred)
}

func NewWithCredential(cred azcore.TokenCredential) (billing.Client, error) {
	qc, err := armcostmanagement.NewQueryClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}
	return &CostManagementClient{query: qc}, nil
}

func (c *CostManagementClient) QueryUsage(ctx context.Context, scope string, q billing.Query) (*billing.Result, error) {
	resp, err := c.query.Usage(ctx, scope, mapQuery(q), nil)
	if err != nil {
		return nil, fmt.Errorf("cost management usage query failed: %w", err)
	}

	result := &billing.Result{}
	if resp.Properties == nil {
		return result, nil
	}
	for _, col := range resp.Properties.Columns {
		if col != nil && col.Name != nil {
			result.Columns = append(result.Columns, *col.Name)
		}
	}
	result.Rows = resp.Properties.Rows
	return result, nil
}

func mapQuery(q billing.Query) armcostmanagement.QueryDefinition {
	aggregation := make(map[string]*armcostmanagement.QueryAggregation, len(q.Aggregations))
	for alias, agg := range q.Aggregations {
		aggregation[alias] = &armcostmanagement.QueryAggregation{
			Name:     to.Ptr(agg.Name),
			Function: to.Ptr(armcostmanagement.FunctionType(agg.Function)),
		}
	}

	return armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportType(q.Type)),
		Timeframe: to.Ptr(armcostmanagement.TimeframeType(q.Timeframe)),
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityType(q.Granularity)),
			Aggregation: aggregation,
		},
	}
}
