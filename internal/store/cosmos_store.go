package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/vnmchuo/cloudsaver/internal/costs"
)

type itemUpserter interface {
	UpsertItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
}

// CosmosStore writes documents into one Cosmos DB container. The container
// must be partitioned on /tenantId.
type CosmosStore struct {
	container itemUpserter
}

func NewCosmosStore(endpoint, key, databaseID, containerID string) (*CosmosStore, error) {
	cred, err := azcosmos.NewKeyCredential(key)
	if err != nil {
		return nil, fmt.Errorf("invalid cosmos key: %w", err)
	}
	client, err := azcosmos.NewClientWithKey(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cosmos client: %w", err)
	}
	container, err := client.NewContainer(databaseID, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to open cosmos container %s/%s: %w", databaseID, containerID, err)
	}
	return &CosmosStore{container: container}, nil
}

func (s *CosmosStore) Upsert(ctx context.Context, doc *costs.Document) error {
	if err := validate(doc); err != nil {
		return err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	pk := azcosmos.NewPartitionKeyString(doc.TenantID)
	if _, err := s.container.UpsertItem(ctx, pk, body, nil); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	return nil
}
