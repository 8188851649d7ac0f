// Package store persists cost documents. Every backend upserts by document
// ID, so writing the same document twice leaves one copy.
package store

import (
	"context"
	"errors"

	"github.com/vnmchuo/cloudsaver/internal/costs"
)

var ErrMissingID = errors.New("document id is required")

type Store interface {
	Upsert(ctx context.Context, doc *costs.Document) error
}

func validate(doc *costs.Document) error {
	if doc == nil || doc.ID == "" {
		return ErrMissingID
	}
	return nil
}
