// Package messaging publishes indexer progress to downstream consumers.
package messaging

import (
	"context"

	"github.com/nautilusoss/voi-indexer/internal/domain"
)

// Publisher defines the interface for publishing events to the message broker
type Publisher interface {
	// PublishContractSynced publishes a committed sync window
	PublishContractSynced(ctx context.Context, event *domain.ContractSyncedEvent) error
	// Close closes the connection
	Close()
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishContractSynced(context.Context, *domain.ContractSyncedEvent) error {
	return nil
}

func (NopPublisher) Close() {}
