// Package queue provides durable storage for mutating API calls made while
// the network was unavailable.
//
// When a POST/PUT/PATCH/DELETE fails with a connectivity error, the client
// records the original request as a queue item with status Added. A later
// replay re-sends each Added item and marks it Applied or Rejected.
// Rejected items are never retried automatically; resolving them is an
// explicit operator decision (inspect, clear, or re-queue).
//
// Two storage backends are provided:
//   - file: A single JSON array file. The whole file is the unit of
//     durability; every read loads it, every write rewrites it atomically
//     under a process-wide lock.
//   - mongo: One document per item, for deployments that already run
//     MongoDB and want the queue visible across instances.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a queued mutation.
type Status string

const (
	// StatusAdded marks a mutation waiting to be replayed.
	StatusAdded Status = "added"
	// StatusApplied marks a mutation that replayed successfully.
	StatusApplied Status = "applied"
	// StatusRejected marks a mutation whose replay failed. It stays in the
	// store until explicitly cleared or re-queued.
	StatusRejected Status = "rejected"
)

// Request describes the original HTTP exchange well enough to replay it.
type Request struct {
	Method      string `json:"method" bson:"method"`
	URL         string `json:"url" bson:"url"`
	Body        string `json:"body,omitempty" bson:"body,omitempty"`
	ContentType string `json:"content_type,omitempty" bson:"content_type,omitempty"`
}

// Item is one queued mutation.
type Item struct {
	ID        string    `json:"id" bson:"id"`
	EntityID  string    `json:"entity_id,omitempty" bson:"entity_id,omitempty"`
	Namespace string    `json:"namespace,omitempty" bson:"namespace,omitempty"`
	Request   Request   `json:"request" bson:"request"`
	Status    Status    `json:"status" bson:"status"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	Attempts  int       `json:"attempts" bson:"attempts"`
	LastError string    `json:"last_error,omitempty" bson:"last_error,omitempty"`
}

// NewItem creates an Added item for the given entity and request.
// The namespace ties the item back to the cached listings it may need to
// patch, and matches the response-cache namespace of the entity's type.
func NewItem(entityID, namespace string, req Request) Item {
	now := time.Now().UTC()
	return Item{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		Namespace: namespace,
		Request:   req,
		Status:    StatusAdded,
		AddedAt:   now,
		UpdatedAt: now,
	}
}

// MarkApplied transitions the item after a successful replay.
func (i *Item) MarkApplied() {
	i.Status = StatusApplied
	i.UpdatedAt = time.Now().UTC()
	i.Attempts++
	i.LastError = ""
}

// MarkRejected transitions the item after a failed replay.
func (i *Item) MarkRejected(err error) {
	i.Status = StatusRejected
	i.UpdatedAt = time.Now().UTC()
	i.Attempts++
	if err != nil {
		i.LastError = err.Error()
	}
}

// Store is the interface for queue storage backends.
type Store interface {
	// All returns every item in the store, oldest first.
	All(ctx context.Context) ([]Item, error)

	// Pending returns items with status Added, oldest first.
	Pending(ctx context.Context) ([]Item, error)

	// Append adds a new item.
	Append(ctx context.Context, item Item) error

	// Update replaces the stored item with the same ID.
	Update(ctx context.Context, item Item) error

	// Clear removes every item.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
