package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/olivekit/oliveapi/pkg/observability"
	"github.com/olivekit/oliveapi/pkg/queue"
)

// Queueable is implemented by entities that can survive a mutation made
// while the network is down. QueueID identifies the entity inside cached
// listings; SetQueueStatus lets the client stamp the entity when its
// mutation is queued rather than applied.
type Queueable interface {
	QueueID() string
	SetQueueStatus(status queue.Status, at time.Time)
}

// QueueState is an embeddable implementation of the status half of
// Queueable. Embed it in an entity and add a QueueID method.
type QueueState struct {
	QueueStatus   queue.Status `json:"-" bson:"-"`
	QueueStatusAt time.Time    `json:"-" bson:"-"`
}

func (s *QueueState) SetQueueStatus(status queue.Status, at time.Time) {
	s.QueueStatus = status
	s.QueueStatusAt = at
}

// enqueueOffline records a mutation that could not reach the network. The
// entity is stamped as added, the request is written to the durable
// store, and cached listings are patched so subsequent reads reflect the
// local change.
func (c *Client) enqueueOffline(ctx context.Context, ns string, ri *RequestInfo, e Queueable) {
	item := queue.NewItem(e.QueueID(), ns, queue.Request{
		Method:      ri.Method,
		URL:         ri.URL,
		Body:        ri.Body,
		ContentType: ri.ContentType,
	})
	e.SetQueueStatus(queue.StatusAdded, item.AddedAt)

	// Success is reported to the caller regardless of the write below;
	// a failed write is surfaced through logs and the persist-error hook.
	if err := c.store.Append(ctx, item); err != nil {
		c.logger.Error("offline queue write failed", "id", item.ID, "url", ri.URL, "err", err)
		observability.Queue().OnPersistError(ctx, err)
	}
	observability.Queue().OnEnqueue(ctx, item.ID, ri.Method, ri.URL)

	c.patchCachedListings(ctx, ns, ri.Method, e)
}

// patchCachedListings rewrites every cached entry in the entity's
// namespace so offline mutations are visible to cache-served reads:
// deletes remove the entity from cached collections, updates replace it
// in place. Patch failures only cost freshness, so they are logged and
// ignored.
func (c *Client) patchCachedListings(ctx context.Context, ns, method string, e Queueable) {
	keys, err := c.cache.Keys(ctx, ns+"/")
	if err != nil {
		c.logger.Warn("listing cached entries for offline patch failed", "namespace", ns, "err", err)
		return
	}

	entityJSON, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("encoding entity for offline patch failed", "namespace", ns, "err", err)
		return
	}
	id := e.QueueID()
	remove := method == http.MethodDelete

	for _, key := range keys {
		data, hit, err := c.cache.Get(ctx, key)
		if err != nil || !hit {
			continue
		}
		patched, changed, drop := patchJSON(data, id, entityJSON, remove)
		if !changed {
			continue
		}
		if drop {
			if err := c.cache.Delete(ctx, key); err != nil {
				c.logger.Warn("dropping patched cache entry failed", "key", key, "err", err)
			}
			continue
		}
		if err := c.cache.Set(ctx, key, patched, 0); err != nil {
			c.logger.Warn("writing patched cache entry failed", "key", key, "err", err)
		}
	}
}

// patchJSON applies an entity-level edit to one cached JSON document.
// Collections have the matching element removed or replaced; a cached
// single object that matches is either replaced or reported for dropping.
// Documents without a match come back unchanged.
func patchJSON(data []byte, id string, entityJSON []byte, remove bool) (patched []byte, changed, drop bool) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, false
	}

	switch v := doc.(type) {
	case []any:
		out := v[:0]
		for _, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok || !idMatches(m, id) {
				out = append(out, elem)
				continue
			}
			changed = true
			if remove {
				continue
			}
			var replacement any
			if err := json.Unmarshal(entityJSON, &replacement); err != nil {
				return nil, false, false
			}
			out = append(out, replacement)
		}
		if !changed {
			return nil, false, false
		}
		patched, err := json.Marshal(out)
		if err != nil {
			return nil, false, false
		}
		return patched, true, false

	case map[string]any:
		if !idMatches(v, id) {
			return nil, false, false
		}
		if remove {
			return nil, true, true
		}
		return entityJSON, true, false

	default:
		return nil, false, false
	}
}

// idMatches checks the conventional identifier fields of a decoded JSON
// object against the entity ID. Numeric IDs compare by their decimal
// rendering.
func idMatches(m map[string]any, id string) bool {
	for _, field := range []string{"ID", "Id", "id"} {
		v, ok := m[field]
		if !ok {
			continue
		}
		if f, ok := v.(float64); ok {
			if fmt.Sprintf("%.0f", f) == id {
				return true
			}
			continue
		}
		if fmt.Sprint(v) == id {
			return true
		}
	}
	return false
}

// ReplayQueue re-sends every pending queued mutation in arrival order.
// Each item ends up applied or rejected; a rejected item keeps its error
// for inspection and is not retried again. The returned counts cover this
// invocation only.
func (c *Client) ReplayQueue(ctx context.Context) (applied, rejected int, err error) {
	if c.store == nil {
		return 0, 0, nil
	}
	items, err := c.store.Pending(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, item := range items {
		replayed, rerr := c.ReplayItem(ctx, item)
		if rerr != nil {
			return applied, rejected, rerr
		}
		if replayed.Status == queue.StatusApplied {
			applied++
		} else {
			rejected++
		}
	}
	return applied, rejected, nil
}

// ReplayItem re-sends one queued mutation and persists its outcome. The
// returned item carries the new status. The error return covers replay
// machinery (auth, store access), not the mutation itself; a mutation the
// server rejects comes back as StatusRejected with a nil error.
func (c *Client) ReplayItem(ctx context.Context, item queue.Item) (queue.Item, error) {
	ri := &RequestInfo{
		Method:      item.Request.Method,
		URL:         item.Request.URL,
		Body:        item.Request.Body,
		ContentType: item.Request.ContentType,
		Headers:     map[string]string{},
		silent:      true,
	}
	if err := c.prepareAuth(ctx, ri); err != nil {
		c.logger.Error("replay auth failed", "id", item.ID, "err", err)
		return item, err
	}

	if err := c.do(ctx, ri); err == nil {
		item.MarkApplied()
	} else {
		item.MarkRejected(err)
	}
	observability.Queue().OnReplay(ctx, item.ID, item.Status == queue.StatusApplied)

	if err := c.store.Update(ctx, item); err != nil {
		c.logger.Error("recording replay outcome failed", "id", item.ID, "err", err)
		observability.Queue().OnPersistError(ctx, err)
	}
	return item, nil
}
