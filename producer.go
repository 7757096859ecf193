// Package quartermaster producer implementation.
// Mints item keys, writes payload and metadata, and pushes onto the head
// of the unprocessed sublist (spec §4.3).
package quartermaster

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// EnqueueItems mints a fresh item key for each payload, writes its payload
// and metadata records, and pushes it onto the head of *unprocessed*, in
// the given order. The three Redis commands for one item are not atomic as
// a group (spec §9 Open Question, preserved): a crash between the meta
// write and the list push leaks an orphan item-*/meta-* pair, which is
// acceptable — it is unreachable via any sublist and is operator-GC'd.
//
// payloads must be nonempty; an empty list is a usage error.
func (c *Client) EnqueueItems(ctx context.Context, payloads [][]byte) ([]Item, error) {
	if len(payloads) == 0 {
		return nil, NewError(ErrUsageInvalid, "enqueue_items requires a nonempty payload list", "")
	}

	items := make([]Item, 0, len(payloads))
	for _, payload := range payloads {
		item, err := c.enqueueOne(ctx, payload)
		if err != nil {
			return items, err
		}
		items = append(items, item)
		if c.metrics != nil {
			c.metrics.enqueues.WithLabelValues(c.queue.Name).Inc()
		}
	}
	return items, nil
}

// EnqueueItem is the legacy singular alias (Design Note 9: trivial
// forwarding shim, no new semantics).
func (c *Client) EnqueueItem(ctx context.Context, payload []byte) (Item, error) {
	items, err := c.EnqueueItems(ctx, [][]byte{payload})
	if err != nil {
		return Item{}, err
	}
	return items[0], nil
}

func (c *Client) enqueueOne(ctx context.Context, payload []byte) (Item, error) {
	id := uuid.New()
	key := ItemKey(fmt.Sprintf("%s-%s", c.queue.Name, hex.EncodeToString(id[:])))

	created, err := c.gw.setNX(ctx, itemRecordKey(key), payload)
	if err != nil {
		return Item{}, NewError(err, "setnx item payload failed", key)
	}
	if !created {
		// Negligible-probability collision: fatal per spec §4.3 — the
		// producer is expected to retry with a new key, never to
		// silently overwrite.
		return Item{}, NewError(ErrKeyCollision, "item key already existed", key)
	}

	now := unixSecondsNow()
	meta := Metadata{ProcessCount: 0, BailCount: 0, TimeCreated: now, TimeEnqueued: now}
	if err := c.writeMeta(ctx, key, meta); err != nil {
		return Item{}, NewError(err, "hset item metadata failed", key)
	}

	if err := c.gw.lPush(ctx, c.queue.SublistKey(SublistUnprocessed), string(key)); err != nil {
		return Item{}, NewError(err, "lpush onto unprocessed failed", key)
	}

	return Item{Key: key, Payload: payload, Meta: meta}, nil
}

func (c *Client) writeMeta(ctx context.Context, key ItemKey, meta Metadata) error {
	fields := map[string]interface{}{
		"process_count": meta.ProcessCount,
		"bail_count":    meta.BailCount,
		"time_created":  meta.TimeCreated,
		"time_enqueued": meta.TimeEnqueued,
	}
	if meta.LastError != "" {
		fields["last_error"] = meta.LastError
	}
	return c.gw.hSet(ctx, metaRecordKey(key), fields)
}
