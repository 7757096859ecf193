// Package quartermaster failure-area processing (C9).
// ProcessFailedItems, HandleFailedItems, and RemoveFailedItems operate on
// the failed sublist. Grounded on the teacher's reclaimIdleMessages
// (consumer.go) for the "snapshot, iterate, per-item branch, isolate
// per-item errors" shape, and moveToDeadLetter for "read metadata, act,
// then housekeeping" — here generalized from XPendingExt/XClaim to
// RENAMENX/LRANGE/RPUSH.
package quartermaster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// FailedItemCallback is invoked once per item snapshotted from *failed*.
// An error return is isolated: it increments the error_count but does not
// abort iteration over the remaining items.
type FailedItemCallback func(ctx context.Context, item Item) error

// ProcessFailedItems snapshots *failed* into a temp key, invokes callback
// for up to maxCount items (0 means all), restores any overflow back onto
// Q_failed, and returns (itemCount, errorCount).
func (c *Client) ProcessFailedItems(ctx context.Context, maxCount int, callback FailedItemCallback) (int, int, error) {
	tempKey := c.queue.TempFailedKey(uuid.New().String())

	renamed, err := c.gw.renameNX(ctx, c.failedKey(), tempKey)
	if err != nil {
		return 0, 0, NewError(err, "renamenx failed sublist to temp key failed", "")
	}
	if !renamed {
		return 0, 0, NewError(ErrRenameCollision, fmt.Sprintf("temp key %q already existed", tempKey), "")
	}

	stop := int64(-1)
	if maxCount > 0 {
		stop = int64(maxCount - 1)
	}
	keys, err := c.gw.lRange(ctx, tempKey, 0, stop)
	if err != nil {
		return 0, 0, NewError(err, "lrange temp failed key failed", "")
	}

	itemCount, errorCount := 0, 0
	for _, k := range keys {
		item, err := c.loadItem(ctx, ItemKey(k))
		if err != nil {
			errorCount++
			continue
		}
		itemCount++
		if err := callback(ctx, item); err != nil {
			errorCount++
			c.logger.Warn("process_failed_items callback error", "item", item.Key, "error", err)
		}
	}

	if maxCount > 0 {
		// keys (indices 0..maxCount-1) already went through the callback
		// above; only the tail beyond that window was never seen and
		// needs to go back onto Q_failed untouched, in its original
		// relative order.
		total, err := c.gw.lLen(ctx, tempKey)
		if err != nil {
			c.logger.Warn("llen temp failed key failed", "error", err)
		} else if total > int64(maxCount) {
			overflow, err := c.gw.lRange(ctx, tempKey, int64(maxCount), -1)
			if err != nil {
				c.logger.Warn("lrange overflow tail failed", "error", err)
			}
			for _, k := range overflow {
				if err := c.gw.rPush(ctx, c.failedKey(), k); err != nil {
					c.logger.Warn("restore overflow item failed", "item", k, "error", err)
				}
			}
		}
	}

	if _, err := c.gw.del(ctx, tempKey); err != nil {
		c.logger.Warn("del temp failed key failed", "error", err)
	}

	return itemCount, errorCount, nil
}

func (c *Client) loadItem(ctx context.Context, key ItemKey) (Item, error) {
	payload, err := c.gw.get(ctx, itemRecordKey(key))
	if err != nil {
		return Item{}, NewError(err, "item payload record missing", key)
	}
	fields, err := c.gw.hGetAll(ctx, metaRecordKey(key))
	if err != nil {
		return Item{}, NewError(err, "item metadata record missing", key)
	}
	return Item{Key: key, Payload: []byte(payload), Meta: parseMetadata(fields)}, nil
}

// HandleFailedItemsAction selects the behavior of HandleFailedItems.
type HandleFailedItemsAction string

const (
	// HandleFailedRequeue retries every parked item via the requeue
	// script (place=head, increment_process_count=0 — it is already in
	// failed, so its attempt was already counted when it landed there).
	HandleFailedRequeue HandleFailedItemsAction = "requeue"
	// HandleFailedReturn pulls every parked item out of *failed* without
	// requeueing it, leaving its item-*/meta-* records untouched.
	HandleFailedReturn HandleFailedItemsAction = "return"
)

// HandleFailedItems snapshots the entire failed sublist and, per action,
// either runs every item through the requeue script (head of *unprocessed*,
// or parked in *failed* again when its process_count still exceeds
// RequeueLimit) or removes it from *failed* without requeueing.
func (c *Client) HandleFailedItems(ctx context.Context, action HandleFailedItemsAction) (int, error) {
	keys, err := c.gw.lRange(ctx, c.failedKey(), 0, -1)
	if err != nil {
		return 0, NewError(err, "lrange failed sublist failed", "")
	}

	handled := 0
	for _, k := range keys {
		key := ItemKey(k)
		switch action {
		case HandleFailedRequeue:
			fields, err := c.gw.hGetAll(ctx, metaRecordKey(key))
			if err != nil {
				c.logger.Warn("handle_failed_items metadata fetch failed", "item", key, "error", err)
				continue
			}
			meta := parseMetadata(fields)
			ok, err := c.runRequeue(ctx, c.failedKey(), key, placeHead, meta.LastError, false)
			if err != nil {
				return handled, err
			}
			if ok {
				handled++
			}
		case HandleFailedReturn:
			n, err := c.gw.lRem(ctx, c.failedKey(), -1, string(key))
			if err != nil {
				c.logger.Warn("handle_failed_items lrem failed", "item", key, "error", err)
				continue
			}
			if n > 0 {
				handled++
			}
		default:
			return handled, NewError(ErrUsageInvalid, fmt.Sprintf("unknown action %q", action), "")
		}
	}
	return handled, nil
}

// RemoveFailedItemsOptions configures RemoveFailedItems' retention policy.
type RemoveFailedItemsOptions struct {
	// MinAge: items created before now-MinAge are dropped.
	MinAge float64
	// MinFailCount: items with process_count >= this are dropped.
	MinFailCount int64
	// Chunk is the maxCount of the single ProcessFailedItems pass. Default 100.
	Chunk int
}

// RemoveFailedItems makes one ProcessFailedItems pass over at most Chunk
// items of the failed sublist and, per item, either deletes its
// item-*/meta-* records (past the retention policy) or pushes it back onto
// the head of Q_failed. Items beyond the first Chunk are restored to
// Q_failed without being examined.
func (c *Client) RemoveFailedItems(ctx context.Context, opts RemoveFailedItemsOptions) (int, int, error) {
	chunk := opts.Chunk
	if chunk == 0 {
		chunk = 100
	}

	now := unixSecondsNow()
	dropped := 0

	itemCount, errorCount, err := c.ProcessFailedItems(ctx, chunk, func(ctx context.Context, item Item) error {
		shouldDrop := item.Meta.ProcessCount >= opts.MinFailCount ||
			(opts.MinAge > 0 && item.Meta.TimeCreated < now-opts.MinAge)

		if shouldDrop {
			if _, err := c.gw.del(ctx, itemRecordKey(item.Key), metaRecordKey(item.Key)); err != nil {
				return err
			}
			dropped++
			return nil
		}
		return c.gw.lPush(ctx, c.failedKey(), string(item.Key))
	})
	if err != nil {
		return itemCount, errorCount, err
	}
	return dropped, errorCount, nil
}
