// Package quartermaster expiry reclaimer (C10).
// HandleExpiredItems recovers items a consumer claimed but never
// acknowledged, grounded directly on the teacher's reclaimIdleMessages +
// runReclaimer ticker loop (consumer.go) — generalized from
// XPendingExt/XClaim idle-message recovery to LRANGE of the working
// sublist plus a pipelined metadata fetch.
package quartermaster

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ExpiryAction selects what HandleExpiredItems does with an expired item.
type ExpiryAction string

const (
	// ExpiryRequeue sends the item back through requeue_busy (counts as
	// an attempt, head of unprocessed).
	ExpiryRequeue ExpiryAction = "requeue"
	// ExpiryDrop removes the item from *working* and lets its
	// item-*/meta-* records leak for operator cleanup.
	ExpiryDrop ExpiryAction = "drop"
)

// HandleExpiredItems scans *working* for items whose time_enqueued is
// older than timeout (default cfg.BusyExpiryTime when timeout is zero)
// and applies action to each. Returns the keys that were reclaimed.
func (c *Client) HandleExpiredItems(ctx context.Context, timeout time.Duration, action ExpiryAction) ([]ItemKey, error) {
	if timeout == 0 {
		timeout = c.cfg.BusyExpiryTime
	}

	keys, err := c.gw.lRange(ctx, c.workingKey(), 0, -1)
	if err != nil {
		return nil, NewError(err, "lrange working sublist failed", "")
	}
	if len(keys) == 0 {
		return nil, nil
	}

	metaByKey, err := c.fetchMetaBulk(ctx, keys)
	if err != nil {
		return nil, err
	}

	cutoff := unixSecondsNow() - timeout.Seconds()
	var reclaimed []ItemKey
	for _, k := range keys {
		key := ItemKey(k)
		meta, ok := metaByKey[key]
		if !ok || meta.TimeEnqueued >= cutoff {
			continue
		}

		switch action {
		case ExpiryRequeue:
			ok, err := c.runRequeue(ctx, c.workingKey(), key, placeHead, "", true)
			if err != nil {
				return reclaimed, err
			}
			if ok {
				reclaimed = append(reclaimed, key)
			}
		case ExpiryDrop:
			n, err := c.gw.lRem(ctx, c.workingKey(), -1, string(key))
			if err != nil {
				c.logger.Warn("handle_expired_items drop lrem failed", "item", key, "error", err)
				continue
			}
			if n > 0 {
				reclaimed = append(reclaimed, key)
			}
		default:
			return reclaimed, NewError(ErrUsageInvalid, "unknown expiry action", key)
		}
	}

	if c.metrics != nil {
		c.metrics.reclaims.WithLabelValues(c.queue.Name).Add(float64(len(reclaimed)))
	}
	return reclaimed, nil
}

func (c *Client) fetchMetaBulk(ctx context.Context, keys []string) (map[ItemKey]Metadata, error) {
	batch := c.gw.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = batch.Pipe().HGetAll(ctx, metaRecordKey(ItemKey(k)))
		batch.queue(func(redis.Cmder) {})
	}
	if err := batch.WaitAll(ctx); err != nil {
		return nil, NewError(err, "pipelined metadata fetch failed", "")
	}

	out := make(map[ItemKey]Metadata, len(keys))
	for i, k := range keys {
		fields, err := cmds[i].Result()
		if err != nil {
			continue
		}
		out[ItemKey(k)] = parseMetadata(fields)
	}
	return out, nil
}

// RunReclaimer runs HandleExpiredItems on a ticker until ctx is canceled,
// the teacher's runReclaimer (consumer.go) pattern carried over verbatim:
// a background ticker loop calling a one-shot reclaim function, with
// errors logged rather than propagated since there is no caller left to
// receive them.
func (c *Client) RunReclaimer(ctx context.Context, interval, timeout time.Duration, action ExpiryAction) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.HandleExpiredItems(ctx, timeout, action); err != nil {
				c.logger.Warn("reclaimer pass failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
