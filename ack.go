// Package quartermaster acknowledge path (C7).
// MarkItemsAsProcessed removes completed items from *working* and GCs
// their payload/meta records, grounded on the teacher's pipelined-
// callback shape (gateway.go's requestBatch) and on consumer.go's ack,
// which likewise fires a single Redis command per completed message and
// tolerates it being a no-op if another client already acted first.
package quartermaster

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// AckResult partitions MarkItemsAsProcessed's input into items the LREM
// actually found in *working* (Flushed) and items that were already gone
// — most likely already requeued by the expiry reclaimer (Failed).
type AckResult struct {
	Flushed []ItemKey
	Failed  []ItemKey
}

const ackChunkSize = 100

// MarkItemsAsProcessed removes each item from *working* via LREM, then
// deletes the flushed items' item-*/meta-* records in chunks of up to 100.
func (c *Client) MarkItemsAsProcessed(ctx context.Context, items []Item) (AckResult, error) {
	keys := make([]ItemKey, len(items))
	for i, item := range items {
		keys[i] = item.Key
	}
	return c.markKeysAsProcessed(ctx, keys)
}

func (c *Client) markKeysAsProcessed(ctx context.Context, keys []ItemKey) (AckResult, error) {
	if len(keys) == 0 {
		return AckResult{}, nil
	}

	batch := c.gw.Pipeline()
	lremCmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		lremCmds[i] = batch.Pipe().LRem(ctx, c.workingKey(), 1, string(key))
		batch.queue(func(redis.Cmder) {})
	}
	if err := batch.WaitAll(ctx); err != nil {
		return AckResult{}, NewError(err, "mark_items_as_processed lrem pipeline failed", "")
	}

	var result AckResult
	for i, key := range keys {
		n, err := lremCmds[i].Result()
		if err == nil && n >= 1 {
			result.Flushed = append(result.Flushed, key)
		} else {
			result.Failed = append(result.Failed, key)
		}
	}

	if err := c.deleteRecords(ctx, result.Flushed); err != nil {
		return result, err
	}

	if c.metrics != nil {
		c.metrics.acks.WithLabelValues(c.queue.Name, "flushed").Add(float64(len(result.Flushed)))
		c.metrics.acks.WithLabelValues(c.queue.Name, "failed").Add(float64(len(result.Failed)))
	}
	return result, nil
}

// deleteRecords DELs item-*/meta-* for every flushed key in chunks of up
// to 100, logging (not failing) when the observed delete count disagrees
// with what was expected — another client may have already cleaned up.
func (c *Client) deleteRecords(ctx context.Context, keys []ItemKey) error {
	for start := 0; start < len(keys); start += ackChunkSize {
		end := start + ackChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		recordKeys := make([]string, 0, len(chunk)*2)
		for _, key := range chunk {
			recordKeys = append(recordKeys, itemRecordKey(key), metaRecordKey(key))
		}

		deleted, err := c.gw.del(ctx, recordKeys...)
		if err != nil {
			return NewError(err, "del item/meta records failed", "")
		}
		if deleted != int64(len(recordKeys)) {
			c.logger.Warn("delete count mismatch during ack cleanup",
				"expected", len(recordKeys), "deleted", deleted)
		}
	}
	return nil
}
