// Package quartermaster consumer implementation.
// Implements the claim path (C6): atomic tail-of-unprocessed to
// head-of-working transfer, blocking and non-blocking, single and bulk.
package quartermaster

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ClaimItemsNonBlocking claims up to k items without waiting for work to
// appear. It returns a possibly-shorter (even empty) list; callers should
// treat a short result as "no more work right now", not an error.
func (c *Client) ClaimItemsNonBlocking(ctx context.Context, k int) ([]Item, error) {
	if k < 1 {
		return nil, NewError(ErrUsageInvalid, "number_of_items must be >= 1", "")
	}
	if k == 1 {
		return c.claimOneNonBlocking(ctx)
	}
	return c.claimBulkNonBlocking(ctx, k)
}

// ClaimItems claims up to k items, blocking up to ClaimWaitTimeout when
// *unprocessed* is empty.
func (c *Client) ClaimItems(ctx context.Context, k int) ([]Item, error) {
	if k < 1 {
		return nil, NewError(ErrUsageInvalid, "number_of_items must be >= 1", "")
	}
	if k == 1 {
		return c.claimOneBlocking(ctx)
	}
	return c.claimBulkBlocking(ctx, k)
}

func (c *Client) claimOneNonBlocking(ctx context.Context) ([]Item, error) {
	key, err := c.gw.rPopLPush(ctx, c.unprocessedKey(), c.workingKey())
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, NewError(err, "rpoplpush claim failed", "")
	}
	item, err := c.finishClaim(ctx, ItemKey(key))
	if err != nil {
		return nil, err
	}
	return []Item{item}, nil
}

func (c *Client) claimOneBlocking(ctx context.Context) ([]Item, error) {
	// Cheap fast path first: try the non-blocking pop before paying for
	// a BRPOPLPUSH round trip.
	items, err := c.claimOneNonBlocking(ctx)
	if err != nil || len(items) > 0 {
		return items, err
	}

	key, err := c.rdb.BRPopLPush(ctx, c.unprocessedKey(), c.workingKey(), c.cfg.ClaimWaitTimeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, NewError(err, "brpoplpush claim failed", "")
	}
	item, err := c.finishClaim(ctx, ItemKey(key))
	if err != nil {
		return nil, err
	}
	return []Item{item}, nil
}

// claimBulkNonBlocking is the best-effort bulk path: it clamps k to the
// observed length of *unprocessed*, then pipelines that many RPOPLPUSH
// commands. A concurrent enqueue between LLEN and the pops only shortens
// this batch — it is not an error (spec §4.4).
func (c *Client) claimBulkNonBlocking(ctx context.Context, k int) ([]Item, error) {
	n, err := c.gw.lLen(ctx, c.unprocessedKey())
	if err != nil {
		return nil, NewError(err, "llen unprocessed failed", "")
	}
	if n == 0 {
		return nil, nil
	}
	if int64(k) > n {
		k = int(n)
	}
	return c.pipelinedClaim(ctx, k)
}

// claimBulkBlocking gives throughput comparable to the non-blocking path
// once work is present, while still blocking when idle: if the first
// pipelined pass yields nothing, fall back to a single BRPOPLPUSH, then
// pipeline k-1 further RPOPLPUSH calls.
func (c *Client) claimBulkBlocking(ctx context.Context, k int) ([]Item, error) {
	items, err := c.claimBulkNonBlocking(ctx, k)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	key, err := c.rdb.BRPopLPush(ctx, c.unprocessedKey(), c.workingKey(), c.cfg.ClaimWaitTimeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, NewError(err, "brpoplpush claim failed", "")
	}
	first, err := c.finishClaim(ctx, ItemKey(key))
	if err != nil {
		return nil, err
	}
	items = []Item{first}

	if k > 1 {
		rest, err := c.pipelinedClaim(ctx, k-1)
		if err != nil {
			c.logger.Warn("bulk claim follow-up pipeline failed", "error", err)
		}
		items = append(items, rest...)
	}
	return items, nil
}

// pipelinedClaim issues n RPOPLPUSH commands on one pipeline, then for
// every successfully-popped key increments process_count and fetches
// metadata+payload on a second pipeline. Errors inside the bulk path are
// caught and logged; already-claimed items are still returned, since they
// remain safely in *working* and will be recovered by the expiry
// reclaimer if this process dies before acking them (spec §4.4).
func (c *Client) pipelinedClaim(ctx context.Context, n int) ([]Item, error) {
	if n <= 0 {
		return nil, nil
	}

	popBatch := c.gw.Pipeline()
	popCmds := make([]*redis.StringCmd, 0, n)
	for i := 0; i < n; i++ {
		cmd := popBatch.Pipe().RPopLPush(ctx, c.unprocessedKey(), c.workingKey())
		popCmds = append(popCmds, cmd)
		popBatch.queue(func(redis.Cmder) {})
	}
	if err := popBatch.WaitAll(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("pipelined claim pop failed", "error", err)
	}

	keys := make([]ItemKey, 0, n)
	for _, cmd := range popCmds {
		key, err := cmd.Result()
		if err != nil {
			continue // empty slot or transient error; tolerated per spec §4.4
		}
		keys = append(keys, ItemKey(key))
	}
	if len(keys) == 0 {
		return nil, nil
	}

	return c.finishClaimBulk(ctx, keys)
}

// finishClaim increments process_count, fetches the item's metadata and
// payload, and returns the assembled Item.
func (c *Client) finishClaim(ctx context.Context, key ItemKey) (Item, error) {
	// The increment runs before the metadata fetch so the returned Item and
	// any later requeue see the same count. A failed increment is logged,
	// not returned: the item is already in *working* (spec §4.4).
	if _, err := c.gw.hIncrBy(ctx, metaRecordKey(key), "process_count", 1); err != nil {
		c.logger.Warn("process_count increment failed", "item", key, "error", err)
	}

	payload, err := c.gw.get(ctx, itemRecordKey(key))
	if err != nil {
		return Item{}, NewError(err, "claimed item missing payload record", key)
	}
	fields, err := c.gw.hGetAll(ctx, metaRecordKey(key))
	if err != nil {
		return Item{}, NewError(err, "claimed item missing metadata record", key)
	}

	meta := parseMetadata(fields)
	if c.metrics != nil {
		c.metrics.claims.WithLabelValues(c.queue.Name).Inc()
	}
	return Item{Key: key, Payload: []byte(payload), Meta: meta}, nil
}

// finishClaimBulk increments process_count for every key on one pipeline,
// then fetches payload+metadata for each on a second pipeline, preserving
// pop order (tail-to-head, oldest first) in the result.
func (c *Client) finishClaimBulk(ctx context.Context, keys []ItemKey) ([]Item, error) {
	incrBatch := c.gw.Pipeline()
	for _, key := range keys {
		incrBatch.Pipe().HIncrBy(ctx, metaRecordKey(key), "process_count", 1)
		incrBatch.queue(func(redis.Cmder) {})
	}
	if err := incrBatch.WaitAll(ctx); err != nil {
		c.logger.Warn("bulk process_count increment failed", "error", err)
	}

	fetchBatch := c.gw.Pipeline()
	payloadCmds := make([]*redis.StringCmd, len(keys))
	metaCmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		payloadCmds[i] = fetchBatch.Pipe().Get(ctx, itemRecordKey(key))
		fetchBatch.queue(func(redis.Cmder) {})
		metaCmds[i] = fetchBatch.Pipe().HGetAll(ctx, metaRecordKey(key))
		fetchBatch.queue(func(redis.Cmder) {})
	}
	if err := fetchBatch.WaitAll(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("bulk claim fetch failed", "error", err)
	}

	items := make([]Item, 0, len(keys))
	for i, key := range keys {
		payload, err := payloadCmds[i].Result()
		if err != nil {
			c.logger.Warn("bulk claim item missing payload record", "item", key, "error", err)
			continue
		}
		fields, err := metaCmds[i].Result()
		if err != nil {
			c.logger.Warn("bulk claim item missing metadata record", "item", key, "error", err)
			continue
		}
		items = append(items, Item{Key: key, Payload: []byte(payload), Meta: parseMetadata(fields)})
	}
	if c.metrics != nil {
		c.metrics.claims.WithLabelValues(c.queue.Name).Add(float64(len(items)))
	}
	return items, nil
}

func (c *Client) unprocessedKey() string { return c.queue.SublistKey(SublistUnprocessed) }
func (c *Client) workingKey() string     { return c.queue.SublistKey(SublistWorking) }
func (c *Client) failedKey() string      { return c.queue.SublistKey(SublistFailed) }
