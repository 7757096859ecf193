// Package quartermaster maintenance and inspection operations (spec §6).
// Grounded on the teacher's utils.go (Inspect/PurgeQueue/PurgeDeadLetter):
// same "read length, optionally act, return length" shape, generalized
// from stream/ZSET keys to the four sublist keys.
package quartermaster

import (
	"context"
	"fmt"
)

// FlushQueue deletes every sublist and returns the number of items that
// were discarded across all four. item-*/meta-* records are not scanned
// or deleted — this is a sublist-only reset, matching the teacher's
// PurgeQueue, which only ever touched the stream key, not referenced
// payloads.
func (c *Client) FlushQueue(ctx context.Context) (int64, error) {
	var total int64
	for _, s := range []Sublist{SublistUnprocessed, SublistWorking, SublistProcessed, SublistFailed} {
		key := c.queue.SublistKey(s)
		n, err := c.gw.lLen(ctx, key)
		if err != nil {
			return total, NewError(err, "llen during flush_queue failed", "")
		}
		if n == 0 {
			continue
		}
		if _, err := c.gw.del(ctx, key); err != nil {
			return total, NewError(err, "del during flush_queue failed", "")
		}
		total += n
	}
	return total, nil
}

// QueueLength returns the current length of one sublist, and refreshes
// the corresponding sublist_length gauge when metrics are attached.
func (c *Client) QueueLength(ctx context.Context, sub Sublist) (int64, error) {
	n, err := c.gw.lLen(ctx, c.queue.SublistKey(sub))
	if err != nil {
		return 0, NewError(err, "llen failed", "")
	}
	if c.metrics != nil {
		c.metrics.sublistLen.WithLabelValues(c.queue.Name, sub.String()).Set(float64(n))
	}
	return n, nil
}

// PeekDirection selects which end of a sublist PeekItem reads.
type PeekDirection string

const (
	// PeekFront reads the tail of the list — the next item a claim would
	// pop, i.e. the oldest.
	PeekFront PeekDirection = "f"
	// PeekBack reads the head of the list — the most recently pushed item.
	PeekBack PeekDirection = "b"
)

// PeekItem non-destructively returns the item at one end of a sublist
// without removing it.
func (c *Client) PeekItem(ctx context.Context, sub Sublist, direction PeekDirection) (Item, error) {
	key := c.queue.SublistKey(sub)
	index := int64(-1)
	if direction == PeekBack {
		index = 0
	}

	keys, err := c.gw.lRange(ctx, key, index, index)
	if err != nil {
		return Item{}, NewError(err, "lrange during peek_item failed", "")
	}
	if len(keys) == 0 {
		return Item{}, NewError(ErrItemNotFound, fmt.Sprintf("sublist %q is empty", sub), "")
	}
	return c.loadItem(ctx, ItemKey(keys[0]))
}

// GetItemAge returns the age in seconds of the oldest item in a sublist,
// measured from its time_enqueued field, or zero if the sublist is empty.
func (c *Client) GetItemAge(ctx context.Context, sub Sublist) (float64, error) {
	item, err := c.PeekItem(ctx, sub, PeekFront)
	if err != nil {
		if IsFatal(err) {
			return 0, nil
		}
		return 0, err
	}
	return unixSecondsNow() - item.Meta.TimeEnqueued, nil
}

// PercentMemoryUsed reports the fraction (0-100) of Redis's configured
// maxmemory currently in use, via INFO memory. Returns 0 when maxmemory
// is unset (no cap configured).
func (c *Client) PercentMemoryUsed(ctx context.Context) (float64, error) {
	info, err := c.rdb.Info(ctx, "memory").Result()
	if err != nil {
		return 0, NewError(err, "info memory failed", "")
	}

	used := parseInfoField(info, "used_memory")
	max := parseInfoField(info, "maxmemory")
	if max == 0 {
		return 0, nil
	}
	return (used / max) * 100, nil
}

func parseInfoField(info, field string) float64 {
	prefix := field + ":"
	for _, line := range splitLines(info) {
		if len(line) > len(prefix) && line[:len(prefix)] == prefix {
			return parseFloat(trimCR(line[len(prefix):]))
		}
	}
	return 0
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}

// RawItemsUnprocessed returns up to n raw item keys from *unprocessed*,
// head-to-tail (most recently enqueued first), without removing them.
func (c *Client) RawItemsUnprocessed(ctx context.Context, n int) ([]ItemKey, error) {
	return c.rawItems(ctx, SublistUnprocessed, n)
}

// RawItemsWorking returns up to n raw item keys from *working*.
func (c *Client) RawItemsWorking(ctx context.Context, n int) ([]ItemKey, error) {
	return c.rawItems(ctx, SublistWorking, n)
}

// RawItemsFailed returns up to n raw item keys from *failed*.
func (c *Client) RawItemsFailed(ctx context.Context, n int) ([]ItemKey, error) {
	return c.rawItems(ctx, SublistFailed, n)
}

func (c *Client) rawItems(ctx context.Context, sub Sublist, n int) ([]ItemKey, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	keys, err := c.gw.lRange(ctx, c.queue.SublistKey(sub), 0, stop)
	if err != nil {
		return nil, NewError(err, "lrange failed", "")
	}
	out := make([]ItemKey, len(keys))
	for i, k := range keys {
		out[i] = ItemKey(k)
	}
	return out, nil
}
