// Package quartermaster requeue paths (C8) and the requeue script (C4).
// unclaim, RequeueBusy, RequeueBusyError, and RequeueFailedItems all
// dispatch to one atomic Lua script with different policy flags, the way
// the teacher's scheduler dispatches its scheduled-task sweep to
// processScheduledLua (scheduler.go) — a single server-side script, loaded
// once through ScriptRegistry, parameterized by ARGV rather than
// duplicated per call site.
package quartermaster

import (
	"context"
	"fmt"
)

const requeueScriptName = "requeue"

// requeueLua implements the 5-step contract: remove one occurrence of
// item_key from source; conditionally bump process_count; branch on the
// post-increment count into fail_dest or ok_dest; stamp bookkeeping
// fields. Written in the same unguarded, no-pcall style as the teacher's
// processScheduledLua — script exceptions are a caller concern, not
// something the script itself recovers from.
const requeueLua = `
local source = KEYS[1]
local okDest = KEYS[2]
local failDest = KEYS[3]

local itemKey = ARGV[1]
local requeueLimit = tonumber(ARGV[2])
local place = tonumber(ARGV[3])
local errText = ARGV[4]
local incrProcessCount = tonumber(ARGV[5])
local now = ARGV[6]

local metaKey = 'meta-' .. itemKey

local removed = redis.call('LREM', source, 1, itemKey)
if removed == 0 then
    return 0
end

if incrProcessCount == 1 then
    redis.call('HINCRBY', metaKey, 'process_count', 1)
end

local processCount = tonumber(redis.call('HGET', metaKey, 'process_count') or '0')

if processCount > requeueLimit then
    redis.call('HINCRBY', metaKey, 'bail_count', 1)
    redis.call('LPUSH', failDest, itemKey)
    redis.call('HSET', metaKey, 'last_error', errText)
    return 1
end

redis.call('HSET', metaKey, 'time_enqueued', now)
if errText ~= '' then
    redis.call('HSET', metaKey, 'last_error', errText)
end
if place == 1 then
    redis.call('RPUSH', okDest, itemKey)
else
    redis.call('LPUSH', okDest, itemKey)
end
return 1
`

const (
	placeHead = 0
	placeTail = 1
)

// EnsureScripts loads the requeue script into Redis. Callers that need
// Unclaim/RequeueBusy/RequeueBusyError/RequeueFailedItems before their
// first use should call this explicitly; every dispatch method below also
// calls it lazily so a fresh Client works without an explicit setup step.
func (c *Client) EnsureScripts(ctx context.Context) error {
	if c.scripts.Has(requeueScriptName) {
		return nil
	}
	return c.scripts.Load(ctx, map[string]ScriptDef{
		requeueScriptName: {
			Script: requeueLua,
			Keys:   map[string]int{"source": 1, "ok_dest": 2, "fail_dest": 3},
		},
	})
}

func (c *Client) runRequeue(ctx context.Context, source string, key ItemKey, place int, errText string, incrProcessCount bool) (bool, error) {
	if err := c.EnsureScripts(ctx); err != nil {
		return false, NewError(err, "ensure requeue script failed", key)
	}

	incr := 0
	if incrProcessCount {
		incr = 1
	}
	now := fmt.Sprintf("%f", unixSecondsNow())

	res, err := c.scripts.Run(ctx, requeueScriptName, map[string]string{
		"source":    source,
		"ok_dest":   c.unprocessedKey(),
		"fail_dest": c.failedKey(),
	}, string(key), c.cfg.RequeueLimit, place, errText, incr, now)
	if err != nil {
		c.logger.Warn("requeue script failed", "item", key, "error", err)
		return false, nil
	}

	count, _ := res.(int64)
	if c.cfg.WarnOnRequeue && count > 0 {
		c.logger.Warn("item requeued", "item", key, "source", source, "place", place)
	}
	return count > 0, nil
}

// Unclaim returns an unstarted item from *working* to the tail of
// *unprocessed* without counting it as an attempt — the spec's "worker
// voluntarily returns an unstarted item" path.
func (c *Client) Unclaim(ctx context.Context, key ItemKey) (bool, error) {
	ok, err := c.runRequeue(ctx, c.workingKey(), key, placeTail, "", false)
	if err != nil {
		return false, err
	}
	if c.metrics != nil && ok {
		c.metrics.requeues.WithLabelValues(c.queue.Name, "unclaimed").Inc()
	}
	return ok, nil
}

// RequeueBusy retries a failed-processing item: increments process_count,
// and sends it to the head of *unprocessed* (or, past the retry limit, to
// *failed*).
func (c *Client) RequeueBusy(ctx context.Context, key ItemKey) (bool, error) {
	return c.requeueBusy(ctx, key, "")
}

// RequeueBusyError is RequeueBusy with an error string recorded onto the
// item's last_error field.
func (c *Client) RequeueBusyError(ctx context.Context, key ItemKey, errText string) (bool, error) {
	return c.requeueBusy(ctx, key, errText)
}

func (c *Client) requeueBusy(ctx context.Context, key ItemKey, errText string) (bool, error) {
	ok, err := c.runRequeue(ctx, c.workingKey(), key, placeHead, errText, true)
	if err != nil {
		return false, err
	}
	if c.metrics != nil && ok {
		outcome := "retried"
		c.metrics.requeues.WithLabelValues(c.queue.Name, outcome).Inc()
	}
	return ok, nil
}

// RequeueFailedItems retries each parked item in keys: operator-triggered,
// increments process_count, placed at the tail of *unprocessed* (or parked
// in *failed* again when the new count still exceeds RequeueLimit). It
// returns how many keys the script found in *failed*.
func (c *Client) RequeueFailedItems(ctx context.Context, keys []ItemKey) (int, error) {
	requeued := 0
	for _, key := range keys {
		ok, err := c.runRequeue(ctx, c.failedKey(), key, placeTail, "", true)
		if err != nil {
			return requeued, err
		}
		if ok {
			requeued++
			if c.metrics != nil {
				c.metrics.requeues.WithLabelValues(c.queue.Name, "parked-retry").Inc()
			}
		}
	}
	return requeued, nil
}
