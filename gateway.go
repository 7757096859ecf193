// Package quartermaster gateway.
// Thin wrapper over go-redis exposing the command set the sublist state
// machine needs, plus a pipelined request/callback mode for bulk claim and
// ack paths.
package quartermaster

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// gateway wraps a redis.UniversalClient so the rest of the package can be
// exercised against either a real *redis.Client or a miniredis-backed test
// double without caring which.
type gateway struct {
	rdb redis.UniversalClient
}

func newGateway(rdb redis.UniversalClient) *gateway {
	return &gateway{rdb: rdb}
}

func (g *gateway) lPush(ctx context.Context, key string, value interface{}) error {
	return g.rdb.LPush(ctx, key, value).Err()
}

func (g *gateway) rPush(ctx context.Context, key string, value interface{}) error {
	return g.rdb.RPush(ctx, key, value).Err()
}

func (g *gateway) rPopLPush(ctx context.Context, source, dest string) (string, error) {
	return g.rdb.RPopLPush(ctx, source, dest).Result()
}

func (g *gateway) lRem(ctx context.Context, key string, count int64, value interface{}) (int64, error) {
	return g.rdb.LRem(ctx, key, count, value).Result()
}

func (g *gateway) lRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return g.rdb.LRange(ctx, key, start, stop).Result()
}

func (g *gateway) lLen(ctx context.Context, key string) (int64, error) {
	return g.rdb.LLen(ctx, key).Result()
}

func (g *gateway) del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return g.rdb.Del(ctx, keys...).Result()
}

func (g *gateway) setNX(ctx context.Context, key string, value interface{}) (bool, error) {
	return g.rdb.SetNX(ctx, key, value, 0).Result()
}

func (g *gateway) get(ctx context.Context, key string) (string, error) {
	return g.rdb.Get(ctx, key).Result()
}

func (g *gateway) hSet(ctx context.Context, key string, fields map[string]interface{}) error {
	return g.rdb.HSet(ctx, key, fields).Err()
}

func (g *gateway) hGetAll(ctx context.Context, key string) (map[string]string, error) {
	return g.rdb.HGetAll(ctx, key).Result()
}

func (g *gateway) hIncrBy(ctx context.Context, key, field string, incr int64) (int64, error) {
	return g.rdb.HIncrBy(ctx, key, field, incr).Result()
}

func (g *gateway) renameNX(ctx context.Context, src, dst string) (bool, error) {
	return g.rdb.RenameNX(ctx, src, dst).Result()
}

// requestBatch stages commands on a go-redis pipeline and fires a
// completion callback for each once WaitAll drains the replies. This is the
// language-neutral equivalent of Design Note 9's request-queue/closure
// pattern: callbacks run in dispatch order, which for a single pipelined
// round trip equals reply-arrival order.
type requestBatch struct {
	pipe redis.Pipeliner
	cbs  []func(redis.Cmder)
}

// Pipeline starts a new batch of callback-bearing commands.
func (g *gateway) Pipeline() *requestBatch {
	return &requestBatch{pipe: g.rdb.Pipeline()}
}

// queue registers the completion callback for the command most recently
// staged via b.Pipe(). Callbacks must be registered in the same order their
// commands were staged (see callers in consumer.go/ack.go/reclaim.go).
func (b *requestBatch) queue(cb func(redis.Cmder)) {
	b.cbs = append(b.cbs, cb)
}

// Pipe exposes the underlying Pipeliner so callers can issue typed commands
// (e.g. b.Pipe().RPopLPush(...)) before registering a callback via queue.
func (b *requestBatch) Pipe() redis.Pipeliner { return b.pipe }

// WaitAll executes the pipeline and invokes every registered callback in
// the order the replies arrived, which for a single connection equals
// dispatch order (spec §4.1 contract).
func (b *requestBatch) WaitAll(ctx context.Context) error {
	cmds, err := b.pipe.Exec(ctx)
	for i, cmd := range cmds {
		if i < len(b.cbs) && b.cbs[i] != nil {
			b.cbs[i](cmd)
		}
	}
	return err
}
