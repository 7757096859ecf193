package quartermaster

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestClient builds a Client backed by a fresh miniredis instance,
// matching the teacher's newTestClient() seam (consumer_test.go) but
// pointed at an in-memory double instead of a live localhost:6379 — the
// property and unit suites no longer need a real Redis dependency.
func newTestClient(t *testing.T) *Client {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.QueueName = "test"

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c, err := NewWithRedis(cfg, rdb)
	if err != nil {
		t.Fatalf("NewWithRedis failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
