package quartermaster

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures a Client. server/port/queue_name are required; the
// rest have the defaults spec §6 names.
type Config struct {
	Server string `mapstructure:"server"`
	Port   int    `mapstructure:"port"`

	// QueueName is the logical queue name; it drives every sublist key.
	QueueName string `mapstructure:"queue_name"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// BusyExpiryTime: items in *working* older than this are reclaimable
	// by HandleExpiredItems. Default 30s.
	BusyExpiryTime time.Duration `mapstructure:"busy_expiry_time"`
	// ClaimWaitTimeout: how long a blocking claim waits. Default 1s.
	ClaimWaitTimeout time.Duration `mapstructure:"claim_wait_timeout"`
	// RequeueLimit: retry threshold. When process_count exceeds this, the
	// item goes to *failed*. Default 5.
	RequeueLimit int64 `mapstructure:"requeue_limit"`
	// WarnOnRequeue emits a diagnostic log line on every requeue.
	WarnOnRequeue bool `mapstructure:"warn_on_requeue"`

	// RedisOptions, when non-nil, overrides the derived *redis.Options
	// wholesale — the escape hatch matching spec §6's "redis_options,
	// passed to Redis client constructor".
	RedisOptions *redis.Options
}

// DefaultConfig returns the spec §6 defaults, with server and port set to
// localhost:6379. queue_name has no default and must be set before use.
func DefaultConfig() Config {
	return Config{
		Server:           "localhost",
		Port:             6379,
		BusyExpiryTime:   30 * time.Second,
		ClaimWaitTimeout: 1 * time.Second,
		RequeueLimit:     5,
	}
}

func (c Config) validate() error {
	if c.Server == "" || c.Port == 0 {
		return fmt.Errorf("%w: server and port are required", ErrUsageInvalid)
	}
	if c.QueueName == "" {
		return fmt.Errorf("%w: queue_name is required", ErrUsageInvalid)
	}
	return nil
}

// Client is the single entry point for producer, consumer, requeue,
// failure-area, and reclaim operations against one logical queue. A
// Client must not be used from more than one goroutine concurrently for
// its pipelined bulk paths (spec §5: single-threaded cooperative per
// handle); the underlying *redis.Client itself is safe for concurrent use,
// so independent Clients (or independent single-item calls) may run in
// parallel without restriction.
type Client struct {
	gw      *gateway
	rdb     redis.UniversalClient
	cfg     Config
	queue   *Queue
	scripts *ScriptRegistry
	logger  *Logger
	metrics *Metrics
}

// New creates a Client from cfg. It does not load the requeue script;
// callers that need RequeueBusy/Unclaim/RequeueFailedItems before the
// first call should invoke EnsureScripts explicitly (New itself never
// talks to Redis, matching the teacher's New(), which only builds the
// *redis.Client and defers I/O to the first call).
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := cfg.RedisOptions
	if opts == nil {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	rdb := redis.NewClient(opts)

	return &Client{
		gw:      newGateway(rdb),
		rdb:     rdb,
		cfg:     cfg,
		queue:   NewQueue(cfg.QueueName),
		scripts: NewScriptRegistry(rdb),
		logger:  NewLogger("quartermaster"),
	}, nil
}

// NewWithRedis builds a Client on top of an already-constructed
// redis.UniversalClient, the seam the teacher's ScriptRegistry already
// exposes — used by tests to wire in a miniredis-backed client.
func NewWithRedis(cfg Config, rdb redis.UniversalClient) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		gw:      newGateway(rdb),
		rdb:     rdb,
		cfg:     cfg,
		queue:   NewQueue(cfg.QueueName),
		scripts: NewScriptRegistry(rdb),
		logger:  NewLogger("quartermaster"),
	}, nil
}

// WithMetrics attaches a Metrics collector; every subsequent operation on
// c increments its counters/gauges. Returns c for chaining.
func (c *Client) WithMetrics(m *Metrics) *Client {
	c.metrics = m
	return c
}

// WithLogger overrides the default logger. Returns c for chaining.
func (c *Client) WithLogger(l *Logger) *Client {
	c.logger = l
	return c
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	if closer, ok := c.rdb.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Queue returns the Client's bound Queue, for callers that need key
// derivation without a full round trip (e.g. the CLI's stats command).
func (c *Client) Queue() *Queue { return c.queue }
