// Package quartermaster implements a reliable FIFO work queue layered on
// Redis lists. Producers deposit opaque payloads; consumers claim them,
// process them, and acknowledge completion. Items that fail repeatedly are
// parked in a failure area for operator inspection; items whose consumer
// dies are reclaimed after an expiry window.
package quartermaster

import (
	"fmt"
	"strconv"
	"time"
)

// ItemKey identifies an item across sublists and record keys. It has the
// form "<queue_name>-<128-bit random hex>".
type ItemKey string

// Metadata tracks timing and attempt counts for a single item. It is stored
// as a Redis hash at "meta-<item_key>".
type Metadata struct {
	ProcessCount int64
	BailCount    int64
	TimeCreated  float64
	TimeEnqueued float64
	LastError    string
}

// Item is the immutable triple passed between layers: an item key, its
// opaque payload, and its metadata snapshot at the time it was read.
type Item struct {
	Key     ItemKey
	Payload []byte
	Meta    Metadata
}

func itemRecordKey(k ItemKey) string { return "item-" + string(k) }
func metaRecordKey(k ItemKey) string { return "meta-" + string(k) }

// String implements fmt.Stringer for diagnostic logging.
func (i Item) String() string {
	return fmt.Sprintf("Item{Key: %s, ProcessCount: %d}", i.Key, i.Meta.ProcessCount)
}

// parseMetadata converts an HGETALL reply into a Metadata value. Missing
// numeric fields default to zero rather than erroring — a freshly-requeued
// item may not yet have every field set.
func parseMetadata(fields map[string]string) Metadata {
	return Metadata{
		ProcessCount: parseInt(fields["process_count"]),
		BailCount:    parseInt(fields["bail_count"]),
		TimeCreated:  parseFloat(fields["time_created"]),
		TimeEnqueued: parseFloat(fields["time_enqueued"]),
		LastError:    fields["last_error"],
	}
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// unixSecondsNow returns the current time as fractional Unix seconds, the
// representation every time_created/time_enqueued field uses.
func unixSecondsNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
