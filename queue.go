package quartermaster

import "fmt"

// Sublist names one of the four Redis lists backing a queue.
type Sublist int

const (
	SublistUnprocessed Sublist = iota
	SublistWorking
	SublistProcessed
	SublistFailed
)

var sublistTag = map[Sublist]string{
	SublistUnprocessed: "unprocessed",
	SublistWorking:     "working",
	SublistProcessed:   "processed",
	SublistFailed:      "failed",
}

// String returns the sublist's tag, e.g. "unprocessed".
func (s Sublist) String() string {
	if tag, ok := sublistTag[s]; ok {
		return tag
	}
	return "unknown"
}

// ParseSublist maps a tag name back to its Sublist constant. Unknown names
// are a usage error (spec §7: "unknown sublist name" is fatal).
func ParseSublist(name string) (Sublist, error) {
	for s, tag := range sublistTag {
		if tag == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sublist %q", ErrUsageInvalid, name)
}

// Queue names the sublists and record keys for one logical queue. It holds
// no connection state; Client dispatches through a Queue for key derivation
// only, the way the teacher's Queue type (queue.go) holds naming but not a
// Redis handle.
type Queue struct {
	Name string
}

// NewQueue returns a Queue with the given name.
func NewQueue(name string) *Queue {
	return &Queue{Name: name}
}

// SublistKey returns the deterministic Redis key for one of the four
// sublists: "<queue_name>_<tag>", single underscore, per spec §4.2.
func (q *Queue) SublistKey(s Sublist) string {
	return fmt.Sprintf("%s_%s", q.Name, s)
}

// TempFailedKey returns a fresh transient key for the C9 RENAMENX snapshot.
func (q *Queue) TempFailedKey(suffix string) string {
	return fmt.Sprintf("temp-failed-%s", suffix)
}
