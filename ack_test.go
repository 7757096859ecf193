package quartermaster

import (
	"context"
	"testing"
)

func TestMarkItemsAsProcessedRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.EnqueueItems(ctx, [][]byte{[]byte("a"), []byte("b"), []byte("c")}); err != nil {
		t.Fatalf("EnqueueItems failed: %v", err)
	}
	items, err := c.ClaimItemsNonBlocking(ctx, 3)
	if err != nil {
		t.Fatalf("ClaimItemsNonBlocking failed: %v", err)
	}

	result, err := c.MarkItemsAsProcessed(ctx, items)
	if err != nil {
		t.Fatalf("MarkItemsAsProcessed failed: %v", err)
	}
	if len(result.Flushed) != 3 {
		t.Errorf("expected 3 flushed, got %d", len(result.Flushed))
	}
	if len(result.Failed) != 0 {
		t.Errorf("expected 0 failed, got %d", len(result.Failed))
	}

	for _, sub := range []Sublist{SublistUnprocessed, SublistWorking} {
		n, err := c.QueueLength(ctx, sub)
		if err != nil {
			t.Fatalf("QueueLength failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected sublist %v empty after ack, got length %d", sub, n)
		}
	}

	payload, err := c.gw.get(ctx, itemRecordKey(items[0].Key))
	if err == nil || payload != "" {
		t.Errorf("expected item record to be deleted after ack, got payload %q err %v", payload, err)
	}
}

func TestMarkItemsAsProcessedAbsentItem(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ghost := Item{Key: ItemKey("test-ghost")}
	result, err := c.MarkItemsAsProcessed(ctx, []Item{ghost})
	if err != nil {
		t.Fatalf("MarkItemsAsProcessed failed: %v", err)
	}
	if len(result.Failed) != 1 {
		t.Errorf("expected the absent item to land in Failed, got %d", len(result.Failed))
	}
	if len(result.Flushed) != 0 {
		t.Errorf("expected nothing flushed, got %d", len(result.Flushed))
	}
}

func TestMarkItemsAsProcessedEmptyInput(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	result, err := c.MarkItemsAsProcessed(ctx, nil)
	if err != nil {
		t.Fatalf("MarkItemsAsProcessed failed: %v", err)
	}
	if len(result.Flushed) != 0 || len(result.Failed) != 0 {
		t.Errorf("expected empty result for empty input, got %+v", result)
	}
}
