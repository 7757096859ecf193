package quartermaster

import (
	"context"
	"testing"
)

func TestPeekItemFrontIsOldestAndNonDestructive(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.EnqueueItems(ctx, [][]byte{[]byte("p"), []byte("q")}); err != nil {
		t.Fatalf("EnqueueItems failed: %v", err)
	}

	item, err := c.PeekItem(ctx, SublistUnprocessed, PeekFront)
	if err != nil {
		t.Fatalf("PeekItem failed: %v", err)
	}
	if string(item.Payload) != "p" {
		t.Errorf("expected peek front to return the oldest item 'p', got %q", item.Payload)
	}

	n, err := c.QueueLength(ctx, SublistUnprocessed)
	if err != nil {
		t.Fatalf("QueueLength failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected peek to be non-destructive, length still 2, got %d", n)
	}
}

func TestPeekItemBackIsMostRecent(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.EnqueueItems(ctx, [][]byte{[]byte("p"), []byte("q")}); err != nil {
		t.Fatalf("EnqueueItems failed: %v", err)
	}

	item, err := c.PeekItem(ctx, SublistUnprocessed, PeekBack)
	if err != nil {
		t.Fatalf("PeekItem failed: %v", err)
	}
	if string(item.Payload) != "q" {
		t.Errorf("expected peek back to return the most recently enqueued item 'q', got %q", item.Payload)
	}

	n, err := c.QueueLength(ctx, SublistUnprocessed)
	if err != nil {
		t.Fatalf("QueueLength failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected peek to be non-destructive, length still 2, got %d", n)
	}
}

func TestPeekItemEmptySublistIsFatal(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.PeekItem(ctx, SublistUnprocessed, PeekFront); err == nil {
		t.Error("expected an error peeking an empty sublist")
	} else if !IsFatal(err) {
		t.Errorf("expected ErrItemNotFound to be fatal, got %v", err)
	}
}

func TestGetItemAgeOfOldestItem(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.EnqueueItem(ctx, []byte("x")); err != nil {
		t.Fatalf("EnqueueItem failed: %v", err)
	}

	age, err := c.GetItemAge(ctx, SublistUnprocessed)
	if err != nil {
		t.Fatalf("GetItemAge failed: %v", err)
	}
	if age < 0 {
		t.Errorf("expected a nonnegative age, got %v", age)
	}
}

func TestGetItemAgeEmptySublistReturnsZero(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	age, err := c.GetItemAge(ctx, SublistUnprocessed)
	if err != nil {
		t.Fatalf("GetItemAge failed: %v", err)
	}
	if age != 0 {
		t.Errorf("expected age 0 for an empty sublist, got %v", age)
	}
}

func TestFlushQueueClearsAllSublists(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.EnqueueItems(ctx, [][]byte{[]byte("a"), []byte("b")}); err != nil {
		t.Fatalf("EnqueueItems failed: %v", err)
	}
	if _, err := c.ClaimItemsNonBlocking(ctx, 1); err != nil {
		t.Fatalf("ClaimItemsNonBlocking failed: %v", err)
	}

	total, err := c.FlushQueue(ctx)
	if err != nil {
		t.Fatalf("FlushQueue failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 items discarded across sublists, got %d", total)
	}

	for _, sub := range []Sublist{SublistUnprocessed, SublistWorking, SublistProcessed, SublistFailed} {
		n, err := c.QueueLength(ctx, sub)
		if err != nil {
			t.Fatalf("QueueLength failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected sublist %v empty after flush, got %d", sub, n)
		}
	}
}

func TestRawItemsFamily(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	items, err := c.EnqueueItems(ctx, [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	if err != nil {
		t.Fatalf("EnqueueItems failed: %v", err)
	}

	unprocessed, err := c.RawItemsUnprocessed(ctx, 0)
	if err != nil {
		t.Fatalf("RawItemsUnprocessed failed: %v", err)
	}
	if len(unprocessed) != 3 {
		t.Fatalf("expected 3 raw unprocessed keys, got %d", len(unprocessed))
	}

	claimed, err := c.ClaimItemsNonBlocking(ctx, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("ClaimItemsNonBlocking failed: %v", err)
	}

	working, err := c.RawItemsWorking(ctx, 0)
	if err != nil {
		t.Fatalf("RawItemsWorking failed: %v", err)
	}
	if len(working) != 1 || working[0] != claimed[0].Key {
		t.Errorf("expected the claimed key in raw working, got %v", working)
	}

	limited, err := c.RawItemsUnprocessed(ctx, 1)
	if err != nil {
		t.Fatalf("RawItemsUnprocessed with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected RawItemsUnprocessed(1) to clamp to 1 key, got %d", len(limited))
	}

	failed, err := c.RawItemsFailed(ctx, 0)
	if err != nil {
		t.Fatalf("RawItemsFailed failed: %v", err)
	}
	if len(failed) != 0 {
		t.Errorf("expected no raw failed keys yet, got %d", len(failed))
	}

	_ = items
}
