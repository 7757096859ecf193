package quartermaster

import (
	"context"
	"testing"
)

func TestMarkItemAsDoneMatchesBulkResult(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	item, err := c.EnqueueItem(ctx, []byte("x"))
	if err != nil {
		t.Fatalf("EnqueueItem failed: %v", err)
	}
	items, err := c.ClaimItemsNonBlocking(ctx, 1)
	if err != nil {
		t.Fatalf("ClaimItemsNonBlocking failed: %v", err)
	}

	ok, err := c.MarkItemAsDone(ctx, items[0])
	if err != nil {
		t.Fatalf("MarkItemAsDone failed: %v", err)
	}
	if !ok {
		t.Error("expected MarkItemAsDone to report success")
	}
	_ = item
}

func TestRequeueBusyItemAlias(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.EnqueueItem(ctx, []byte("x")); err != nil {
		t.Fatalf("EnqueueItem failed: %v", err)
	}
	items, err := c.ClaimItemsNonBlocking(ctx, 1)
	if err != nil {
		t.Fatalf("ClaimItemsNonBlocking failed: %v", err)
	}

	ok, err := c.RequeueBusyItem(ctx, items[0].Key)
	if err != nil {
		t.Fatalf("RequeueBusyItem failed: %v", err)
	}
	if !ok {
		t.Error("expected RequeueBusyItem to report success")
	}
}

func TestUnclaimItemAlias(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.EnqueueItem(ctx, []byte("x")); err != nil {
		t.Fatalf("EnqueueItem failed: %v", err)
	}
	items, err := c.ClaimItemsNonBlocking(ctx, 1)
	if err != nil {
		t.Fatalf("ClaimItemsNonBlocking failed: %v", err)
	}

	ok, err := c.UnclaimItem(ctx, items[0].Key)
	if err != nil {
		t.Fatalf("UnclaimItem failed: %v", err)
	}
	if !ok {
		t.Error("expected UnclaimItem to report success")
	}
}
