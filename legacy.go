// Package quartermaster legacy aliases (Design Note 9).
// Trivial forwarding shims kept for backward compatibility; they add no
// new semantics over their canonical plural/unprefixed counterparts.
package quartermaster

import "context"

// MarkItemAsDone is the singular legacy alias for MarkItemsAsProcessed.
func (c *Client) MarkItemAsDone(ctx context.Context, item Item) (bool, error) {
	result, err := c.MarkItemsAsProcessed(ctx, []Item{item})
	if err != nil {
		return false, err
	}
	return len(result.Flushed) == 1, nil
}

// RequeueBusyItem is the singular legacy alias for RequeueBusy.
func (c *Client) RequeueBusyItem(ctx context.Context, key ItemKey) (bool, error) {
	return c.RequeueBusy(ctx, key)
}

// UnclaimItem is the singular legacy alias for Unclaim.
func (c *Client) UnclaimItem(ctx context.Context, key ItemKey) (bool, error) {
	return c.Unclaim(ctx, key)
}
