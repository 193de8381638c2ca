// Package flow implements receiver-side credit accounting. Credit is
// granted to the peer in batches: the full window at link open, then a
// top-up back to the window whenever outstanding credit drops below half
// of it. Batching amortizes flow-control chatter without letting the
// peer's send buffer run dry.
package flow

import "errors"

// ErrCreditUnderflow is returned when a delivery is consumed with no
// outstanding credit. This indicates a programming fault, not a peer error.
var ErrCreditUnderflow = errors.New("flow: credit underflow")

// Controller tracks outstanding issued credit against a fixed window.
//
// Invariant: 0 <= Outstanding() <= Window() at all times.
type Controller struct {
	window      int
	outstanding int
}

// NewController creates a controller for the given credit window.
func NewController(window int) *Controller {
	return &Controller{window: window}
}

// OnLinkOpen returns the initial grant: the full window.
func (c *Controller) OnLinkOpen() int {
	c.outstanding = c.window
	return c.window
}

// OnDeliveryConsumed accounts for one consumed delivery and returns the
// credit to grant now: zero while outstanding credit is at or above half
// the window, otherwise a batch topping it back up to the full window.
func (c *Controller) OnDeliveryConsumed() (int, error) {
	if c.outstanding <= 0 {
		return 0, ErrCreditUnderflow
	}
	c.outstanding--

	// Round the threshold up so a window of 1 still re-grants: half of
	// 1 is 0.5, and dropping to 0 outstanding must top up.
	if c.outstanding < (c.window+1)/2 {
		grant := c.window - c.outstanding
		c.outstanding = c.window
		return grant, nil
	}
	return 0, nil
}

// Outstanding returns the credit currently issued and unconsumed.
func (c *Controller) Outstanding() int {
	return c.outstanding
}

// Window returns the configured window size.
func (c *Controller) Window() int {
	return c.window
}
