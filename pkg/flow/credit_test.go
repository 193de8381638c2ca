package flow

import (
	"errors"
	"testing"
)

func TestControllerInitialGrant(t *testing.T) {
	c := NewController(10)
	if got := c.OnLinkOpen(); got != 10 {
		t.Errorf("OnLinkOpen() = %d, want 10", got)
	}
	if got := c.Outstanding(); got != 10 {
		t.Errorf("Outstanding() = %d, want 10", got)
	}
}

func TestControllerTopUpAtHalfWindow(t *testing.T) {
	c := NewController(10)
	c.OnLinkOpen()

	// Outstanding 10 -> 5: no grant while at or above window/2.
	for i := 0; i < 5; i++ {
		grant, err := c.OnDeliveryConsumed()
		if err != nil {
			t.Fatalf("OnDeliveryConsumed() error = %v", err)
		}
		if grant != 0 {
			t.Errorf("delivery %d: grant = %d, want 0", i+1, grant)
		}
	}

	// Outstanding drops to 4: top back up to the window in one batch.
	grant, err := c.OnDeliveryConsumed()
	if err != nil {
		t.Fatalf("OnDeliveryConsumed() error = %v", err)
	}
	if grant != 6 {
		t.Errorf("grant = %d, want 6", grant)
	}
	if got := c.Outstanding(); got != 10 {
		t.Errorf("Outstanding() = %d, want 10", got)
	}
}

func TestControllerInvariant(t *testing.T) {
	c := NewController(7)
	c.OnLinkOpen()

	for i := 0; i < 1000; i++ {
		if _, err := c.OnDeliveryConsumed(); err != nil {
			t.Fatalf("delivery %d: error = %v", i+1, err)
		}
		if out := c.Outstanding(); out < 0 || out > 7 {
			t.Fatalf("delivery %d: Outstanding() = %d, outside [0, 7]", i+1, out)
		}
	}
}

func TestControllerUnderflow(t *testing.T) {
	c := NewController(1)
	// No link open: consuming without credit is a fault.
	if _, err := c.OnDeliveryConsumed(); !errors.Is(err, ErrCreditUnderflow) {
		t.Errorf("OnDeliveryConsumed() error = %v, want %v", err, ErrCreditUnderflow)
	}
}

func TestControllerWindowOne(t *testing.T) {
	c := NewController(1)
	c.OnLinkOpen()

	// Half of a window of 1 rounds up to 1, so every consumption drops
	// outstanding to 0 and re-grants one credit.
	for i := 0; i < 3; i++ {
		grant, err := c.OnDeliveryConsumed()
		if err != nil {
			t.Fatalf("OnDeliveryConsumed() error = %v", err)
		}
		if grant != 1 {
			t.Errorf("grant = %d, want 1", grant)
		}
	}
}
