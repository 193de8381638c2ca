package arrow

import (
	"errors"
	"testing"
)

func TestParseOperation(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"send", RoleSender},
		{"receive", RoleReceiver},
	}
	for _, c := range cases {
		got, err := ParseOperation(c.in)
		if err != nil {
			t.Fatalf("ParseOperation(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseOperation(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParseOperation("browse"); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("ParseOperation(browse) err = %v, want ErrUnsupportedMode", err)
	}
}

func TestParseConnectionMode(t *testing.T) {
	if got, err := ParseConnectionMode("client"); err != nil || got != ConnectionClient {
		t.Errorf("ParseConnectionMode(client) = %v, %v", got, err)
	}
	if got, err := ParseConnectionMode("server"); err != nil || got != ConnectionServer {
		t.Errorf("ParseConnectionMode(server) = %v, %v", got, err)
	}
	if _, err := ParseConnectionMode("peer"); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("ParseConnectionMode(peer) err = %v, want ErrUnsupportedMode", err)
	}
}

func TestParseChannelMode(t *testing.T) {
	if got, err := ParseChannelMode("active"); err != nil || got != ChannelActive {
		t.Errorf("ParseChannelMode(active) = %v, %v", got, err)
	}
	if got, err := ParseChannelMode("passive"); err != nil || got != ChannelPassive {
		t.Errorf("ParseChannelMode(passive) = %v, %v", got, err)
	}
	if _, err := ParseChannelMode("lazy"); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("ParseChannelMode(lazy) err = %v, want ErrUnsupportedMode", err)
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateIdle:         "Idle",
		StateConnecting:   "Connecting",
		StateNegotiating:  "Negotiating",
		StateTransferring: "Transferring",
		StateDraining:     "Draining",
		StateClosed:       "Closed",
		State(99):         "Unknown",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
