package testutil

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
)

// CloseCall records one Close on a FakeConn
type CloseCall struct {
	Code   int
	Reason string
}

// FakeConn is an in-memory connection that records everything sent to it
type FakeConn struct {
	mu       sync.Mutex
	id       string
	identity model.Identity
	open     bool
	sent     []protocol.Outbound
	closes   []CloseCall
}

// NewFakeConn creates an open connection for the identity
func NewFakeConn(id model.PlayerID, name string) *FakeConn {
	return &FakeConn{
		id:       uuid.NewString(),
		identity: model.Identity{ID: id, DisplayName: name, Token: "token-" + id.String()},
		open:     true,
	}
}

func (c *FakeConn) ConnID() string { return c.id }

func (c *FakeConn) Identity() model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *FakeConn) SetDisplayName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity.DisplayName = name
}

func (c *FakeConn) Send(msg protocol.Outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return false
	}
	c.sent = append(c.sent, msg)
	return true
}

func (c *FakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *FakeConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.closes = append(c.closes, CloseCall{Code: code, Reason: reason})
}

// MarkClosed flips the connection to closed without recording a Close call,
// like a socket that dropped before the server noticed
func (c *FakeConn) MarkClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

// Sent returns a copy of everything sent so far
func (c *FakeConn) Sent() []protocol.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Outbound, len(c.sent))
	copy(out, c.sent)
	return out
}

// OfType returns the sent messages with the given type, oldest first
func (c *FakeConn) OfType(t protocol.Type) []protocol.Outbound {
	var out []protocol.Outbound
	for _, msg := range c.Sent() {
		if msg.OutboundType() == t {
			out = append(out, msg)
		}
	}
	return out
}

// LastOfType returns the most recent message with the given type, or nil
func (c *FakeConn) LastOfType(t protocol.Type) protocol.Outbound {
	msgs := c.OfType(t)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Types lists the type of every message sent, oldest first
func (c *FakeConn) Types() []protocol.Type {
	var out []protocol.Type
	for _, msg := range c.Sent() {
		out = append(out, msg.OutboundType())
	}
	return out
}

// Reset forgets everything sent so far
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}

// Closes returns every Close call made
func (c *FakeConn) Closes() []CloseCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CloseCall, len(c.closes))
	copy(out, c.closes)
	return out
}
