package sandbox

import (
	"sync"
)

// Conduit is an in-process, ordered, asynchronous channel pair between the
// host and a sandboxed worker. Messages are delivered in send order per
// direction. Emit never blocks the sandbox after the host walks away: once
// the conduit is closed further emits are dropped.
type Conduit struct {
	toSandbox chan Message
	toHost    chan Message

	closeOnce sync.Once
	closed    chan struct{}
}

// NewConduit creates a conduit with the given per-direction buffer.
func NewConduit(buffer int) *Conduit {
	if buffer <= 0 {
		buffer = 64
	}
	return &Conduit{
		toSandbox: make(chan Message, buffer),
		toHost:    make(chan Message, buffer),
		closed:    make(chan struct{}),
	}
}

// Send delivers a message from the host to the sandbox.
func (c *Conduit) Send(msg Message) {
	select {
	case <-c.closed:
	case c.toSandbox <- msg:
	}
}

// SandboxRecv is the sandbox-side receive channel.
func (c *Conduit) SandboxRecv() <-chan Message {
	return c.toSandbox
}

// Emit delivers a message from the sandbox to the host. Messages emitted
// after Close are dropped silently; the sandbox is already abandoned.
func (c *Conduit) Emit(msg Message) {
	select {
	case <-c.closed:
	case c.toHost <- msg:
	}
}

// HostRecv is the host-side receive channel.
func (c *Conduit) HostRecv() <-chan Message {
	return c.toHost
}

// Close abandons the conduit. Idempotent.
func (c *Conduit) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// Done is closed once the conduit is abandoned.
func (c *Conduit) Done() <-chan struct{} {
	return c.closed
}
