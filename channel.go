package libdex

import "sync"

type senderWaiter struct {
	value  *Future
	waiter *Promise
}

// Channel is a bounded, multi-producer/multi-consumer FIFO of futures.
// Send and Receive themselves return futures: Send's resolves once the
// sent future is admitted (buffered or handed directly to a waiting
// receiver); Receive's resolves with the admitted future itself.
type Channel struct {
	mu       sync.Mutex
	capacity int

	items            []*Future
	waitingSenders   []senderWaiter
	waitingReceivers []*Promise

	sendClosed    bool
	receiveClosed bool
}

// NewChannel constructs a Channel with the given capacity, which must be at
// least 1. A non-positive capacity is a caller error: it returns a nil
// Channel and a Failed error rather than panicking — there is no future to
// reject here, so the error is returned directly instead.
func NewChannel(capacity int) (*Channel, error) {
	if capacity < 1 {
		return nil, NewError(Failed, "channel: capacity must be at least 1")
	}
	return &Channel{capacity: capacity}, nil
}

// Send attempts to hand f to the channel. It returns a future that resolves
// with true once f is admitted (buffered, or delivered straight to a
// waiting receiver), or rejects with Closed if the send side is closed.
func (c *Channel) Send(f *Future) *Future {
	if f == nil {
		return rejected(NewError(Failed, "channel: nil future"))
	}

	c.mu.Lock()

	if c.sendClosed {
		c.mu.Unlock()
		return rejected(NewError(Closed, "channel: send side closed"))
	}

	if len(c.waitingReceivers) > 0 {
		p := c.waitingReceivers[0]
		c.waitingReceivers = c.waitingReceivers[1:]
		c.mu.Unlock()
		p.Resolve(f)
		return resolved(true)
	}

	if len(c.items) < c.capacity {
		c.items = append(c.items, f)
		c.mu.Unlock()
		return resolved(true)
	}

	waiter := NewPromise()
	c.waitingSenders = append(c.waitingSenders, senderWaiter{value: f, waiter: waiter})
	c.mu.Unlock()
	return waiter.Future()
}

// Receive returns a future that resolves with the next admitted future, in
// FIFO order, or rejects with Closed once the channel is exhausted and
// either side has been closed.
func (c *Channel) Receive() *Future {
	c.mu.Lock()

	if len(c.items) > 0 {
		item := c.items[0]
		c.items = c.items[1:]

		if len(c.waitingSenders) > 0 {
			sw := c.waitingSenders[0]
			c.waitingSenders = c.waitingSenders[1:]
			c.items = append(c.items, sw.value)
			c.mu.Unlock()
			sw.waiter.Resolve(true)
			return resolved(item)
		}

		c.mu.Unlock()
		return resolved(item)
	}

	if c.receiveClosed || c.sendClosed {
		c.mu.Unlock()
		return rejected(NewError(Closed, "channel: closed"))
	}

	p := NewPromise()
	c.waitingReceivers = append(c.waitingReceivers, p)
	c.mu.Unlock()
	return p.Future()
}

// CloseSend marks the channel's send side closed. Further Send calls
// reject immediately. Senders still waiting for buffer space remain queued
// and are admitted, in order, as subsequent Receive calls free buffer slots;
// any waiting receivers, which by the channel's own
// invariants cannot coexist with buffered items, are rejected immediately
// since nothing will ever arrive for them.
func (c *Channel) CloseSend() {
	c.mu.Lock()
	c.sendClosed = true
	pendingReceivers := c.waitingReceivers
	c.waitingReceivers = nil
	c.mu.Unlock()

	for _, p := range pendingReceivers {
		p.Reject(NewError(Closed, "channel: send side closed"))
	}
}

// CloseReceive marks the channel's receive side closed. Further Send calls
// reject immediately; any buffered items are dropped, and any senders still
// waiting for buffer space are rejected, since nothing will ever drain for
// them either.
func (c *Channel) CloseReceive() {
	c.mu.Lock()
	c.receiveClosed = true
	c.items = nil
	pendingSenders := c.waitingSenders
	c.waitingSenders = nil
	c.mu.Unlock()

	for _, sw := range pendingSenders {
		sw.waiter.Reject(NewError(Closed, "channel: receive side closed"))
	}
}

// CanSend reports whether the send side is still open.
func (c *Channel) CanSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.sendClosed
}

// CanReceive reports whether the receive side is still open.
func (c *Channel) CanReceive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.receiveClosed
}
