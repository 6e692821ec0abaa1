// Package gate provides the non-queuing busy flag that serializes every
// generation in a session.
package gate

import (
	"errors"
	"sync/atomic"
)

// ErrBusy is returned by gated operations that found a generation in flight.
var ErrBusy = errors.New("generation already in progress")

// Gate is a try-lock. Callers that find it held are turned away immediately;
// nobody waits and nothing is queued.
type Gate struct {
	busy atomic.Bool
}

// TryEnter marks the gate busy and returns true if it was free.
func (g *Gate) TryEnter() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Exit marks the gate free.
func (g *Gate) Exit() {
	g.busy.Store(false)
}

// Busy reports whether a generation holds the gate.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
