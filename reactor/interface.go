/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package reactor implements the single-thread event loop multiplexing
// read/write readiness over a set of handlers keyed by file descriptor.
//
// The reactor holds non-owning references to its handlers. Handlers call
// back into the reactor to register, unregister or fake events; on
// terminate, the reactor unregisters the handler then calls Finish, which
// is permitted to release it.
package reactor

import (
	liberr "github.com/nabbar/golib/errors"
)

// EventMask selects which readiness events a handler is registered for.
type EventMask uint8

const (
	Input  EventMask = 1 << iota // readable
	Output                       // writable
)

// Timeout values for HandleEvents, in milliseconds. Negative blocks
// indefinitely.
const NoTimeout = -1

// EventHandler is the contract of an object driven by the reactor.
type EventHandler interface {
	// Fd returns the descriptor the handler is polled on.
	Fd() int

	// IsStopper marks handlers whose presence does not imply real work
	// is pending, such as the interrupter's read side. When only stopper
	// handlers remain, HandleEvents refuses to block.
	IsStopper() bool

	// CatchInReactor reports whether the reactor must absorb errors and
	// panics from this handler (server connections) instead of letting
	// them propagate to the HandleEvents caller (client connections).
	CatchInReactor() bool

	// HandleInput is invoked on read readiness. Returning terminate asks
	// the reactor to unregister the handler and call Finish.
	HandleInput() (terminate bool, err error)

	// HandleOutput is invoked on write readiness.
	HandleOutput() (terminate bool, err error)

	// Finish is invoked after the handler has been unregistered on
	// terminate. It may release the handler.
	Finish()

	// LogError receives errors and recovered panics absorbed by the
	// reactor for handlers that catch in reactor.
	LogError(err error)
}

// Reactor multiplexes readiness events over registered handlers.
//
// HandleEvents returns true when at least one handler was invoked and
// false on timeout. It returns ErrorNoHandlers when only stopper handlers
// remain, and false immediately when no handler is registered at all.
// Within one tick, user-faked events are dispatched before system
// readiness events.
type Reactor interface {
	RegisterHandler(h EventHandler, mask EventMask)
	UnregisterMask(h EventHandler, mask EventMask)
	UnregisterHandler(h EventHandler)

	// FakeEvent marks readiness bits on the handler so that the next
	// HandleEvents call dispatches it without a system poll, used by the
	// TLS layer when the record layer has buffered plaintext.
	FakeEvent(h EventHandler, mask EventMask)

	HandleEvents(timeoutMs int) (bool, liberr.Error)
}

// NewSerial builds a reactor without internal synchronization, for the
// serial executor where a single goroutine owns everything.
func NewSerial() Reactor {
	return newReactor(nullLocker{})
}

// NewThreaded builds a mutex-guarded reactor, for the pool executor where
// worker goroutines fake events and register output interest.
func NewThreaded() Reactor {
	return newReactor(&realLocker{})
}
