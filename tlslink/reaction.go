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

package tlslink

import (
	"fmt"

	libreact "github.com/nabbar/xmlrpc/reactor"
	libskt "github.com/nabbar/xmlrpc/socket"
)

// ConnState is the reactive connection's position in its I/O cycle.
type ConnState uint8

const (
	StateEmpty ConnState = iota
	StateAccepting
	StateConnecting
	StateReading
	StateWriting
	StateShutdown
)

// Callbacks receive the completion events of a ReactionConn. RecvDone
// and SendDone report terminate the same way reactor handlers do.
type Callbacks struct {
	AcceptDone  func() (terminate bool, err error)
	ConnectDone func() (terminate bool, err error)
	RecvDone    func(data []byte) (terminate bool, err error)
	SendDone    func() (terminate bool, err error)
}

// ReactionConn is the established reactive TLS connection over a
// non-blocking socket. Its state transitions are driven by the engine's
// status codes and convert into reactor register and unregister calls;
// buffered plaintext inside the engine is delivered through a faked
// input event so no readiness is ever missed.
type ReactionConn struct {
	sck   *libskt.Socket
	lnk   *ReactiveLink
	rct   libreact.Reactor
	owner libreact.EventHandler
	cb    Callbacks

	state ConnState

	flushBuf []byte
	flushOff int
	readBuf  []byte
}

// NewReaction binds the socket, engine and reactor. The owner is the
// reactor-registered handler delegating its events here.
func NewReaction(s *libskt.Socket, l *ReactiveLink, r libreact.Reactor, owner libreact.EventHandler, cb Callbacks) *ReactionConn {
	return &ReactionConn{
		sck:     s,
		lnk:     l,
		rct:     r,
		owner:   owner,
		cb:      cb,
		readBuf: make([]byte, 64*1024),
	}
}

// Socket exposes the underlying endpoint.
func (o *ReactionConn) Socket() *libskt.Socket {
	return o.sck
}

// RegAccept starts the server-side handshake.
func (o *ReactionConn) RegAccept() {
	o.state = StateAccepting
	o.lnk.StartHandshake()
	o.advertise()
}

// RegConnect starts the client-side handshake.
func (o *ReactionConn) RegConnect() {
	o.state = StateConnecting
	o.lnk.StartHandshake()
	o.advertise()
}

// RegRecv starts one application read. Plaintext already buffered by the
// engine completes without socket traffic, so readiness is faked to keep
// the reactor moving.
func (o *ReactionConn) RegRecv() {
	o.state = StateReading
	o.lnk.StartRead(len(o.readBuf))
	o.advertise()
}

// RegSend starts encrypting and flushing one buffer.
func (o *ReactionConn) RegSend(b []byte) {
	o.state = StateWriting
	o.lnk.StartWrite(b)
	o.advertise()
}

// RegShutdown starts the close-notify exchange.
func (o *ReactionConn) RegShutdown() {
	o.state = StateShutdown
	o.lnk.StartShutdown()
	o.advertise()
}

// advertise converts the engine's observable state into reactor
// interest. A settled operation is dispatched through a faked event so
// the next tick handles it without a syscall.
func (o *ReactionConn) advertise() {
	if len(o.flushBuf) > o.flushOff || o.lnk.PendingWrite() {
		o.rct.RegisterHandler(o.owner, libreact.Output)
		return
	}

	switch o.lnk.Step() {
	case StatusWantWrite:
		o.rct.RegisterHandler(o.owner, libreact.Output)

	case StatusWantRead:
		o.rct.RegisterHandler(o.owner, libreact.Input)

	default:
		// completed, closed or failed: deliver on the next tick
		o.rct.RegisterHandler(o.owner, libreact.Input)
		o.rct.FakeEvent(o.owner, libreact.Input)
	}
}

// OnInput drains the socket into the engine and advances the state
// machine.
func (o *ReactionConn) OnInput() (bool, error) {
	o.rct.UnregisterMask(o.owner, libreact.Input)

	n, e := o.sck.Recv(o.readBuf)

	if e != nil {
		return true, e
	} else if n == 0 {
		o.lnk.FeedEOF()
	} else if n > 0 {
		o.lnk.FeedRead(o.readBuf[:n])
	}

	return o.switchState()
}

// OnOutput flushes pending ciphertext with an offset cursor and advances
// the state machine once drained.
func (o *ReactionConn) OnOutput() (bool, error) {
	o.rct.UnregisterMask(o.owner, libreact.Output)

	if len(o.flushBuf) == o.flushOff {
		o.flushBuf = o.lnk.TakeWrite()
		o.flushOff = 0
	}

	if len(o.flushBuf) > o.flushOff {
		n, e := o.sck.Send(o.flushBuf[o.flushOff:])
		if e != nil {
			return true, e
		}

		o.flushOff += n

		if len(o.flushBuf) > o.flushOff || o.lnk.PendingWrite() {
			o.rct.RegisterHandler(o.owner, libreact.Output)
			return false, nil
		}

		o.flushBuf = nil
		o.flushOff = 0
	}

	return o.switchState()
}

func (o *ReactionConn) switchState() (bool, error) {
	if len(o.flushBuf) > o.flushOff || o.lnk.PendingWrite() {
		o.rct.RegisterHandler(o.owner, libreact.Output)
		return false, nil
	}

	if !o.lnk.Busy() {
		if o.state == StateEmpty {
			return true, nil
		}
		return false, nil
	}

	switch o.lnk.Step() {
	case StatusOK:
		return o.complete()

	case StatusWantRead:
		o.rct.RegisterHandler(o.owner, libreact.Input)
		return false, nil

	case StatusWantWrite:
		o.rct.RegisterHandler(o.owner, libreact.Output)
		return false, nil

	case StatusClose:
		_, _, _ = o.lnk.Result()

		if o.state == StateShutdown {
			return true, nil
		}

		o.RegShutdown()
		return false, nil

	default:
		_, _, err := o.lnk.Result()
		//nolint #goerr113
		return true, fmt.Errorf("tls i/o error: %v", err)
	}
}

func (o *ReactionConn) complete() (bool, error) {
	st := o.state
	o.state = StateEmpty

	switch st {
	case StateAccepting:
		_, _, _ = o.lnk.Result()
		if o.cb.AcceptDone != nil {
			return o.cb.AcceptDone()
		}

	case StateConnecting:
		_, _, _ = o.lnk.Result()
		if o.cb.ConnectDone != nil {
			return o.cb.ConnectDone()
		}

	case StateReading:
		_, data, _ := o.lnk.Result()
		if o.cb.RecvDone != nil {
			return o.cb.RecvDone(data)
		}

	case StateWriting:
		_, _, _ = o.lnk.Result()
		if o.cb.SendDone != nil {
			return o.cb.SendDone()
		}

	case StateShutdown:
		_, _, _ = o.lnk.Result()
		return true, nil
	}

	return false, nil
}

// ShutdownBestEffort pushes one close-notify flight without reactor
// involvement and without waiting for the peer's answer, used by the
// idle-eviction path after the handler is already unregistered.
func (o *ReactionConn) ShutdownBestEffort() {
	o.state = StateShutdown
	o.lnk.StartShutdown()
	_ = o.lnk.Step()

	if b := o.lnk.TakeWrite(); len(b) > 0 {
		_, _ = o.sck.Send(b)
	}
}

// Close releases the engine.
func (o *ReactionConn) Close() {
	o.lnk.Close()
}
