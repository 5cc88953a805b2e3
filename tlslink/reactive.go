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
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
)

// ReactiveLink drives one TLS engine over the in-memory record pump
// without ever blocking its caller. One operation is in flight at a
// time; the caller feeds ciphertext in, drains ciphertext out, and polls
// Step for the discriminated status.
//
// The TLS engine itself runs on a dedicated service goroutine: the Go
// TLS stack only exposes blocking calls, so the goroutine absorbs the
// blocking while the pump's buffers make every blocking point
// observable: a parked read is WANT_READ, pending outbound ciphertext is
// WANT_WRITE.
type ReactiveLink struct {
	conn *tls.Conn
	wire *wireConn

	cmds chan func()

	mux    sync.Mutex
	opBusy bool
	opDone bool
	opErr  error
	opData []byte
	opN    int

	started bool
	closed  bool
}

// NewReactiveServer builds the server-side engine.
func NewReactiveServer(cfg *tls.Config) *ReactiveLink {
	w := newWireConn()

	return &ReactiveLink{
		conn: tls.Server(w, cfg),
		wire: w,
		cmds: make(chan func(), 1),
	}
}

// NewReactiveClient builds the client-side engine.
func NewReactiveClient(cfg *tls.Config) *ReactiveLink {
	w := newWireConn()

	return &ReactiveLink{
		conn: tls.Client(w, cfg),
		wire: w,
		cmds: make(chan func(), 1),
	}
}

func (o *ReactiveLink) service() {
	for f := range o.cmds {
		f()
	}
}

// submit registers one operation on the service goroutine. Completion is
// observable through Step.
func (o *ReactiveLink) submit(run func() (int, []byte, error)) {
	o.mux.Lock()

	if !o.started {
		o.started = true
		go o.service()
	}

	o.opBusy = true
	o.opDone = false
	o.opErr = nil
	o.opData = nil
	o.opN = 0
	o.mux.Unlock()

	o.cmds <- func() {
		n, data, err := run()

		o.mux.Lock()
		o.opDone = true
		o.opN = n
		o.opData = data
		o.opErr = err
		o.mux.Unlock()

		o.wire.notify()
	}
}

// StartHandshake begins the accept or connect handshake; the engine side
// was fixed at construction.
func (o *ReactiveLink) StartHandshake() {
	o.submit(func() (int, []byte, error) {
		return 0, nil, o.conn.Handshake()
	})
}

// StartRead begins one application-data read of at most max bytes.
func (o *ReactiveLink) StartRead(max int) {
	o.submit(func() (int, []byte, error) {
		buf := make([]byte, max)
		n, err := o.conn.Read(buf)
		return n, buf[:n], err
	})
}

// StartWrite begins encrypting one application-data buffer. The engine
// accepts it entirely; the produced ciphertext still has to be flushed
// to the socket by the caller.
func (o *ReactiveLink) StartWrite(b []byte) {
	data := append([]byte(nil), b...)

	o.submit(func() (int, []byte, error) {
		n, err := o.conn.Write(data)
		return n, nil, err
	})
}

// StartShutdown begins the close-notify exchange.
func (o *ReactiveLink) StartShutdown() {
	o.submit(func() (int, []byte, error) {
		return 0, nil, o.conn.CloseWrite()
	})
}

// Busy reports whether an operation is in flight or completed but not
// yet consumed.
func (o *ReactiveLink) Busy() bool {
	o.mux.Lock()
	defer o.mux.Unlock()

	return o.opBusy
}

// Step settles the in-flight operation to one of its observable states
// and reports it. It never raises on the hot WANT_READ and WANT_WRITE
// outcomes.
func (o *ReactiveLink) Step() Status {
	o.mux.Lock()
	busy := o.opBusy
	done := o.opDone
	o.mux.Unlock()

	if !busy {
		if o.wire.hasOut() {
			return StatusWantWrite
		}
		return StatusOK
	}

	if !done {
		// wait for the engine to either finish or park on the pump
		o.wire.waitSettled(func() bool {
			o.mux.Lock()
			d := o.opDone
			o.mux.Unlock()

			return d || (o.wire.inWait && o.wire.in.Len() == 0 && !o.wire.inEOF) || o.wire.out.Len() > 0
		})

		o.mux.Lock()
		done = o.opDone
		o.mux.Unlock()
	}

	if !done {
		if o.wire.hasOut() {
			return StatusWantWrite
		}
		return StatusWantRead
	}

	o.mux.Lock()
	err := o.opErr
	o.mux.Unlock()

	if err == nil {
		return StatusOK
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return StatusClose
	}

	return StatusError
}

// Result consumes the completed operation.
func (o *ReactiveLink) Result() (n int, data []byte, err error) {
	o.mux.Lock()
	defer o.mux.Unlock()

	n, data, err = o.opN, o.opData, o.opErr
	o.opBusy = false
	o.opDone = false
	o.opData = nil

	return n, data, err
}

// FeedRead delivers ciphertext received off the socket.
func (o *ReactiveLink) FeedRead(b []byte) {
	o.wire.feed(b)
}

// FeedEOF marks the socket's read side closed by the peer.
func (o *ReactiveLink) FeedEOF() {
	o.wire.setEOF()
}

// PendingWrite reports buffered outbound ciphertext.
func (o *ReactiveLink) PendingWrite() bool {
	return o.wire.hasOut()
}

// TakeWrite drains the buffered outbound ciphertext for the socket.
func (o *ReactiveLink) TakeWrite() []byte {
	return o.wire.takeOut()
}

// ConnectionState exposes the handshake result for fingerprint or
// hostname inspection by callers.
func (o *ReactiveLink) ConnectionState() tls.ConnectionState {
	return o.conn.ConnectionState()
}

// Close tears the engine down. Safe after or instead of a shutdown
// exchange.
func (o *ReactiveLink) Close() {
	o.mux.Lock()

	if o.closed {
		o.mux.Unlock()
		return
	}

	o.closed = true
	started := o.started
	o.mux.Unlock()

	_ = o.wire.Close()

	if started {
		close(o.cmds)
	}
}
