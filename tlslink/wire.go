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
	"bytes"
	"io"
	"net"
	"sync"
	"time"
)

// wireConn is the in-memory record pump under the TLS engine. The
// reactor feeds inbound ciphertext and drains outbound ciphertext;
// the TLS goroutine reads and writes it like a net.Conn. Writes never
// block; reads park until ciphertext arrives or the inbound side is
// closed.
type wireConn struct {
	mux    sync.Mutex
	cond   *sync.Cond
	in     bytes.Buffer
	out    bytes.Buffer
	inWait bool
	inEOF  bool
	closed bool
}

func newWireConn() *wireConn {
	w := &wireConn{}
	w.cond = sync.NewCond(&w.mux)
	return w
}

func (o *wireConn) Read(p []byte) (int, error) {
	o.mux.Lock()
	defer o.mux.Unlock()

	for o.in.Len() == 0 && !o.inEOF && !o.closed {
		o.inWait = true
		o.cond.Broadcast()
		o.cond.Wait()
	}

	o.inWait = false

	if o.in.Len() == 0 {
		return 0, io.EOF
	}

	return o.in.Read(p)
}

func (o *wireConn) Write(p []byte) (int, error) {
	o.mux.Lock()
	defer o.mux.Unlock()

	if o.closed {
		return 0, io.ErrClosedPipe
	}

	n, _ := o.out.Write(p)
	o.cond.Broadcast()

	return n, nil
}

// feed appends inbound ciphertext received off the socket.
func (o *wireConn) feed(p []byte) {
	o.mux.Lock()
	defer o.mux.Unlock()

	_, _ = o.in.Write(p)
	o.cond.Broadcast()
}

// setEOF marks the inbound side closed by the peer.
func (o *wireConn) setEOF() {
	o.mux.Lock()
	defer o.mux.Unlock()

	o.inEOF = true
	o.cond.Broadcast()
}

// takeOut drains the pending outbound ciphertext for the socket.
func (o *wireConn) takeOut() []byte {
	o.mux.Lock()
	defer o.mux.Unlock()

	if o.out.Len() == 0 {
		return nil
	}

	b := make([]byte, o.out.Len())
	_, _ = o.out.Read(b)

	return b
}

func (o *wireConn) hasOut() bool {
	o.mux.Lock()
	defer o.mux.Unlock()

	return o.out.Len() > 0
}

// starving reports that the TLS goroutine is parked waiting for
// ciphertext the socket has not delivered yet.
func (o *wireConn) starving() bool {
	o.mux.Lock()
	defer o.mux.Unlock()

	return o.inWait && o.in.Len() == 0 && !o.inEOF
}

// waitSettled parks until the predicate holds, re-evaluated on every
// state change broadcast by either side.
func (o *wireConn) waitSettled(pred func() bool) {
	o.mux.Lock()
	defer o.mux.Unlock()

	for !pred() {
		o.cond.Wait()
	}
}

func (o *wireConn) notify() {
	o.mux.Lock()
	o.cond.Broadcast()
	o.mux.Unlock()
}

func (o *wireConn) Close() error {
	o.mux.Lock()
	defer o.mux.Unlock()

	o.closed = true
	o.cond.Broadcast()

	return nil
}

func (o *wireConn) LocalAddr() net.Addr                { return wireAddr{} }
func (o *wireConn) RemoteAddr() net.Addr               { return wireAddr{} }
func (o *wireConn) SetDeadline(_ time.Time) error      { return nil }
func (o *wireConn) SetReadDeadline(_ time.Time) error  { return nil }
func (o *wireConn) SetWriteDeadline(_ time.Time) error { return nil }

type wireAddr struct{}

func (wireAddr) Network() string { return "tlslink" }
func (wireAddr) String() string  { return "tlslink" }
