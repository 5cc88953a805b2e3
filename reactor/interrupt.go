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

package reactor

import (
	"sync"

	liberr "github.com/nabbar/golib/errors"
	libskt "github.com/nabbar/xmlrpc/socket"
)

// Interrupter wakes a blocked reactor from another goroutine. It owns a
// connected socket pair: writing one byte to the client side makes the
// reactor's poll return; the read side is a stopper handler that drains
// the byte and returns.
//
// Interrupt is the only thread-safe way external goroutines signal a
// blocked reactor.
type Interrupter struct {
	srv *stopHandler
	cli *libskt.Socket
	mux sync.Mutex
}

type stopHandler struct {
	sck *libskt.Socket
	rct Reactor
}

func (o *stopHandler) Fd() int              { return o.sck.Fd() }
func (o *stopHandler) IsStopper() bool      { return true }
func (o *stopHandler) CatchInReactor() bool { return false }
func (o *stopHandler) Finish()              {}
func (o *stopHandler) LogError(_ error)     {}

func (o *stopHandler) HandleInput() (bool, error) {
	var one [1]byte
	_, _ = o.sck.Recv(one[:])
	return false, nil
}

func (o *stopHandler) HandleOutput() (bool, error) {
	return false, nil
}

// NewInterrupter builds the socket pair and registers the read side with
// the reactor.
func NewInterrupter(r Reactor) (*Interrupter, liberr.Error) {
	srv, cli, e := libskt.Pair()
	if e != nil {
		return nil, ErrorInterrupter.Error(e)
	}

	if e = srv.SetNonBlocking(true); e != nil {
		srv.Close()
		cli.Close()
		return nil, ErrorInterrupter.Error(e)
	}

	h := &stopHandler{sck: srv, rct: r}
	r.RegisterHandler(h, Input)

	return &Interrupter{srv: h, cli: cli}, nil
}

// Interrupt wakes the reactor. Safe to call from any goroutine.
func (o *Interrupter) Interrupt() {
	o.mux.Lock()
	defer o.mux.Unlock()

	_, _ = o.cli.Send([]byte{0})
}

// Close unregisters the read side and releases both sockets.
func (o *Interrupter) Close() {
	o.mux.Lock()
	defer o.mux.Unlock()

	o.srv.rct.UnregisterHandler(o.srv)
	o.srv.sck.Close()
	o.cli.Shutdown()
	o.cli.Close()
}
