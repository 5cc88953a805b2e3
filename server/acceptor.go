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

package server

import (
	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/inetaddr"
	libreact "github.com/nabbar/xmlrpc/reactor"
	libskt "github.com/nabbar/xmlrpc/socket"
)

const listenBacklog = 100

// acceptor owns the listening socket. On readiness it admits sockets
// through the firewall and hands granted ones to the connection factory.
type acceptor struct {
	srv *srv
	sck *libskt.Socket
}

func newAcceptor(s *srv, bind inetaddr.Addr) (*acceptor, liberr.Error) {
	sck, e := libskt.New()
	if e != nil {
		return nil, e
	}

	if e = sck.Bind(bind); e != nil {
		sck.Close()
		return nil, ErrorBind.Error(e)
	}

	if e = sck.Listen(listenBacklog); e != nil {
		sck.Close()
		return nil, ErrorBind.Error(e)
	}

	if e = sck.SetNonBlocking(true); e != nil {
		sck.Close()
		return nil, e
	}

	a := &acceptor{srv: s, sck: sck}
	s.reactor.RegisterHandler(a, libreact.Input)

	return a, nil
}

func (o *acceptor) Fd() int              { return o.sck.Fd() }
func (o *acceptor) IsStopper() bool      { return false }
func (o *acceptor) CatchInReactor() bool { return true }
func (o *acceptor) Finish()              {}

func (o *acceptor) LogError(err error) {
	o.srv.logError("acceptor", err)
}

func (o *acceptor) HandleOutput() (bool, error) {
	return false, nil
}

func (o *acceptor) HandleInput() (bool, error) {
	for {
		sck, e := o.sck.Accept()

		if e != nil {
			return false, e
		} else if sck == nil {
			return false, nil
		}

		o.accept(sck)
	}
}

func (o *acceptor) accept(sck *libskt.Socket) {
	fw := o.srv.fw.Load()

	if fw != nil && !fw.Grant(sck.Peer()) {
		// the firewall's configured reject message rides on an abortive
		// close; empty means silent
		if msg := fw.Message(); msg != "" {
			sck.SendShutdown([]byte(msg))
		} else {
			sck.Shutdown()
		}

		sck.Close()
		return
	}

	o.srv.createConn(sck)
}

func (o *acceptor) close() {
	o.srv.reactor.UnregisterHandler(o)
	o.sck.Close()
}

// localAddr reports the bound endpoint, the real port when bound to 0.
func (o *acceptor) localAddr() (inetaddr.Addr, liberr.Error) {
	return o.sck.LocalAddr()
}
