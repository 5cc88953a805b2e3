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
	"sync"
	"time"

	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/httpmsg"
	"github.com/nabbar/xmlrpc/inetaddr"
	libreact "github.com/nabbar/xmlrpc/reactor"
	libskt "github.com/nabbar/xmlrpc/socket"
	"github.com/nabbar/xmlrpc/xmlcodec"
)

const readBufSize = 64 * 1024

// baseConn carries the transport-independent half of a server
// connection: the packet reader with live caps, the response cursor, the
// keep-alive policy and the idle claim machinery.
type baseConn struct {
	srv  *srv
	peer inetaddr.Addr

	reader    *httpmsg.Reader
	keepAlive bool
	interim   bool

	respMux sync.Mutex
	resp    []byte
	respOff int

	idleMux   sync.Mutex
	idle      bool
	idleSince time.Time
}

func newBaseConn(s *srv, peer inetaddr.Addr) baseConn {
	return baseConn{
		srv:    s,
		peer:   peer,
		reader: httpmsg.NewReader(httpmsg.ModeRequest),
	}
}

// readRequest feeds received bytes with the server caps re-applied so a
// configuration change is live on the next byte. A malformed packet maps
// to 400 for the peer.
func (o *baseConn) readRequest(data []byte) (*httpmsg.Packet, liberr.Error) {
	o.reader.SetVerifyLevel(o.srv.verifyLevel())
	o.reader.SetMaxSize(o.srv.maxRequestSize())

	pkt, e := o.reader.ReadRequest(data)

	if e != nil {
		return nil, e
	}

	if pkt != nil {
		o.keepAlive = pkt.Head().KeepAlive()
	}

	return pkt, nil
}

// setResponse arms the response cursor. Safe from worker goroutines.
func (o *baseConn) setResponse(b []byte) {
	o.respMux.Lock()
	o.resp = b
	o.respOff = 0
	o.respMux.Unlock()
}

// sendChunk pushes pending response bytes through the socket with an
// offset cursor, no shifting. Returns done when everything went out.
func (o *baseConn) sendChunk(sck *libskt.Socket) (done bool, err liberr.Error) {
	o.respMux.Lock()
	defer o.respMux.Unlock()

	if o.respOff >= len(o.resp) {
		return true, nil
	}

	n, e := sck.Send(o.resp[o.respOff:])
	if e != nil {
		return false, e
	}

	o.respOff += n

	if o.respOff >= len(o.resp) {
		o.resp = nil
		o.respOff = 0
		return true, nil
	}

	return false, nil
}

func (o *baseConn) pendingResponse() []byte {
	o.respMux.Lock()
	defer o.respMux.Unlock()

	if o.respOff >= len(o.resp) {
		return nil
	}

	return o.resp[o.respOff:]
}

func (o *baseConn) peerAddr() inetaddr.Addr {
	return o.peer
}

func (o *baseConn) startIdle() {
	o.idleMux.Lock()
	o.idle = true
	o.idleSince = time.Now()
	o.idleMux.Unlock()
}

func (o *baseConn) stopIdle() {
	o.idleMux.Lock()
	o.idle = false
	o.idleMux.Unlock()
}

func (o *baseConn) idleExpired(timeout time.Duration) bool {
	o.idleMux.Lock()
	defer o.idleMux.Unlock()

	if !o.idle {
		return false
	}

	return time.Since(o.idleSince) > timeout
}

// tryClaimForTermination atomically consumes the idle state; winning the
// claim resolves the race against bytes that arrived since the sweep
// collected this connection.
func (o *baseConn) tryClaimForTermination() bool {
	o.idleMux.Lock()
	defer o.idleMux.Unlock()

	if !o.idle {
		return false
	}

	o.idle = false
	return true
}

//
// plain transport connection
//

// httpConn is the plain-TCP server connection: a reactor handler whose
// failures are caught in the reactor, logged here and turned into
// terminate.
type httpConn struct {
	baseConn

	sck     *libskt.Socket
	readBuf []byte
}

func newHTTPConn(s *srv, sck *libskt.Socket) *httpConn {
	c := &httpConn{
		baseConn: newBaseConn(s, sck.Peer()),
		sck:      sck,
		readBuf:  make([]byte, readBufSize),
	}

	_ = sck.SetNonBlocking(true)
	s.registerConn(c)
	c.startIdle()
	s.reactor.RegisterHandler(c, libreact.Input)

	return c
}

func (o *httpConn) Fd() int              { return o.sck.Fd() }
func (o *httpConn) IsStopper() bool      { return false }
func (o *httpConn) CatchInReactor() bool { return true }

func (o *httpConn) LogError(err error) {
	o.srv.logError("server connection "+o.peer.String(), err)
}

func (o *httpConn) Finish() {
	o.srv.unregisterConn(o)
	o.sck.Close()
}

func (o *httpConn) HandleInput() (bool, error) {
	n, e := o.sck.Recv(o.readBuf)

	if e != nil {
		return true, e
	} else if n == 0 {
		return true, nil
	} else if n < 0 {
		return false, nil
	}

	pkt, err := o.readRequest(o.readBuf[:n])

	if err != nil {
		// close after delivering the HTTP error; stop reading so a
		// partially sent status can not be overwritten by re-parsing
		// the remainder of the hostile request
		o.keepAlive = false
		o.srv.reactor.UnregisterMask(o, libreact.Input)
		o.scheduleStatus(httpmsg.StatusOf(err))
		return false, nil
	}

	if pkt == nil {
		if o.reader.ExpectContinue() {
			o.keepAlive = true
			o.interim = true
			o.setResponse([]byte("HTTP/1.1 100\r\n\r\n"))
			o.reader.SetContinueSent()
			o.srv.reactor.RegisterHandler(o, libreact.Output)
		}
		return false, nil
	}

	o.stopIdle()
	o.srv.reactor.UnregisterMask(o, libreact.Input)
	o.srv.scheduleExecute(pkt, o)

	return false, nil
}

func (o *httpConn) HandleOutput() (bool, error) {
	done, e := o.sendChunk(o.sck)

	if e != nil {
		return true, e
	} else if !done {
		return false, nil
	}

	if o.interim {
		// the 100 interim response went out; the request body is still
		// inbound, the reader state must survive
		o.interim = false
		o.srv.reactor.UnregisterMask(o, libreact.Output)
		o.srv.reactor.RegisterHandler(o, libreact.Input)
		return false, nil
	}

	if o.keepAlive {
		o.srv.reactor.UnregisterMask(o, libreact.Output)
		o.reader.Reset()
		o.startIdle()
		o.srv.reactor.RegisterHandler(o, libreact.Input)
		return false, nil
	}

	return true, nil
}

// ScheduleResponse serializes the response into an HTTP packet and arms
// the output path. It may run on a worker goroutine; the registration is
// safe on the threaded reactor and the executor's interrupt wakes the
// poll.
func (o *httpConn) ScheduleResponse(resp xmlcodec.Response) {
	body := xmlcodec.DumpResponse(resp)

	pkt := httpmsg.NewPacket(httpmsg.NewResponseHeader(200, "OK"), []byte(body))
	pkt.SetKeepAlive(o.keepAlive)

	o.setResponse(pkt.Dump())
	o.srv.reactor.RegisterHandler(o, libreact.Output)
}

func (o *httpConn) scheduleStatus(st httpmsg.StatusError) {
	pkt := httpmsg.NewStatusPacket(st)
	pkt.SetKeepAlive(o.keepAlive)

	o.setResponse(pkt.Dump())
	o.srv.reactor.RegisterHandler(o, libreact.Output)
}

// terminateIdle resolves the idle-eviction race and tears the connection
// down when the claim is won.
func (o *httpConn) terminateIdle() {
	if !o.tryClaimForTermination() {
		return
	}

	o.srv.reactor.UnregisterHandler(o)
	o.Finish()
}
