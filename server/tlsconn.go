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
	"crypto/tls"

	"github.com/nabbar/xmlrpc/httpmsg"
	libskt "github.com/nabbar/xmlrpc/socket"
	libssl "github.com/nabbar/xmlrpc/tlslink"
	"github.com/nabbar/xmlrpc/xmlcodec"
)

// tlsConn is the TLS server connection: the reactive link drives the
// record layer, this type drives request framing and responses.
type tlsConn struct {
	baseConn

	rc *libssl.ReactionConn
}

func newTLSConn(s *srv, sck *libskt.Socket, cfg *tls.Config) *tlsConn {
	c := &tlsConn{
		baseConn: newBaseConn(s, sck.Peer()),
	}

	lnk := libssl.NewReactiveServer(cfg)

	c.rc = libssl.NewReaction(sck, lnk, s.reactor, c, libssl.Callbacks{
		AcceptDone: c.acceptDone,
		RecvDone:   c.recvDone,
		SendDone:   c.sendDone,
	})

	_ = sck.SetNonBlocking(true)
	s.registerConn(c)
	c.startIdle()
	c.rc.RegAccept()

	return c
}

func (o *tlsConn) Fd() int              { return o.rc.Socket().Fd() }
func (o *tlsConn) IsStopper() bool      { return false }
func (o *tlsConn) CatchInReactor() bool { return true }

func (o *tlsConn) LogError(err error) {
	o.srv.logError("tls server connection "+o.peer.String(), err)
}

func (o *tlsConn) Finish() {
	o.srv.unregisterConn(o)
	o.rc.Close()
	o.rc.Socket().Close()
}

func (o *tlsConn) HandleInput() (bool, error) {
	return o.rc.OnInput()
}

func (o *tlsConn) HandleOutput() (bool, error) {
	return o.rc.OnOutput()
}

func (o *tlsConn) acceptDone() (bool, error) {
	o.rc.RegRecv()
	return false, nil
}

func (o *tlsConn) recvDone(data []byte) (bool, error) {
	if len(data) == 0 {
		return true, nil
	}

	pkt, err := o.readRequest(data)

	if err != nil {
		o.keepAlive = false
		o.scheduleStatus(httpmsg.StatusOf(err))
		return false, nil
	}

	if pkt == nil {
		if o.reader.ExpectContinue() {
			o.keepAlive = true
			o.interim = true
			o.reader.SetContinueSent()
			o.rc.RegSend([]byte("HTTP/1.1 100\r\n\r\n"))
			return false, nil
		}

		o.rc.RegRecv()
		return false, nil
	}

	o.stopIdle()
	o.srv.scheduleExecute(pkt, o)

	return false, nil
}

func (o *tlsConn) sendDone() (bool, error) {
	if o.interim {
		// the 100 interim response went out; the request body is still
		// inbound, the reader state must survive
		o.interim = false
		o.rc.RegRecv()
		return false, nil
	}

	if o.pendingResponse() != nil {
		b := o.takeResponse()
		o.rc.RegSend(b)
		return false, nil
	}

	if o.keepAlive {
		o.reader.Reset()
		o.startIdle()
		o.rc.RegRecv()
		return false, nil
	}

	o.rc.RegShutdown()
	return false, nil
}

func (o *tlsConn) takeResponse() []byte {
	o.respMux.Lock()
	defer o.respMux.Unlock()

	b := o.resp[o.respOff:]
	o.resp = nil
	o.respOff = 0

	return b
}

// ScheduleResponse serializes the response and hands it to the record
// layer. May run on a worker goroutine.
func (o *tlsConn) ScheduleResponse(resp xmlcodec.Response) {
	body := xmlcodec.DumpResponse(resp)

	pkt := httpmsg.NewPacket(httpmsg.NewResponseHeader(200, "OK"), []byte(body))
	pkt.SetKeepAlive(o.keepAlive)

	o.rc.RegSend(pkt.Dump())
}

func (o *tlsConn) scheduleStatus(st httpmsg.StatusError) {
	pkt := httpmsg.NewStatusPacket(st)
	pkt.SetKeepAlive(o.keepAlive)

	o.rc.RegSend(pkt.Dump())
}

// terminateIdle wins the claim then runs the TLS teardown: a best-effort
// close-notify followed by release.
func (o *tlsConn) terminateIdle() {
	if !o.tryClaimForTermination() {
		return
	}

	o.srv.reactor.UnregisterHandler(o)
	o.rc.ShutdownBestEffort()
	o.Finish()
}
