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

package client

import (
	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/httpmsg"
	libreact "github.com/nabbar/xmlrpc/reactor"
	libskt "github.com/nabbar/xmlrpc/socket"
)

// clientConn is one transport session able to carry whole HTTP round
// trips.
type clientConn interface {
	// roundTrip sends one request image and blocks on the private
	// reactor until the full response packet is in, the timeout fires or
	// the transport fails.
	roundTrip(req []byte, hdrOnly bool) (*httpmsg.Packet, liberr.Error)

	close()
}

// httpConn is the plain-TCP client connection: non-blocking socket, a
// private serial reactor, offset-tracked writes. Handler failures
// propagate to the HandleEvents caller, the round trip itself.
type httpConn struct {
	sck  *libskt.Socket
	rct  libreact.Reactor
	opts *options

	reader  *httpmsg.Reader
	readBuf []byte

	out     []byte
	outOff  int
	hdrOnly bool

	connected bool
	resp      *httpmsg.Packet
}

func newHTTPConn(opts *options, target *libskt.Socket) *httpConn {
	return &httpConn{
		sck:     target,
		rct:     libreact.NewSerial(),
		opts:    opts,
		reader:  httpmsg.NewReader(httpmsg.ModeResponse),
		readBuf: make([]byte, readBufSize),
	}
}

func (o *httpConn) Fd() int              { return o.sck.Fd() }
func (o *httpConn) IsStopper() bool      { return false }
func (o *httpConn) CatchInReactor() bool { return false }
func (o *httpConn) Finish()              {}
func (o *httpConn) LogError(_ error)     {}

func (o *httpConn) HandleOutput() (bool, error) {
	if !o.connected {
		if err := o.sck.LastError(); err != nil {
			return true, ErrorConnect.Error(err)
		}
		o.connected = true
	}

	n, e := o.sck.Send(o.out[o.outOff:])
	if e != nil {
		return true, e
	}

	o.outOff += n

	if o.outOff >= len(o.out) {
		o.out = nil
		o.outOff = 0
		o.rct.UnregisterMask(o, libreact.Output)
		o.rct.RegisterHandler(o, libreact.Input)
	}

	return false, nil
}

func (o *httpConn) HandleInput() (bool, error) {
	for o.resp == nil {
		n, e := o.sck.Recv(o.readBuf)

		if e != nil {
			return true, e
		} else if n < 0 {
			return false, nil
		} else if n == 0 {
			return true, ErrorClosedByPeer.Error(nil)
		}

		pkt, err := o.readResponse(o.readBuf[:n], o.hdrOnly)
		if err != nil {
			return true, err
		}

		o.resp = pkt

		if n < len(o.readBuf) {
			break
		}
	}

	if o.resp != nil {
		o.rct.UnregisterHandler(o)
	}

	return false, nil
}

// readResponse re-applies the response size cap before every feed so a
// limit change takes immediate effect while cumulative enforcement
// continues across feeds.
func (o *httpConn) readResponse(data []byte, hdrOnly bool) (*httpmsg.Packet, liberr.Error) {
	o.reader.SetMaxSize(o.opts.maxRespSz)

	pkt, e := o.reader.ReadResponse(data, hdrOnly)

	if e != nil {
		if e.IsCode(httpmsg.ErrorResponseTooLarge) {
			return nil, ErrorResponseTooLarge.Error(e)
		}
		return nil, e
	}

	return pkt, nil
}

func (o *httpConn) roundTrip(req []byte, hdrOnly bool) (*httpmsg.Packet, liberr.Error) {
	o.out = req
	o.outOff = 0
	o.resp = nil
	o.hdrOnly = hdrOnly

	o.rct.RegisterHandler(o, libreact.Output)

	for o.resp == nil {
		more, e := o.rct.HandleEvents(o.opts.timeoutMs())

		if e != nil {
			o.rct.UnregisterHandler(o)
			return nil, e
		}

		if !more {
			o.rct.UnregisterHandler(o)
			return nil, ErrorTimeout.Error(nil)
		}
	}

	return o.resp, nil
}

func (o *httpConn) close() {
	o.sck.Shutdown()
	o.sck.Close()
}
