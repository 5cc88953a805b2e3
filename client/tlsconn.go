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
	"crypto/tls"

	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/httpmsg"
	libreact "github.com/nabbar/xmlrpc/reactor"
	libskt "github.com/nabbar/xmlrpc/socket"
	libssl "github.com/nabbar/xmlrpc/tlslink"
)

// httpsConn is the reactive TLS client connection: the handshake, send
// and receive cycle rides the reactive link over a private serial
// reactor. Errors propagate to the round trip.
type httpsConn struct {
	rc   *libssl.ReactionConn
	rct  libreact.Reactor
	opts *options

	reader *httpmsg.Reader

	out         []byte
	hdrOnly     bool
	established bool
	resp        *httpmsg.Packet
}

func newHTTPSConn(opts *options, sck *libskt.Socket, cfg *tls.Config) *httpsConn {
	c := &httpsConn{
		rct:    libreact.NewSerial(),
		opts:   opts,
		reader: httpmsg.NewReader(httpmsg.ModeResponse),
	}

	lnk := libssl.NewReactiveClient(cfg)

	c.rc = libssl.NewReaction(sck, lnk, c.rct, c, libssl.Callbacks{
		ConnectDone: c.connectDone,
		RecvDone:    c.recvDone,
		SendDone:    c.sendDone,
	})

	return c
}

func (o *httpsConn) Fd() int              { return o.rc.Socket().Fd() }
func (o *httpsConn) IsStopper() bool      { return false }
func (o *httpsConn) CatchInReactor() bool { return false }
func (o *httpsConn) Finish()              {}
func (o *httpsConn) LogError(_ error)     {}

func (o *httpsConn) HandleInput() (bool, error) {
	return o.rc.OnInput()
}

func (o *httpsConn) HandleOutput() (bool, error) {
	return o.rc.OnOutput()
}

func (o *httpsConn) connectDone() (bool, error) {
	o.established = true
	o.rc.RegSend(o.out)
	return false, nil
}

func (o *httpsConn) sendDone() (bool, error) {
	o.rc.RegRecv()
	return false, nil
}

func (o *httpsConn) recvDone(data []byte) (bool, error) {
	if len(data) == 0 {
		return true, ErrorClosedByPeer.Error(nil)
	}

	o.reader.SetMaxSize(o.opts.maxRespSz)

	pkt, e := o.reader.ReadResponse(data, o.hdrOnly)

	if e != nil {
		if e.IsCode(httpmsg.ErrorResponseTooLarge) {
			return true, ErrorResponseTooLarge.Error(e)
		}
		return true, e
	}

	if pkt == nil {
		o.rc.RegRecv()
		return false, nil
	}

	o.resp = pkt
	return false, nil
}

func (o *httpsConn) roundTrip(req []byte, hdrOnly bool) (*httpmsg.Packet, liberr.Error) {
	o.out = req
	o.resp = nil
	o.hdrOnly = hdrOnly

	if o.established {
		o.rc.RegSend(req)
	} else {
		o.rc.RegConnect()
	}

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

func (o *httpsConn) close() {
	o.rc.Close()
	o.rc.Socket().Shutdown()
	o.rc.Socket().Close()
}

// blockingTLSConn is the synchronous TLS path used when no timeout is
// configured: plain blocking handshake and I/O through the typed-error
// link.
type blockingTLSConn struct {
	lnk    *libssl.Link
	opts   *options
	reader *httpmsg.Reader
	shaken bool
}

func newBlockingTLSConn(opts *options, fd int, cfg *tls.Config) (*blockingTLSConn, liberr.Error) {
	l, e := libssl.NewClientLink(fd, cfg)
	if e != nil {
		return nil, e
	}

	return &blockingTLSConn{
		lnk:    l,
		opts:   opts,
		reader: httpmsg.NewReader(httpmsg.ModeResponse),
	}, nil
}

func (o *blockingTLSConn) roundTrip(req []byte, hdrOnly bool) (*httpmsg.Packet, liberr.Error) {
	if !o.shaken {
		if e := o.lnk.Handshake(); e != nil {
			return nil, e
		}
		o.shaken = true
	}

	if _, e := o.lnk.Send(req); e != nil {
		return nil, e
	}

	buf := make([]byte, readBufSize)

	for {
		n, e := o.lnk.Recv(buf)
		if e != nil {
			return nil, e
		}

		o.reader.SetMaxSize(o.opts.maxRespSz)

		pkt, err := o.reader.ReadResponse(buf[:n], hdrOnly)

		if err != nil {
			if err.IsCode(httpmsg.ErrorResponseTooLarge) {
				return nil, ErrorResponseTooLarge.Error(err)
			}
			return nil, err
		}

		if pkt != nil {
			return pkt, nil
		}
	}
}

func (o *blockingTLSConn) close() {
	_ = o.lnk.Shutdown()
	o.lnk.Close()
}
