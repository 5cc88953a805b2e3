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
	"strconv"
	"time"

	liberr "github.com/nabbar/golib/errors"
	liblog "github.com/nabbar/golib/logger"
	"github.com/nabbar/xmlrpc/httpmsg"
	"github.com/nabbar/xmlrpc/inetaddr"
	libskt "github.com/nabbar/xmlrpc/socket"
	libssl "github.com/nabbar/xmlrpc/tlslink"
	libvlu "github.com/nabbar/xmlrpc/value"
	"github.com/nabbar/xmlrpc/xmlcodec"
)

type cli struct {
	opts   *options
	tlsCfg *libssl.Config
	log    liblog.FuncLog

	cache clientConn
}

func (o *cli) SetKeepAlive(keepAlive bool) {
	o.opts.keepAlive = keepAlive

	if !keepAlive {
		o.dropCache()
	}
}

func (o *cli) SetTimeout(d time.Duration) {
	o.opts.timeout = d
}

func (o *cli) SetAuthInfo(user, password string) {
	o.opts.authUser = user
	o.opts.authPass = password
}

func (o *cli) SetXHeaders(x httpmsg.XHeaders) {
	o.opts.xheaders = x.Clone()
}

func (o *cli) SetMaxResponseSize(sz uint) {
	o.opts.maxRespSz = sz
}

func (o *cli) GetMaxResponseSize() uint {
	return o.opts.maxRespSz
}

func (o *cli) SetExpectedHostname(name string) {
	o.opts.expected = name
}

func (o *cli) SetProxy(addr inetaddr.Addr) {
	o.opts.proxy = &addr
	o.dropCache()
}

func (o *cli) Close() {
	o.dropCache()
}

func (o *cli) dropCache() {
	if o.cache != nil {
		o.cache.close()
		o.cache = nil
	}
}

// Execute serializes the call, runs one HTTP round trip and decodes the
// answer. Any failure drops the cached connection: after an aborted
// session the packet-reader state is indeterminate and reuse would
// corrupt the next call.
func (o *cli) Execute(method string, params libvlu.Params, xheaders httpmsg.XHeaders) (xmlcodec.Response, liberr.Error) {
	req, e := o.buildRequest(method, params, xheaders)
	if e != nil {
		return xmlcodec.Response{}, e
	}

	fromCache := o.opts.keepAlive && o.cache != nil

	conn, e := o.getConn()
	if e != nil {
		return xmlcodec.Response{}, e
	}

	pkt, e := conn.roundTrip(req, false)

	if e != nil && fromCache && !e.IsCode(ErrorTimeout) && !e.IsCode(ErrorResponseTooLarge) {
		// the cached connection died between calls, likely evicted by
		// the server's idle timeout: retry once on a fresh one
		o.dropCache()

		if conn, e = o.getConn(); e != nil {
			return xmlcodec.Response{}, e
		}

		pkt, e = conn.roundTrip(req, false)
	}

	if e != nil {
		if conn == o.cache {
			o.dropCache()
		} else {
			conn.close()
		}

		return xmlcodec.Response{}, e
	}

	if !o.opts.keepAlive {
		conn.close()
		o.cache = nil
	}

	hdr, ok := pkt.ResponseHead()
	if !ok {
		o.dropCache()
		return xmlcodec.Response{}, httpmsg.ErrorMalformed.Error(nil)
	}

	if hdr.Code() != 200 {
		o.dropCache()
		return xmlcodec.Response{}, ErrorResponseStatus.Error(httpmsg.StatusError{
			Code:   hdr.Code(),
			Phrase: hdr.Phrase(),
		})
	}

	resp, perr := xmlcodec.ParseResponse(pkt.Body())
	if perr != nil {
		o.dropCache()
		return xmlcodec.Response{}, perr
	}

	return resp, nil
}

// buildRequest renders the full HTTP request image for one call.
func (o *cli) buildRequest(method string, params libvlu.Params, xheaders httpmsg.XHeaders) ([]byte, liberr.Error) {
	if method == "" {
		return nil, ErrorParamEmpty.Error(nil)
	}

	body := xmlcodec.DumpRequest(xmlcodec.Request{MethodName: method, Params: params})

	hdr := httpmsg.NewRequestHeader(o.decorateURI(), o.opts.vhost, o.opts.addr.Port())

	if o.opts.hasAuthInfo() {
		hdr.SetAuthInfo(o.opts.authUser, o.opts.authPass)
	}

	if e := hdr.SetXHeaders(o.opts.xheaders); e != nil {
		return nil, e
	}
	if e := hdr.SetXHeaders(xheaders); e != nil {
		return nil, e
	}

	pkt := httpmsg.NewPacket(hdr, []byte(body))
	pkt.SetKeepAlive(o.opts.keepAlive)

	return pkt.Dump(), nil
}

// decorateURI switches to the absolute form when a plain call rides an
// HTTP proxy.
func (o *cli) decorateURI() string {
	if o.opts.proxy == nil || o.tlsCfg != nil {
		return o.opts.uri
	}

	uri := o.opts.uri
	if uri != "" && uri[0] != '/' {
		uri = "/" + uri
	}

	return "http://" + o.opts.vhost + ":" + strconv.Itoa(o.opts.addr.Port()) + uri
}

// getConn returns the cached connection under keep-alive or dials a
// fresh one.
func (o *cli) getConn() (clientConn, liberr.Error) {
	if o.opts.keepAlive && o.cache != nil {
		return o.cache, nil
	}

	conn, e := o.dial()
	if e != nil {
		return nil, e
	}

	if o.opts.keepAlive {
		o.cache = conn
	}

	return conn, nil
}

func (o *cli) dial() (clientConn, liberr.Error) {
	target := o.opts.addr
	if o.opts.proxy != nil {
		target = *o.opts.proxy
	}

	sck, e := libskt.New()
	if e != nil {
		return nil, e
	}

	if o.tlsCfg == nil {
		return o.dialPlain(sck, target)
	}

	return o.dialTLS(sck, target)
}

func (o *cli) dialPlain(sck *libskt.Socket, target inetaddr.Addr) (clientConn, liberr.Error) {
	if e := sck.SetNonBlocking(true); e != nil {
		sck.Close()
		return nil, e
	}

	if _, e := sck.Connect(target); e != nil {
		sck.Close()
		return nil, ErrorConnect.Error(e)
	}

	return newHTTPConn(o.opts, sck), nil
}

func (o *cli) dialTLS(sck *libskt.Socket, target inetaddr.Addr) (clientConn, liberr.Error) {
	serverName := o.opts.expected
	if serverName == "" {
		serverName = o.opts.vhost
	}

	tcfg, e := o.tlsCfg.ClientTLS(serverName)
	if e != nil {
		sck.Close()
		return nil, e
	}

	// synchronous path: no timeout, no proxy, blocking descriptor
	if o.opts.timeout <= 0 && o.opts.proxy == nil {
		if _, ce := sck.Connect(target); ce != nil {
			sck.Close()
			return nil, ErrorConnect.Error(ce)
		}

		bc, be := newBlockingTLSConn(o.opts, sck.Fd(), tcfg)
		if be != nil {
			sck.Close()
			return nil, be
		}

		// the link duplicated the descriptor
		sck.Close()
		return bc, nil
	}

	if e = sck.SetNonBlocking(true); e != nil {
		sck.Close()
		return nil, e
	}

	if _, e = sck.Connect(target); e != nil {
		sck.Close()
		return nil, ErrorConnect.Error(e)
	}

	if o.opts.proxy != nil {
		if e = o.setupTunnel(sck); e != nil {
			sck.Close()
			return nil, e
		}
	}

	return newHTTPSConn(o.opts, sck, tcfg), nil
}

// setupTunnel performs the pre-handshake CONNECT phase: write the
// request, read and validate the 200 answer header-only, then hand the
// established socket to the TLS connection.
func (o *cli) setupTunnel(sck *libskt.Socket) liberr.Error {
	req := []byte("CONNECT " + o.opts.addr.Host() + ":" + strconv.Itoa(o.opts.addr.Port()) + " HTTP/1.0\r\n\r\n")

	tc := newHTTPConn(o.opts, sck)

	pkt, e := tc.roundTrip(req, true)
	if e != nil {
		return ErrorProxyTunnel.Error(e)
	}

	hdr, ok := pkt.ResponseHead()
	if !ok || hdr.Code() != 200 {
		return ErrorProxyTunnel.Error(nil)
	}

	return nil
}
