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

// Package client implements the XML-RPC calling role over plain HTTP,
// HTTPS and HTTP proxies, with optional connection caching.
package client

import (
	"time"

	liberr "github.com/nabbar/golib/errors"
	liblog "github.com/nabbar/golib/logger"
	"github.com/nabbar/xmlrpc/httpmsg"
	"github.com/nabbar/xmlrpc/inetaddr"
	libssl "github.com/nabbar/xmlrpc/tlslink"
	libvlu "github.com/nabbar/xmlrpc/value"
	"github.com/nabbar/xmlrpc/xmlcodec"
)

const readBufSize = 64 * 1024

// Client is the XML-RPC calling role. Execute is the single user-facing
// operation: it returns a Response, success or fault, or raises a
// transport-level error. A Client is not safe for concurrent Execute
// calls.
type Client interface {
	// Execute performs one call. Extra X-headers merge over the
	// configured ones for this call only.
	Execute(method string, params libvlu.Params, xheaders httpmsg.XHeaders) (xmlcodec.Response, liberr.Error)

	// SetKeepAlive toggles connection reuse; disabling drops the cache.
	SetKeepAlive(keepAlive bool)

	// SetTimeout bounds each wait for progress during a call (one reactor
	// poll), zero waits forever.
	SetTimeout(d time.Duration)

	// SetAuthInfo attaches HTTP Basic credentials.
	SetAuthInfo(user, password string)

	// SetXHeaders replaces the configured passthrough fields.
	SetXHeaders(x httpmsg.XHeaders)

	// SetMaxResponseSize caps cumulative response bytes, zero unlimited.
	SetMaxResponseSize(sz uint)
	GetMaxResponseSize() uint

	// SetExpectedHostname pins TLS hostname verification to this name.
	SetExpectedHostname(name string)

	// SetProxy routes subsequent calls through an HTTP proxy.
	SetProxy(addr inetaddr.Addr)

	// Close drops any cached connection.
	Close()
}

// New builds a plain-HTTP client. The vhost defaults to the address
// hostname when empty.
func New(addr inetaddr.Addr, uri, vhost string, log liblog.FuncLog) Client {
	if uri == "" {
		uri = "/"
	}
	if vhost == "" {
		vhost = addr.Host()
	}

	return &cli{
		opts: &options{
			addr:     addr,
			uri:      uri,
			vhost:    vhost,
			xheaders: make(httpmsg.XHeaders),
		},
		log: log,
	}
}

// NewTLS builds an HTTPS client.
func NewTLS(addr inetaddr.Addr, uri, vhost string, cfg libssl.Config, log liblog.FuncLog) Client {
	c := New(addr, uri, vhost, log).(*cli)
	c.tlsCfg = &cfg

	return c
}
