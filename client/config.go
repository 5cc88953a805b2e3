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
	"fmt"
	"time"

	libval "github.com/go-playground/validator/v10"
	libdur "github.com/nabbar/golib/duration"
	liberr "github.com/nabbar/golib/errors"
	liblog "github.com/nabbar/golib/logger"
	libsiz "github.com/nabbar/golib/size"
	"github.com/nabbar/xmlrpc/httpmsg"
	"github.com/nabbar/xmlrpc/inetaddr"
	libssl "github.com/nabbar/xmlrpc/tlslink"
)

// ProxyConfig points the client at an HTTP proxy. Plain calls decorate
// the request URI to its absolute form; TLS calls open a CONNECT tunnel
// first.
type ProxyConfig struct {
	Host string `json:"host" yaml:"host" toml:"host" mapstructure:"host" validate:"required"`
	Port int    `json:"port" yaml:"port" toml:"port" mapstructure:"port" validate:"required,gt=0,lte=65535"`
}

// Config describes one client endpoint.
type Config struct {
	// Host and Port locate the server.
	Host string `json:"host" yaml:"host" toml:"host" mapstructure:"host" validate:"required"`
	Port int    `json:"port" yaml:"port" toml:"port" mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// URI is the request target, / when empty.
	URI string `json:"uri,omitempty" yaml:"uri,omitempty" toml:"uri,omitempty" mapstructure:"uri,omitempty"`

	// VHost overrides the Host header, defaulting to Host.
	VHost string `json:"vhost,omitempty" yaml:"vhost,omitempty" toml:"vhost,omitempty" mapstructure:"vhost,omitempty"`

	// KeepAlive reuses one connection across calls.
	KeepAlive bool `json:"keep_alive" yaml:"keep_alive" toml:"keep_alive" mapstructure:"keep_alive"`

	// Timeout bounds each wait for progress during a call (one reactor
	// poll), zero waits forever.
	Timeout libdur.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty" mapstructure:"timeout,omitempty"`

	// MaxResponseSize caps the cumulative response bytes, zero unlimited.
	MaxResponseSize libsiz.Size `json:"max_response_size,omitempty" yaml:"max_response_size,omitempty" toml:"max_response_size,omitempty" mapstructure:"max_response_size,omitempty"`

	// AuthUser and AuthPass enable HTTP Basic credentials.
	AuthUser string `json:"auth_user,omitempty" yaml:"auth_user,omitempty" toml:"auth_user,omitempty" mapstructure:"auth_user,omitempty"`
	AuthPass string `json:"auth_pass,omitempty" yaml:"auth_pass,omitempty" toml:"auth_pass,omitempty" mapstructure:"auth_pass,omitempty"`

	// TLS switches the transport to HTTPS when non-nil.
	TLS *libssl.Config `json:"tls,omitempty" yaml:"tls,omitempty" toml:"tls,omitempty" mapstructure:"tls,omitempty"`

	// Proxy routes the call through an HTTP proxy when non-nil.
	Proxy *ProxyConfig `json:"proxy,omitempty" yaml:"proxy,omitempty" toml:"proxy,omitempty" mapstructure:"proxy,omitempty"`
}

func (o Config) Validate() liberr.Error {
	var e = ErrorParamEmpty.Error(nil)

	if err := libval.New().Struct(o); err != nil {
		if er, ok := err.(*libval.InvalidValidationError); ok {
			e.Add(er)
		}

		for _, er := range err.(libval.ValidationErrors) {
			//nolint #goerr113
			e.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", er.Namespace(), er.ActualTag()))
		}
	}

	if !e.HasParent() {
		e = nil
	}

	return e
}

// Client builds a client from the configuration.
func (o Config) Client(log liblog.FuncLog) (Client, liberr.Error) {
	if e := o.Validate(); e != nil {
		return nil, e
	}

	addr, e := inetaddr.New(o.Host, o.Port)
	if e != nil {
		return nil, e
	}

	opts := &options{
		addr:      addr,
		uri:       o.URI,
		vhost:     o.VHost,
		keepAlive: o.KeepAlive,
		timeout:   o.Timeout.Time(),
		maxRespSz: uint(o.MaxResponseSize),
		authUser:  o.AuthUser,
		authPass:  o.AuthPass,
		xheaders:  make(httpmsg.XHeaders),
	}

	if opts.uri == "" {
		opts.uri = "/"
	}
	if opts.vhost == "" {
		opts.vhost = o.Host
	}

	if o.Proxy != nil {
		p, pe := inetaddr.New(o.Proxy.Host, o.Proxy.Port)
		if pe != nil {
			return nil, pe
		}
		opts.proxy = &p
	}

	c := &cli{opts: opts, log: log}

	if o.TLS != nil {
		c.tlsCfg = o.TLS
	}

	return c, nil
}

// options is the mutable per-client state, mirrored from Config and
// adjustable through the Client setters.
type options struct {
	addr      inetaddr.Addr
	uri       string
	vhost     string
	keepAlive bool
	timeout   time.Duration
	maxRespSz uint
	authUser  string
	authPass  string
	xheaders  httpmsg.XHeaders
	expected  string
	proxy     *inetaddr.Addr
}

func (o *options) hasAuthInfo() bool {
	return o.authUser != ""
}

func (o *options) timeoutMs() int {
	if o.timeout <= 0 {
		return -1
	}

	return int(o.timeout / time.Millisecond)
}
