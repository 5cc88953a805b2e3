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

// Package server composes the XML-RPC server role: acceptor, firewall,
// reactor-scheduled connections, packet reading, authentication,
// dispatch, interceptors, execution policy and the response pipeline.
package server

import (
	"crypto/tls"
	"time"

	libatm "github.com/nabbar/golib/atomic"
	liberr "github.com/nabbar/golib/errors"
	liblog "github.com/nabbar/golib/logger"
	"github.com/nabbar/xmlrpc/dispatch"
	"github.com/nabbar/xmlrpc/executor"
	"github.com/nabbar/xmlrpc/firewall"
	"github.com/nabbar/xmlrpc/httpmsg"
	"github.com/nabbar/xmlrpc/inetaddr"
	libreact "github.com/nabbar/xmlrpc/reactor"
	libssl "github.com/nabbar/xmlrpc/tlslink"
)

// Server is the XML-RPC serving role. Configuration happens before Work;
// SetExitFlag, Interrupt and SetFirewall are safe at any time.
type Server interface {
	// RegisterMethod binds a method factory under a unique name.
	RegisterMethod(name string, f dispatch.MethodFactory)

	// RegisterFunc binds a stateless function under a unique name.
	RegisterFunc(name string, fn dispatch.MethodFunc)

	// PushDispatcher appends a custom dispatcher to the ordered list.
	PushDispatcher(d dispatch.Dispatcher)

	// EnableIntrospection registers system.listMethods.
	EnableIntrospection()

	// PushInterceptor nests a new outermost interceptor around every
	// dispatched method.
	PushInterceptor(ic Interceptor)

	// SetAuthPlugin installs HTTP Basic authentication.
	SetAuthPlugin(ap AuthPlugin)

	// SetFirewall swaps the admission predicate, nil to remove.
	SetFirewall(fw firewall.Firewall)

	// SetMaxRequestSize caps one request's cumulative bytes, 0 unlimited.
	SetMaxRequestSize(sz uint)
	GetMaxRequestSize() uint

	// SetVerifyLevel switches the HTTP reader strictness.
	SetVerifyLevel(level httpmsg.VerifyLevel)
	GetVerifyLevel() httpmsg.VerifyLevel

	// SetIdleTimeout arms keep-alive connection eviction, 0 disables.
	SetIdleTimeout(d time.Duration)
	GetIdleTimeout() time.Duration

	// Work runs the serving loop until the exit flag is observed.
	Work() liberr.Error

	// SetExitFlag asks the work loop to stop and interrupts the poll.
	SetExitFlag()

	// Interrupt wakes a blocked reactor; safe from any goroutine.
	Interrupt()

	// BoundAddr reports the listening endpoint once Work has bound it.
	BoundAddr() (inetaddr.Addr, liberr.Error)

	// ConnectionCount reports the live connection set size.
	ConnectionCount() int
}

// New builds a plain-HTTP server bound to addr with the given execution
// policy.
func New(addr inetaddr.Addr, ef executor.Factory, log liblog.FuncLog) (Server, liberr.Error) {
	return newServer(addr, ef, nil, log)
}

// NewTLS builds an HTTPS server. The TLS configuration must carry at
// least one certificate pair.
func NewTLS(addr inetaddr.Addr, ef executor.Factory, cfg libssl.Config, log liblog.FuncLog) (Server, liberr.Error) {
	tc, e := cfg.ServerTLS()
	if e != nil {
		return nil, ErrorTLSConfig.Error(e)
	}

	return newServer(addr, ef, tc, log)
}

func newServer(addr inetaddr.Addr, ef executor.Factory, tlsCfg *tls.Config, log liblog.FuncLog) (Server, liberr.Error) {
	if ef == nil {
		return nil, ErrorParamEmpty.Error(nil)
	} else if !addr.IsValid() {
		return nil, ErrorParamEmpty.Error(nil)
	}

	s := &srv{
		bind:    addr,
		exec:    ef,
		reactor: ef.CreateReactor(),
		disp:    dispatch.NewManager(),
		log:     log,
		tls:     tlsCfg,
		fw:      libatm.NewValue[firewall.Firewall](),
		conns:   make(map[conn]struct{}),
	}

	it, e := libreact.NewInterrupter(s.reactor)
	if e != nil {
		return nil, e
	}

	s.interrupter = it

	return s, nil
}
