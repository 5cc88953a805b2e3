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
	"sync"
	"sync/atomic"
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
	libskt "github.com/nabbar/xmlrpc/socket"
	"github.com/nabbar/xmlrpc/xmlcodec"
)

// conn is the transport-independent view the server keeps of one live
// connection.
type conn interface {
	libreact.EventHandler
	executor.Responder

	peerAddr() inetaddr.Addr
	idleExpired(timeout time.Duration) bool
	terminateIdle()
	scheduleStatus(st httpmsg.StatusError)
}

type srv struct {
	bind inetaddr.Addr
	exec executor.Factory
	tls  *tls.Config
	log  liblog.FuncLog

	reactor     libreact.Reactor
	interrupter *libreact.Interrupter

	disp       dispatch.Manager
	intercepts interceptChain
	auth       AuthPlugin

	fw libatm.Value[firewall.Firewall]

	exitFlag  atomic.Bool
	maxReqSz  atomic.Uint64
	verLevel  atomic.Int32
	idleTmOut atomic.Int64

	// acceptorMux resolves the race between SetFirewall on the caller's
	// goroutine and Work building or releasing the acceptor.
	acceptorMux sync.Mutex
	acceptorRef *acceptor

	connsMux sync.Mutex
	conns    map[conn]struct{}
}

func (o *srv) RegisterMethod(name string, f dispatch.MethodFactory) {
	o.disp.RegisterMethod(name, f)
}

func (o *srv) RegisterFunc(name string, fn dispatch.MethodFunc) {
	o.disp.RegisterFunc(name, fn)
}

func (o *srv) PushDispatcher(d dispatch.Dispatcher) {
	o.disp.PushDispatcher(d)
}

func (o *srv) EnableIntrospection() {
	o.disp.EnableIntrospection()
}

func (o *srv) PushInterceptor(ic Interceptor) {
	o.intercepts.push(ic)
}

func (o *srv) SetAuthPlugin(ap AuthPlugin) {
	o.auth = ap
}

func (o *srv) SetFirewall(fw firewall.Firewall) {
	o.fw.Store(fw)
}

func (o *srv) SetMaxRequestSize(sz uint) {
	o.maxReqSz.Store(uint64(sz))
}

func (o *srv) GetMaxRequestSize() uint {
	return uint(o.maxReqSz.Load())
}

func (o *srv) maxRequestSize() uint {
	return uint(o.maxReqSz.Load())
}

func (o *srv) SetVerifyLevel(level httpmsg.VerifyLevel) {
	o.verLevel.Store(int32(level))
}

func (o *srv) GetVerifyLevel() httpmsg.VerifyLevel {
	return httpmsg.VerifyLevel(o.verLevel.Load())
}

func (o *srv) verifyLevel() httpmsg.VerifyLevel {
	return httpmsg.VerifyLevel(o.verLevel.Load())
}

func (o *srv) SetIdleTimeout(d time.Duration) {
	o.idleTmOut.Store(int64(d))
}

func (o *srv) GetIdleTimeout() time.Duration {
	return time.Duration(o.idleTmOut.Load())
}

func (o *srv) SetExitFlag() {
	o.exitFlag.Store(true)
	o.Interrupt()
}

func (o *srv) Interrupt() {
	o.interrupter.Interrupt()
}

func (o *srv) BoundAddr() (inetaddr.Addr, liberr.Error) {
	o.acceptorMux.Lock()
	defer o.acceptorMux.Unlock()

	if o.acceptorRef == nil {
		return inetaddr.Addr{}, ErrorParamEmpty.Error(nil)
	}

	return o.acceptorRef.localAddr()
}

func (o *srv) ConnectionCount() int {
	o.connsMux.Lock()
	defer o.connsMux.Unlock()

	return len(o.conns)
}

func (o *srv) registerConn(c conn) {
	o.connsMux.Lock()
	o.conns[c] = struct{}{}
	o.connsMux.Unlock()
}

func (o *srv) unregisterConn(c conn) {
	if fw := o.fw.Load(); fw != nil {
		fw.Release(c.peerAddr())
	}

	o.connsMux.Lock()
	delete(o.conns, c)
	o.connsMux.Unlock()
}

func (o *srv) createConn(sck *libskt.Socket) {
	if o.tls != nil {
		newTLSConn(o, sck, o.tls)
	} else {
		newHTTPConn(o, sck)
	}
}

func (o *srv) logError(where string, err error) {
	if o.log == nil {
		return
	} else if l := o.log(); l != nil {
		l.Error(where, nil, err)
	}
}

// Work is the serving loop. It binds the acceptor, polls with a one
// second timeout while idle eviction is armed, sweeps for expired
// connections on every wake, and on exit releases the acceptor and
// drains in-flight executors.
func (o *srv) Work() liberr.Error {
	o.acceptorMux.Lock()
	if o.acceptorRef == nil {
		a, e := newAcceptor(o, o.bind)
		if e != nil {
			o.acceptorMux.Unlock()
			return e
		}
		o.acceptorRef = a
	}
	o.acceptorMux.Unlock()

	for {
		if o.exitFlag.Load() {
			break
		}

		pollTimeout := libreact.NoTimeout
		if o.idleTmOut.Load() > 0 {
			pollTimeout = 1000
		}

		more, e := o.reactor.HandleEvents(pollTimeout)

		if e != nil {
			if e.IsCode(libreact.ErrorNoHandlers) {
				break
			}
			o.logError("server work loop", e)
		}

		o.checkIdleTimeouts()

		if !more && o.exitFlag.Load() {
			break
		}
	}

	o.acceptorMux.Lock()
	if o.acceptorRef != nil {
		o.acceptorRef.close()
		o.acceptorRef = nil
	}
	o.acceptorMux.Unlock()

	o.exec.Drain()
	o.exitFlag.Store(false)

	return nil
}

// checkIdleTimeouts collects expired connections under the set mutex and
// terminates them outside it; the claim resolves races with data that
// arrived since collection.
func (o *srv) checkIdleTimeouts() {
	timeout := time.Duration(o.idleTmOut.Load())
	if timeout <= 0 {
		return
	}

	var expired []conn

	o.connsMux.Lock()
	for c := range o.conns {
		if c.idleExpired(timeout) {
			expired = append(expired, c)
		}
	}
	o.connsMux.Unlock()

	for _, c := range expired {
		c.terminateIdle()
	}
}

// scheduleExecute carries a complete packet through authentication,
// parsing, dispatch, interception and execution. Failures map to either
// an HTTP status or an XML-RPC fault, always answered on the same
// connection.
func (o *srv) scheduleExecute(pkt *httpmsg.Packet, c conn) {
	if fw := o.fw.Load(); fw != nil {
		if rl, ok := fw.(firewall.RequestLimiter); ok {
			if !rl.CheckRequestAllowed(c.peerAddr()) {
				c.scheduleStatus(httpmsg.NewTooManyRequests())
				return
			}
		}
	}

	authName, aerr := authenticate(pkt, o.auth)
	if aerr != nil {
		o.logError("server auth", aerr)
		c.scheduleStatus(httpmsg.StatusOf(aerr))
		return
	}

	req, perr := xmlcodec.ParseRequest(pkt.Body())
	if perr != nil {
		o.logError("server parse", perr)
		c.ScheduleResponse(xmlcodec.NewFaultResponse(xmlcodec.FaultCodeOf(perr), perr.Error()))
		return
	}

	meth, derr := o.disp.CreateMethod(req.MethodName)
	if derr != nil {
		o.logError("server dispatch", derr)
		c.ScheduleResponse(xmlcodec.NewFaultResponse(xmlcodec.FaultUnknownMethod, derr.Error()))
		return
	}

	data := dispatch.Data{
		MethodName: req.MethodName,
		PeerAddr:   c.peerAddr(),
		AuthName:   authName,
		Interrupt:  o.Interrupt,
	}

	if hdr, ok := pkt.RequestHead(); ok {
		data.XHeaders = hdr.XHeaders()
	}

	ex := o.exec.Create(o.intercepts.wrap(meth), data, c)
	ex.Execute(req.Params)
}
