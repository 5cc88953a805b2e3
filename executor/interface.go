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

// Package executor carries a decoded call from the reactor goroutine to
// its execution site: inline for the serial policy, a fixed worker pool
// for the pool policy.
package executor

import (
	"fmt"

	liblog "github.com/nabbar/golib/logger"
	"github.com/nabbar/xmlrpc/dispatch"
	libreact "github.com/nabbar/xmlrpc/reactor"
	libvlu "github.com/nabbar/xmlrpc/value"
	"github.com/nabbar/xmlrpc/xmlcodec"
)

// Responder receives the response produced by an executor. The server
// connection implements it; completion may come from a worker goroutine
// under the pool policy.
type Responder interface {
	ScheduleResponse(resp xmlcodec.Response)
}

// Executor runs one decoded call and delivers exactly one response.
type Executor interface {
	Execute(params libvlu.Params)
}

// Factory is the execution policy: it produces executors and the reactor
// flavor matching its threading shape, and drains in-flight work on
// shutdown.
type Factory interface {
	Create(m dispatch.Method, ctx dispatch.Data, r Responder) Executor

	// CreateReactor returns a reactor with the synchronization level the
	// policy needs: none for serial, a mutex for pool.
	CreateReactor() libreact.Reactor

	// Drain blocks until every in-flight executor completed, logging a
	// warning at a fixed interval while waiting.
	Drain()

	// Close stops the policy; for the pool it joins all workers and
	// destroys any orphaned executor left in the queue.
	Close()
}

// NewSerial builds the inline execution policy.
func NewSerial() Factory {
	return &serialFactory{}
}

type serialFactory struct{}

func (o *serialFactory) Create(m dispatch.Method, ctx dispatch.Data, r Responder) Executor {
	return &serialExecutor{meth: m, ctx: ctx, resp: r}
}

func (o *serialFactory) CreateReactor() libreact.Reactor {
	return libreact.NewSerial()
}

func (o *serialFactory) Drain() {}

func (o *serialFactory) Close() {}

type serialExecutor struct {
	meth dispatch.Method
	ctx  dispatch.Data
	resp Responder
}

func (o *serialExecutor) Execute(params libvlu.Params) {
	o.resp.ScheduleResponse(runMethod(o.meth, o.ctx, params))
}

// runMethod converts the method outcome into a response: a Fault keeps
// the user's code and message, any other error becomes a -1 fault, and a
// panic becomes -1 "Unknown Error".
func runMethod(m dispatch.Method, ctx dispatch.Data, params libvlu.Params) (resp xmlcodec.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = xmlcodec.NewFaultResponse(-1, "Unknown Error")
		}
	}()

	v, err := m.Execute(ctx, params)

	if err != nil {
		if f, ok := err.(xmlcodec.Fault); ok {
			return xmlcodec.NewFaultResponse(f.Code, f.Message)
		}
		return xmlcodec.NewFaultResponse(-1, err.Error())
	}

	return xmlcodec.NewResponse(v)
}

func logWarning(fct liblog.FuncLog, msg string, args ...interface{}) {
	if fct == nil {
		return
	} else if l := fct(); l != nil {
		l.Warning(fmt.Sprintf(msg, args...), nil)
	}
}
