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

// Package dispatch resolves decoded method names into executable methods
// through an ordered list of dispatchers, with the built-in
// system.listMethods introspection.
package dispatch

import (
	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/httpmsg"
	"github.com/nabbar/xmlrpc/inetaddr"
	libvlu "github.com/nabbar/xmlrpc/value"
	"github.com/nabbar/xmlrpc/xmlcodec"
)

// MaxMethodNameLen is the defensive cap re-checked at dispatch time; the
// parse-time guard in the codec is the primary enforcement.
const MaxMethodNameLen = xmlcodec.MaxMethodNameLen

// Data carries the per-call context handed to a method.
type Data struct {
	// MethodName is the decoded call name.
	MethodName string

	// PeerAddr is the remote endpoint of the connection carrying the call.
	PeerAddr inetaddr.Addr

	// AuthName is the authenticated user, empty for anonymous calls.
	AuthName string

	// XHeaders are the X- passthrough fields of the request.
	XHeaders httpmsg.XHeaders

	// Interrupt wakes the owning server's reactor, letting a method
	// signal the serving loop. Nil outside a server context.
	Interrupt func()
}

// Method is one executable remote procedure. Raising an xmlcodec.Fault
// produces a fault response with the user's code and message; any other
// error becomes an application fault.
type Method interface {
	Execute(ctx Data, params libvlu.Params) (libvlu.Value, error)
}

// MethodFunc adapts a plain function to Method.
type MethodFunc func(ctx Data, params libvlu.Params) (libvlu.Value, error)

func (f MethodFunc) Execute(ctx Data, params libvlu.Params) (libvlu.Value, error) {
	return f(ctx, params)
}

// MethodFactory builds one Method instance per call.
type MethodFactory interface {
	Create() Method
}

// FactoryFunc adapts a plain constructor to MethodFactory.
type FactoryFunc func() Method

func (f FactoryFunc) Create() Method {
	return f()
}

// Dispatcher resolves names to methods. CreateMethod returns nil for
// unknown names so the manager can continue down its ordered list.
type Dispatcher interface {
	CreateMethod(name string) Method
	MethodList() []string
}

// Manager holds the ordered dispatcher list, walks it in registration
// order and owns the default map-backed dispatcher plus introspection.
type Manager interface {
	// RegisterMethod binds a factory under a unique name; re-registration
	// replaces the previous factory.
	RegisterMethod(name string, f MethodFactory)

	// RegisterFunc binds a stateless function under a unique name.
	RegisterFunc(name string, fn MethodFunc)

	// PushDispatcher appends a custom dispatcher after the existing ones.
	PushDispatcher(d Dispatcher)

	// CreateMethod walks the dispatchers in order and returns the first
	// resolution. Unknown or over-long names yield ErrorUnknownMethod
	// with a sanitized message.
	CreateMethod(name string) (Method, liberr.Error)

	// MethodList enumerates every dispatcher in order.
	MethodList() []string

	// EnableIntrospection registers the built-in system.listMethods.
	EnableIntrospection()
}

// NewManager builds a manager seeded with the default dispatcher.
func NewManager() Manager {
	d := &defaultDispatcher{factories: make(map[string]MethodFactory)}

	return &manager{
		def:         d,
		dispatchers: []Dispatcher{d},
	}
}
