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

package dispatch

import (
	liberr "github.com/nabbar/golib/errors"
	libvlu "github.com/nabbar/xmlrpc/value"
)

// defaultDispatcher wraps a mapping from method name to factory with
// unique keys, last registration wins.
type defaultDispatcher struct {
	factories map[string]MethodFactory
}

func (o *defaultDispatcher) register(name string, f MethodFactory) {
	o.factories[name] = f
}

func (o *defaultDispatcher) CreateMethod(name string) Method {
	if f, ok := o.factories[name]; ok {
		return f.Create()
	}

	return nil
}

func (o *defaultDispatcher) MethodList() []string {
	r := make([]string, 0, len(o.factories))
	for k := range o.factories {
		r = append(r, k)
	}

	return r
}

type manager struct {
	def         *defaultDispatcher
	dispatchers []Dispatcher
}

func (o *manager) RegisterMethod(name string, f MethodFactory) {
	o.def.register(name, f)
}

func (o *manager) RegisterFunc(name string, fn MethodFunc) {
	o.def.register(name, FactoryFunc(func() Method { return fn }))
}

func (o *manager) PushDispatcher(d Dispatcher) {
	o.dispatchers = append(o.dispatchers, d)
}

func (o *manager) CreateMethod(name string) (Method, liberr.Error) {
	// defensive re-check of the parse-time cap, with a sanitized message
	if len(name) > MaxMethodNameLen {
		return nil, unknownMethod(name)
	}

	for _, d := range o.dispatchers {
		if m := d.CreateMethod(name); m != nil {
			return m, nil
		}
	}

	return nil, unknownMethod(name)
}

func (o *manager) MethodList() []string {
	var r []string

	for _, d := range o.dispatchers {
		r = append(r, d.MethodList()...)
	}

	return r
}

// EnableIntrospection registers system.listMethods, which enumerates
// every dispatcher in the ordered list.
// See http://xmlrpc.usefulinc.com/doc/reserved.html
func (o *manager) EnableIntrospection() {
	o.def.register("system.listMethods", FactoryFunc(func() Method {
		return MethodFunc(func(_ Data, _ libvlu.Params) (libvlu.Value, error) {
			names := o.MethodList()

			r := libvlu.Array()
			for _, n := range names {
				r.Append(libvlu.String(n))
			}

			return r, nil
		})
	}))
}
