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
	"github.com/nabbar/xmlrpc/dispatch"
	libvlu "github.com/nabbar/xmlrpc/value"
)

// Yield proceeds to the next layer of the interceptor chain, the
// innermost layer being the method itself.
type Yield func(ctx dispatch.Data, params libvlu.Params) (libvlu.Value, error)

// Interceptor decorates a method call. It may observe or rewrite the
// parameters before yielding and the result after, swallow errors or
// raise its own. By contract it must not yield twice.
type Interceptor interface {
	Process(ctx dispatch.Data, params libvlu.Params, yield Yield) (libvlu.Value, error)
}

// InterceptorFunc adapts a plain function to Interceptor.
type InterceptorFunc func(ctx dispatch.Data, params libvlu.Params, yield Yield) (libvlu.Value, error)

func (f InterceptorFunc) Process(ctx dispatch.Data, params libvlu.Params, yield Yield) (libvlu.Value, error) {
	return f(ctx, params, yield)
}

// interceptChain is the ordered decorator stack: pushing nests the
// previously outermost interceptor inside the new one.
type interceptChain struct {
	stack []Interceptor
}

func (o *interceptChain) push(ic Interceptor) {
	o.stack = append(o.stack, ic)
}

// wrap folds the chain around a method, newest interceptor outermost.
func (o *interceptChain) wrap(m dispatch.Method) dispatch.Method {
	wrapped := m

	for _, ic := range o.stack {
		inner := wrapped
		layer := ic

		wrapped = dispatch.MethodFunc(func(ctx dispatch.Data, params libvlu.Params) (libvlu.Value, error) {
			return layer.Process(ctx, params, inner.Execute)
		})
	}

	return wrapped
}
