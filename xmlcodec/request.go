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

package xmlcodec

import (
	liberr "github.com/nabbar/golib/errors"
	libvlu "github.com/nabbar/xmlrpc/value"
)

// MaxMethodNameLen caps method names at parse time.
const MaxMethodNameLen = 256

// Request is one decoded methodCall envelope.
type Request struct {
	MethodName string
	Params     libvlu.Params
}

// Clone deep-copies the request.
func (r Request) Clone() Request {
	return Request{
		MethodName: r.MethodName,
		Params:     r.Params.Clone(),
	}
}

// request production states
const (
	rbNone = iota
	rbCall
	rbName
	rbParams
	rbParam
	rbValue
)

var requestTrans = []Transition{
	{rbNone, rbCall, "methodCall"},
	{rbCall, rbName, "methodName"},
	{rbName, rbParams, "params"},
	{rbParams, rbParam, "param"},
	{rbParam, rbValue, "value"},
	{rbValue, rbParam, "param"},
}

type requestBuilder struct {
	BuilderBase
	state   StateMachine
	name    string
	named   bool
	params  libvlu.Params
}

func newRequestBuilder(p *Parser) *requestBuilder {
	return &requestBuilder{
		BuilderBase: NewBuilderBase(p, false),
		state:       NewStateMachine(p, rbNone, requestTrans),
	}
}

func (o *requestBuilder) Base() *BuilderBase {
	return &o.BuilderBase
}

func (o *requestBuilder) OnElement(tag string) liberr.Error {
	st, e := o.state.Change(tag)
	if e != nil {
		return e
	}

	switch st {
	case rbName:
		if o.name, e = o.parser.ReadText(); e != nil {
			return e
		}

		if len(o.name) > MaxMethodNameLen {
			return ErrorMethodNameLength.Error(nil)
		}

		o.named = true

	case rbValue:
		vb := newValueBuilder(o.parser)
		if e = Build(vb, false); e != nil {
			return e
		}

		if vb.filled {
			o.params = append(o.params, vb.result)
		} else {
			o.params = append(o.params, libvlu.String(""))
		}
	}

	return nil
}

func (o *requestBuilder) OnElementEnd(_ string) liberr.Error {
	return nil
}

func (o *requestBuilder) OnText(_ string) liberr.Error {
	return nil
}

// ParseRequest decodes a methodCall document.
func ParseRequest(buf []byte) (*Request, liberr.Error) {
	p, e := NewParser(buf)
	if e != nil {
		return nil, e
	}

	b := newRequestBuilder(p)
	if e = Build(b, false); e != nil {
		return nil, e
	}

	if !b.named {
		return nil, p.violation("missing methodName")
	}

	return &Request{MethodName: b.name, Params: b.params}, nil
}

// DumpRequest serializes a methodCall document.
func DumpRequest(r Request) string {
	w := NewWriter()

	root := w.Open("methodCall")
	w.TextNode("methodName", r.MethodName)

	params := w.Open("params")
	for i := range r.Params {
		np := w.Open("param")
		w.WriteValue(r.Params[i], false)
		np.Close()
	}
	params.Close()

	root.Close()
	return w.String()
}
