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
	"fmt"

	liberr "github.com/nabbar/golib/errors"
	libvlu "github.com/nabbar/xmlrpc/value"
)

// Fault is the XML-RPC application-level error raised by methods and
// carried inside a <fault> element, distinct from any HTTP-level error.
type Fault struct {
	Code    int32
	Message string
}

func (f Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.Message)
}

// Response is either a success value or a fault.
type Response struct {
	val      libvlu.Value
	fltCode  int32
	fltStr   string
	isFault  bool
}

// NewResponse wraps a success value.
func NewResponse(v libvlu.Value) Response {
	return Response{val: v}
}

// NewFaultResponse wraps a fault.
func NewFaultResponse(code int32, message string) Response {
	return Response{fltCode: code, fltStr: message, isFault: true}
}

// IsFault is O(1).
func (r Response) IsFault() bool {
	return r.isFault
}

// Value returns the success payload; accessing it on a fault is an error.
func (r Response) Value() (libvlu.Value, liberr.Error) {
	if r.isFault {
		return libvlu.Value{}, ErrorViolation.Error(Fault{Code: r.fltCode, Message: r.fltStr})
	}

	return r.val, nil
}

// MustValue returns the success payload and panics on a fault, the
// ergonomic counterpart of Value.
func (r Response) MustValue() libvlu.Value {
	if v, e := r.Value(); e != nil {
		panic(e)
	} else {
		return v
	}
}

func (r Response) FaultCode() int32 {
	return r.fltCode
}

func (r Response) FaultString() string {
	return r.fltStr
}

// response production states
const (
	pbNone = iota
	pbResp
	pbParams
	pbParam
	pbOkValue
	pbFault
	pbFaultValue
)

var responseTrans = []Transition{
	{pbNone, pbResp, "methodResponse"},
	{pbResp, pbParams, "params"},
	{pbParams, pbParam, "param"},
	{pbParam, pbOkValue, "value"},
	{pbResp, pbFault, "fault"},
	{pbFault, pbFaultValue, "value"},
}

type responseBuilder struct {
	BuilderBase
	state   StateMachine
	ok      libvlu.Value
	hasOk   bool
	fltCode int32
	fltStr  string
	isFault bool
}

func newResponseBuilder(p *Parser) *responseBuilder {
	return &responseBuilder{
		BuilderBase: NewBuilderBase(p, false),
		state:       NewStateMachine(p, pbNone, responseTrans),
	}
}

func (o *responseBuilder) Base() *BuilderBase {
	return &o.BuilderBase
}

func (o *responseBuilder) OnElement(tag string) liberr.Error {
	st, e := o.state.Change(tag)
	if e != nil {
		return e
	}

	switch st {
	case pbOkValue:
		vb := newValueBuilder(o.parser)
		if e = Build(vb, false); e != nil {
			return e
		}

		if vb.filled {
			o.ok = vb.result
		} else {
			o.ok = libvlu.String("")
		}
		o.hasOk = true

	case pbFaultValue:
		vb := newValueBuilder(o.parser)
		if e = Build(vb, false); e != nil {
			return e
		}

		return o.takeFault(vb.result)
	}

	return nil
}

// takeFault validates the fault struct shape: integer faultCode plus
// string faultString.
func (o *responseBuilder) takeFault(v libvlu.Value) liberr.Error {
	if !v.IsStruct() {
		return o.Violation()
	}

	fc, okc := v.Field("faultCode")
	fs, oks := v.Field("faultString")

	if !okc || !oks {
		return o.Violation()
	}

	if c, ok := fc.AsInt(); ok {
		o.fltCode = c
	} else if c64, ok64 := fc.AsInt64(); ok64 {
		o.fltCode = int32(c64)
	} else {
		return o.Violation()
	}

	if s, ok := fs.AsString(); ok {
		o.fltStr = s
	} else {
		return o.Violation()
	}

	o.isFault = true
	return nil
}

func (o *responseBuilder) OnElementEnd(_ string) liberr.Error {
	return nil
}

func (o *responseBuilder) OnText(_ string) liberr.Error {
	return nil
}

// ParseResponse decodes a methodResponse document.
func ParseResponse(buf []byte) (Response, liberr.Error) {
	p, e := NewParser(buf)
	if e != nil {
		return Response{}, e
	}

	b := newResponseBuilder(p)
	if e = Build(b, false); e != nil {
		return Response{}, e
	}

	if b.isFault {
		return NewFaultResponse(b.fltCode, b.fltStr), nil
	} else if b.hasOk {
		return NewResponse(b.ok), nil
	}

	return Response{}, p.violation("empty methodResponse")
}

// DumpResponse serializes a methodResponse document. Server mode applies
// the omit-string-tag option to response values.
func DumpResponse(r Response) string {
	w := NewWriter()
	root := w.Open("methodResponse")

	if !r.IsFault() {
		params := w.Open("params")
		param := w.Open("param")
		w.WriteValue(r.val, true)
		param.Close()
		params.Close()
	} else {
		fn := w.Open("fault")
		flt := libvlu.Struct()
		flt.Insert("faultCode", libvlu.Int(r.fltCode))
		flt.Insert("faultString", libvlu.String(r.fltStr))
		w.WriteValue(flt, true)
		fn.Close()
	}

	root.Close()
	return w.String()
}
