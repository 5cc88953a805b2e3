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
	"github.com/nabbar/xmlrpc/safenum"
	libvlu "github.com/nabbar/xmlrpc/value"
)

// value production states
const (
	vbValue = iota
	vbString
	vbInt
	vbInt64
	vbBool
	vbDouble
	vbBinary
	vbTime
	vbStruct
	vbArray
	vbNil
)

var valueTrans = []Transition{
	{vbValue, vbString, "string"},
	{vbValue, vbInt, "int"},
	{vbValue, vbInt, "i4"},
	{vbValue, vbInt64, "i8"},
	{vbValue, vbBool, "boolean"},
	{vbValue, vbDouble, "double"},
	{vbValue, vbBinary, "base64"},
	{vbValue, vbTime, "dateTime.iso8601"},
	{vbValue, vbStruct, "struct"},
	{vbValue, vbArray, "array"},
	{vbValue, vbNil, "nil"},
}

// valueBuilder consumes the children of one <value> element. An empty
// <value> or an untyped <value>text</value> is a string; an empty typed
// numeric element takes the registered process-wide default, else it is a
// violation; an empty <base64> is an empty Binary.
type valueBuilder struct {
	BuilderBase
	state  StateMachine
	result libvlu.Value
	filled bool
}

func newValueBuilder(p *Parser) *valueBuilder {
	return &valueBuilder{
		BuilderBase: NewBuilderBase(p, true),
		state:       NewStateMachine(p, vbValue, valueTrans),
	}
}

func (o *valueBuilder) Base() *BuilderBase {
	return &o.BuilderBase
}

func (o *valueBuilder) set(v libvlu.Value) {
	o.result = v
	o.filled = true
}

func (o *valueBuilder) OnElement(tag string) liberr.Error {
	st, e := o.state.Change(tag)
	if e != nil {
		return e
	}

	switch st {
	case vbStruct:
		sb := newStructBuilder(o.parser)
		if e = Build(sb, true); e != nil {
			return e
		}
		o.set(sb.result)

	case vbArray:
		ab := newArrayBuilder(o.parser)
		if e = Build(ab, true); e != nil {
			return e
		}
		o.set(ab.result)

	case vbNil:
		o.set(libvlu.Nil())

	default:
		// wait for text within <i4>...</i4> and friends
	}

	if o.filled {
		o.WantExit()
	}

	return nil
}

func (o *valueBuilder) OnElementEnd(_ string) liberr.Error {
	if o.filled {
		return nil
	}

	switch o.state.State() {
	case vbValue, vbString:
		o.set(libvlu.String(""))

	case vbInt:
		if d, ok := libvlu.DefaultInt(); ok {
			o.set(libvlu.Int(d))
			break
		}
		return o.Violation()

	case vbInt64:
		if d, ok := libvlu.DefaultInt64(); ok {
			o.set(libvlu.Int64(d))
			break
		}
		return o.Violation()

	case vbBinary:
		o.set(libvlu.Bin(libvlu.BinaryFromData(nil)))

	default:
		return o.Violation()
	}

	return nil
}

func (o *valueBuilder) OnText(text string) liberr.Error {
	switch o.state.State() {
	case vbValue:
		o.WantExit()
		o.set(libvlu.String(text))

	case vbString:
		o.set(libvlu.String(text))

	case vbInt:
		v, e := safenum.ParseInt32(text)
		if e != nil {
			return o.Violation()
		}
		o.set(libvlu.Int(v))

	case vbInt64:
		v, e := safenum.ParseInt64(text)
		if e != nil {
			return o.Violation()
		}
		o.set(libvlu.Int64(v))

	case vbBool:
		v, e := safenum.ParseInt32(text)
		if e != nil {
			return o.Violation()
		}
		o.set(libvlu.Bool(v != 0))

	case vbDouble:
		v, e := safenum.ParseFloat(text)
		if e != nil {
			return o.Violation()
		}
		o.set(libvlu.Double(v))

	case vbBinary:
		b, e := libvlu.BinaryFromBase64(text)
		if e != nil {
			return ErrorViolation.Error(e)
		}
		o.set(libvlu.Bin(b))

	case vbTime:
		d, e := libvlu.ParseDateTime(text)
		if e != nil {
			return ErrorViolation.Error(e)
		}
		o.set(libvlu.Date(d))

	default:
		return o.Violation()
	}

	return nil
}

//
// struct production
//

const (
	sbNone = iota
	sbMember
	sbNameRead
	sbValueRead
)

var structTrans = []Transition{
	{sbNone, sbMember, "member"},
	{sbMember, sbNameRead, "name"},
	{sbNameRead, sbValueRead, "value"},
}

type structBuilder struct {
	BuilderBase
	state  StateMachine
	name   string
	value  libvlu.Value
	result libvlu.Value
}

func newStructBuilder(p *Parser) *structBuilder {
	return &structBuilder{
		BuilderBase: NewBuilderBase(p, false),
		state:       NewStateMachine(p, sbNone, structTrans),
		result:      libvlu.Struct(),
	}
}

func (o *structBuilder) Base() *BuilderBase {
	return &o.BuilderBase
}

func (o *structBuilder) OnElement(tag string) liberr.Error {
	st, e := o.state.Change(tag)
	if e != nil {
		return e
	}

	switch st {
	case sbNameRead:
		if o.name, e = o.parser.ReadText(); e != nil {
			return e
		}

	case sbValueRead:
		vb := newValueBuilder(o.parser)
		if e = Build(vb, false); e != nil {
			return e
		}

		if vb.filled {
			o.value = vb.result
		} else {
			o.value = libvlu.String("")
		}

	case sbMember:
	}

	return nil
}

func (o *structBuilder) OnElementEnd(tag string) liberr.Error {
	if tag == "member" {
		if o.state.State() != sbValueRead {
			return o.Violation()
		}

		o.result.Insert(o.name, o.value)
		o.state.SetState(sbNone)
	}

	return nil
}

func (o *structBuilder) OnText(_ string) liberr.Error {
	return nil
}

//
// array production
//

const (
	abNone = iota
	abData
	abValues
)

var arrayTrans = []Transition{
	{abNone, abData, "data"},
	{abData, abValues, "value"},
	{abValues, abValues, "value"},
}

type arrayBuilder struct {
	BuilderBase
	state  StateMachine
	result libvlu.Value
}

func newArrayBuilder(p *Parser) *arrayBuilder {
	return &arrayBuilder{
		BuilderBase: NewBuilderBase(p, false),
		state:       NewStateMachine(p, abNone, arrayTrans),
		result:      libvlu.Array(),
	}
}

func (o *arrayBuilder) Base() *BuilderBase {
	return &o.BuilderBase
}

func (o *arrayBuilder) OnElement(tag string) liberr.Error {
	st, e := o.state.Change(tag)
	if e != nil {
		return e
	}

	if st == abValues {
		vb := newValueBuilder(o.parser)
		if e = Build(vb, false); e != nil {
			return e
		}

		if vb.filled {
			o.result.Append(vb.result)
		} else {
			o.result.Append(libvlu.String(""))
		}
	}

	return nil
}

func (o *arrayBuilder) OnElementEnd(_ string) liberr.Error {
	return nil
}

func (o *arrayBuilder) OnText(_ string) liberr.Error {
	return nil
}

// ParseValue decodes one standalone <value> document, used by tests and
// by callers embedding values outside a call envelope.
func ParseValue(buf []byte) (libvlu.Value, liberr.Error) {
	p, e := NewParser(buf)
	if e != nil {
		return libvlu.Value{}, e
	}

	// consume the outer <value> open
	step, e := p.read()
	if e != nil {
		return libvlu.Value{}, e
	} else if !step.elemBegin || step.tag != "value" {
		return libvlu.Value{}, p.violation("expected <value>")
	} else if e = p.enterElement(); e != nil {
		return libvlu.Value{}, e
	}

	vb := newValueBuilder(p)
	if e = Build(vb, false); e != nil {
		return libvlu.Value{}, e
	}

	if !vb.filled {
		return libvlu.String(""), nil
	}

	return vb.result, nil
}
