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

// Package value implements the XML-RPC tagged value union: Nil, Int,
// Int64, Bool, Double, String, Binary, DateTime, Array and Struct.
//
// A kind tag carried on every Value yields O(1) type checks. Clone is a
// deep copy with value semantics: an Array owns its elements, a Struct
// owns its members, and a Value owns exactly one variant payload.
package value

import (
	"sort"
)

// Kind tags the variant carried by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindInt64
	KindBool
	KindDouble
	KindString
	KindBinary
	KindDateTime
	KindArray
	KindStruct
)

// TypeName returns the XML-RPC element name of the kind. Int serializes
// as i4, Int64 as i8, per the de facto wire vocabulary.
func (k Kind) TypeName() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "i4"
	case KindInt64:
		return "i8"
	case KindBool:
		return "boolean"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBinary:
		return "base64"
	case KindDateTime:
		return "dateTime.iso8601"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	}

	return "unknown"
}

// Value is one XML-RPC value. The zero Value is Nil.
type Value struct {
	kind Kind
	num  int64
	dbl  float64
	str  string
	bin  *Binary
	dt   *DateTime
	arr  []Value
	mem  map[string]Value
}

// Params is the ordered value sequence used for both request parameters
// and response payloads.
type Params []Value

// Clone deep-copies the parameter list.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}

	r := make(Params, len(p))
	for i := range p {
		r[i] = p[i].Clone()
	}

	return r
}

func Nil() Value {
	return Value{kind: KindNil}
}

func Int(v int32) Value {
	return Value{kind: KindInt, num: int64(v)}
}

func Int64(v int64) Value {
	return Value{kind: KindInt64, num: v}
}

func Bool(v bool) Value {
	var n int64
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

func Double(v float64) Value {
	return Value{kind: KindDouble, dbl: v}
}

func String(v string) Value {
	return Value{kind: KindString, str: v}
}

func Bin(b *Binary) Value {
	if b == nil {
		b = BinaryFromData(nil)
	}
	return Value{kind: KindBinary, bin: b}
}

func Date(d *DateTime) Value {
	if d == nil {
		d = &DateTime{}
	}
	return Value{kind: KindDateTime, dt: d}
}

func Array(items ...Value) Value {
	a := make([]Value, 0, len(items))
	for i := range items {
		a = append(a, items[i].Clone())
	}
	return Value{kind: KindArray, arr: a}
}

func Struct() Value {
	return Value{kind: KindStruct, mem: make(map[string]Value)}
}

// Kind returns the variant tag, an O(1) check.
func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNil() bool      { return v.kind == KindNil }
func (v Value) IsInt() bool      { return v.kind == KindInt }
func (v Value) IsInt64() bool    { return v.kind == KindInt64 }
func (v Value) IsBool() bool     { return v.kind == KindBool }
func (v Value) IsDouble() bool   { return v.kind == KindDouble }
func (v Value) IsString() bool   { return v.kind == KindString }
func (v Value) IsBinary() bool   { return v.kind == KindBinary }
func (v Value) IsDateTime() bool { return v.kind == KindDateTime }
func (v Value) IsArray() bool    { return v.kind == KindArray }
func (v Value) IsStruct() bool   { return v.kind == KindStruct }

// AsInt returns the 32-bit integer payload, reporting a kind mismatch
// through the second result instead of failing.
func (v Value) AsInt() (int32, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int32(v.num), true
}

func (v Value) AsInt64() (int64, bool) {
	if v.kind != KindInt64 {
		return 0, false
	}
	return v.num, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.num != 0, true
}

func (v Value) AsDouble() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.dbl, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsBinary() (*Binary, bool) {
	if v.kind != KindBinary {
		return nil, false
	}
	return v.bin, true
}

func (v Value) AsDateTime() (*DateTime, bool) {
	if v.kind != KindDateTime {
		return nil, false
	}
	return v.dt, true
}

// MustInt returns the 32-bit integer payload and panics on kind mismatch.
// The Must accessors are the user-ergonomics counterpart of the As ones;
// internal code paths use the latter.
func (v Value) MustInt() int32 {
	if r, ok := v.AsInt(); ok {
		return r
	}
	panic(ErrorBadCast.Error(nil))
}

func (v Value) MustInt64() int64 {
	if r, ok := v.AsInt64(); ok {
		return r
	}
	panic(ErrorBadCast.Error(nil))
}

func (v Value) MustBool() bool {
	if r, ok := v.AsBool(); ok {
		return r
	}
	panic(ErrorBadCast.Error(nil))
}

func (v Value) MustDouble() float64 {
	if r, ok := v.AsDouble(); ok {
		return r
	}
	panic(ErrorBadCast.Error(nil))
}

func (v Value) MustString() string {
	if r, ok := v.AsString(); ok {
		return r
	}
	panic(ErrorBadCast.Error(nil))
}

// Len returns the element count of an Array or the member count of a
// Struct, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindStruct:
		return len(v.mem)
	}

	return 0
}

// Index returns the i-th array element. The bool result is false when the
// value is not an array or the index is out of range.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}

	return v.arr[i], true
}

// Append adds elements to an Array value in place.
func (v *Value) Append(items ...Value) bool {
	if v.kind != KindArray {
		return false
	}

	for i := range items {
		v.arr = append(v.arr, items[i].Clone())
	}

	return true
}

// HasField reports whether a Struct member exists.
func (v Value) HasField(name string) bool {
	if v.kind != KindStruct {
		return false
	}

	_, ok := v.mem[name]
	return ok
}

// Field returns a Struct member.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindStruct {
		return Value{}, false
	}

	r, ok := v.mem[name]
	return r, ok
}

// Insert sets a Struct member. Keys are unique, last write wins.
func (v *Value) Insert(name string, val Value) bool {
	if v.kind != KindStruct {
		return false
	}

	if v.mem == nil {
		v.mem = make(map[string]Value)
	}

	v.mem[name] = val.Clone()
	return true
}

// Erase removes a Struct member.
func (v *Value) Erase(name string) {
	if v.kind == KindStruct {
		delete(v.mem, name)
	}
}

// FieldNames returns the member names of a Struct in sorted order, for
// deterministic serialization.
func (v Value) FieldNames() []string {
	if v.kind != KindStruct {
		return nil
	}

	names := make([]string, 0, len(v.mem))
	for k := range v.mem {
		names = append(names, k)
	}

	sort.Strings(names)
	return names
}

// Clone deep-copies the value.
func (v Value) Clone() Value {
	r := v

	switch v.kind {
	case KindBinary:
		if v.bin != nil {
			r.bin = v.bin.Clone()
		}
	case KindDateTime:
		if v.dt != nil {
			d := *v.dt
			r.dt = &d
		}
	case KindArray:
		r.arr = make([]Value, len(v.arr))
		for i := range v.arr {
			r.arr[i] = v.arr[i].Clone()
		}
	case KindStruct:
		r.mem = make(map[string]Value, len(v.mem))
		for k := range v.mem {
			r.mem[k] = v.mem[k].Clone()
		}
	}

	return r
}

// Move transfers ownership of the payload and leaves the source Nil.
func (v *Value) Move() Value {
	r := *v
	*v = Value{kind: KindNil}
	return r
}
