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

package value

import (
	libatm "github.com/nabbar/golib/atomic"
)

// Process-wide value-model options. Each option is an independent atomic;
// a reader may transiently observe one option set by one writer and
// another set by a second writer. The caller contract is: configure once
// at startup, before worker goroutines exist.

var (
	optDefaultInt    = libatm.NewValue[int32]()
	optDefaultIntOk  = libatm.NewValue[bool]()
	optDefaultI64    = libatm.NewValue[int64]()
	optDefaultI64Ok  = libatm.NewValue[bool]()
	optOmitStringTag = libatm.NewValue[bool]()
)

// SetDefaultInt registers the value substituted for an empty parsed
// <int></int> element. Without a registered default an empty numeric
// element is a parse violation.
func SetDefaultInt(v int32) {
	optDefaultInt.Store(v)
	optDefaultIntOk.Store(true)
}

// DefaultInt returns the registered empty-element default, if any.
func DefaultInt() (int32, bool) {
	return optDefaultInt.Load(), optDefaultIntOk.Load()
}

// SetDefaultInt64 registers the value substituted for an empty parsed
// <i8></i8> element.
func SetDefaultInt64(v int64) {
	optDefaultI64.Store(v)
	optDefaultI64Ok.Store(true)
}

// DefaultInt64 returns the registered empty-element default, if any.
func DefaultInt64() (int64, bool) {
	return optDefaultI64.Load(), optDefaultI64Ok.Load()
}

// SetOmitStringTag forces response-side serialization to drop the
// <string> wrapper so a string renders as <value>text</value>.
func SetOmitStringTag(omit bool) {
	optOmitStringTag.Store(omit)
}

// OmitStringTag reports the response-side string wrapper policy.
func OmitStringTag() bool {
	return optOmitStringTag.Load()
}
