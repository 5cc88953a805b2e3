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

// Package safenum provides checked arithmetic over the platform word and
// width-limited numeric parsing for sizes derived from untrusted network
// input.
//
// Every place in the module that accumulates a size from bytes received off
// the wire (content-length summing, base64 output estimates, chunk
// accumulation, header dump reservation) must route through this package so
// that a value close to the type's maximum can never wrap to a small number
// and bypass a size limit.
package safenum

import (
	"math"

	liberr "github.com/nabbar/golib/errors"
)

// WouldOverflowAdd reports whether a+b would wrap without computing it.
func WouldOverflowAdd(a, b uint) bool {
	return b > math.MaxUint-a
}

// WouldOverflowMul reports whether a*b would wrap without computing it.
func WouldOverflowMul(a, b uint) bool {
	return a != 0 && b > math.MaxUint/a
}

// Add returns a+b or ErrorOverflowAdd when the sum would wrap.
func Add(a, b uint) (uint, liberr.Error) {
	if WouldOverflowAdd(a, b) {
		return 0, ErrorOverflowAdd.Error(nil)
	}

	return a + b, nil
}

// Mul returns a*b or ErrorOverflowMul when the product would wrap.
func Mul(a, b uint) (uint, liberr.Error) {
	if WouldOverflowMul(a, b) {
		return 0, ErrorOverflowMul.Error(nil)
	}

	return a * b, nil
}

// AddAssign adds value into *target in place and returns the new value.
func AddAssign(target *uint, value uint) (uint, liberr.Error) {
	if r, e := Add(*target, value); e != nil {
		return 0, e
	} else {
		*target = r
		return r, nil
	}
}
