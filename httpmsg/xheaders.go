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

package httpmsg

import (
	"strings"

	liberr "github.com/nabbar/golib/errors"
)

// XHeaders carries user passthrough fields. Only names starting with
// X- are admitted; keys are normalized to lowercase.
type XHeaders map[string]string

// ValidXHeaderName reports whether the name carries the X- prefix.
func ValidXHeaderName(name string) bool {
	return strings.HasPrefix(name, "X-") || strings.HasPrefix(name, "x-")
}

// Set admits one passthrough field.
func (x XHeaders) Set(name, value string) liberr.Error {
	if !ValidXHeaderName(name) {
		return ErrorHeaderCRLF.Error(newMsgErr("header does not start with X-"))
	} else if e := checkCRLF(name, value); e != nil {
		return e
	}

	x[strings.ToLower(name)] = value
	return nil
}

// Merge overlays other on top of x, last write wins.
func (x XHeaders) Merge(other XHeaders) {
	for k, v := range other {
		x[strings.ToLower(k)] = v
	}
}

// Clone copies the map.
func (x XHeaders) Clone() XHeaders {
	r := make(XHeaders, len(x))
	for k, v := range x {
		r[k] = v
	}
	return r
}
