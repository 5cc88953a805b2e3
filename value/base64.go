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
	"strings"
	"sync"

	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/safenum"
)

// The stdlib base64 package rejects embedded whitespace and only tolerates
// padding at the very end of the input. XML-RPC payloads in the wild carry
// line breaks inside <base64> text, and the wire contract here treats '='
// at group positions 2 or 3 as a terminator with everything after it
// ignored. The codec below implements exactly that contract over a
// 256-entry classification table.

const base64Alpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	b64Invalid = -1
	b64Padding = -2
	b64Space   = -3
)

var base64Table = func() [256]int8 {
	var t [256]int8

	for i := range t {
		t[i] = b64Invalid
	}
	for i := 0; i < len(base64Alpha); i++ {
		t[base64Alpha[i]] = int8(i)
	}

	t['='] = b64Padding
	t[' '] = b64Space
	t['\t'] = b64Space
	t['\n'] = b64Space
	t['\v'] = b64Space
	t['\r'] = b64Space

	return t
}()

// Base64Encode renders data with '=' padding to a 4-character boundary and
// no line wrapping.
func Base64Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var b strings.Builder

	if !safenum.WouldOverflowMul(uint(len(data)), 4) {
		b.Grow((len(data)*4)/3 + 4)
	}

	for i := 0; i < len(data); i += 3 {
		c := uint32(data[i]) << 16
		b.WriteByte(base64Alpha[(c>>18)&0x3f])

		if i+1 < len(data) {
			c |= uint32(data[i+1]) << 8
			b.WriteByte(base64Alpha[(c>>12)&0x3f])
		} else {
			b.WriteByte(base64Alpha[(c>>12)&0x3f])
			b.WriteString("==")
			return b.String()
		}

		if i+2 < len(data) {
			c |= uint32(data[i+2])
			b.WriteByte(base64Alpha[(c>>6)&0x3f])
			b.WriteByte(base64Alpha[c&0x3f])
		} else {
			b.WriteByte(base64Alpha[(c>>6)&0x3f])
			b.WriteByte('=')
			return b.String()
		}
	}

	return b.String()
}

// Base64Decode accumulates four valid characters at a time and emits the
// three decoded bytes. Whitespace is skipped; '=' at group positions 2 or
// 3 terminates decoding; an incomplete final group without padding is
// malformed, as is any other character.
func Base64Decode(s string) ([]byte, liberr.Error) {
	out := make([]byte, 0, (len(s)*3)/4+1)

	var (
		vals [4]byte
		idx  int
	)

	for i := 0; i < len(s); i++ {
		v := base64Table[s[i]]

		switch {
		case v >= 0:
			vals[idx] = byte(v)
			idx++

			if idx == 4 {
				out = append(out,
					vals[0]<<2|vals[1]>>4,
					vals[1]<<4|vals[2]>>2,
					vals[2]<<6|vals[3])
				idx = 0
			}

		case v == b64Space:
			continue

		case v == b64Padding:
			switch idx {
			case 2:
				out = append(out, vals[0]<<2|vals[1]>>4)
			case 3:
				out = append(out, vals[0]<<2|vals[1]>>4, vals[1]<<4|vals[2]>>2)
			default:
				return nil, ErrorMalformedBase64.Error(nil)
			}
			return out, nil

		default:
			return nil, ErrorMalformedBase64.Error(nil)
		}
	}

	if idx != 0 {
		return nil, ErrorMalformedBase64.Error(nil)
	}

	return out, nil
}

// Binary carries a byte sequence plus a lazily populated base64 cache.
// The cache is one-shot; concurrent readers of a shared value serialize
// on the value's own lock, never a global one.
type Binary struct {
	mux  sync.Mutex
	data []byte
	b64  string
}

// BinaryFromData wraps raw bytes.
func BinaryFromData(data []byte) *Binary {
	return &Binary{data: append([]byte(nil), data...)}
}

// BinaryFromBase64 decodes the textual form eagerly so malformed input is
// rejected at construction.
func BinaryFromBase64(s string) (*Binary, liberr.Error) {
	d, e := Base64Decode(s)
	if e != nil {
		return nil, e
	}

	return &Binary{data: d, b64: s}, nil
}

// Data returns the raw bytes. The slice is owned by the Binary.
func (o *Binary) Data() []byte {
	return o.data
}

// Base64 returns the textual form, encoding on first call.
func (o *Binary) Base64() string {
	o.mux.Lock()
	defer o.mux.Unlock()

	if o.b64 == "" && len(o.data) > 0 {
		o.b64 = Base64Encode(o.data)
	}

	return o.b64
}

// Clone copies the bytes; the cache travels with the copy.
func (o *Binary) Clone() *Binary {
	o.mux.Lock()
	defer o.mux.Unlock()

	return &Binary{
		data: append([]byte(nil), o.data...),
		b64:  o.b64,
	}
}
