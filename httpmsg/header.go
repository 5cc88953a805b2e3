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

// Package httpmsg implements the HTTP framing layer of the XML-RPC
// runtime: header values, the packet envelope and the incremental packet
// reader that accepts bytes in arbitrary chunks.
//
// Field names are case-insensitive on parse and lowercased on emit.
// Every set validates name and value against CR and LF so adversarial
// content can never splice header lines.
package httpmsg

import (
	"sort"
	"strings"

	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/safenum"
)

// VerifyLevel is the coarse strictness knob of the HTTP reader: Weak
// tolerates unknown content types, Strict requires text/xml.
type VerifyLevel uint8

const (
	VerifyWeak VerifyLevel = iota
	VerifyStrict
)

const (
	hdrContentLength = "content-length"
	hdrContentType   = "content-type"
	hdrConnection    = "connection"
	hdrHost          = "host"
	hdrUserAgent     = "user-agent"
	hdrServer        = "server"
	hdrDate          = "date"
	hdrAuthorization = "authorization"
	hdrExpect        = "expect"
	hdrTransferEnc   = "transfer-encoding"

	crlf = "\r\n"
)

type validatorFn func(value string) liberr.Error

type optionValidator struct {
	level VerifyLevel
	fn    validatorFn
}

// Header is the shared mapping of lowercased field names to values plus
// the start line, with per-level validators fired on admission.
type Header struct {
	headLine   string
	options    map[string]string
	validators map[string][]optionValidator
	level      VerifyLevel
}

func newHeader(level VerifyLevel) Header {
	h := Header{
		options:    make(map[string]string),
		validators: make(map[string][]optionValidator),
		level:      level,
	}

	h.setOptionDefault(hdrConnection, "close")
	h.registerValidator(hdrContentLength, validateUnsignedNumber, VerifyWeak)
	h.registerValidator(hdrExpect, validateExpectContinue, VerifyWeak)
	h.registerValidator(hdrContentType, validateContentType, VerifyStrict)

	return h
}

func validateUnsignedNumber(val string) liberr.Error {
	if _, e := safenum.ParseUint(val); e != nil {
		return ErrorMalformed.Error(e)
	}

	return nil
}

func validateContentType(val string) liberr.Error {
	if !strings.Contains(strings.ToLower(val), "text/xml") {
		return ErrorUnsupportedMedia.Error(newMsgErr(sanitizeContentType(val)))
	}

	return nil
}

func validateExpectContinue(val string) liberr.Error {
	if !strings.HasPrefix(strings.ToLower(val), "100-continue") {
		return ErrorExpectationFailed.Error(nil)
	}

	return nil
}

type msgErr string

func newMsgErr(s string) error { return msgErr(s) }

func (e msgErr) Error() string { return string(e) }

func (o *Header) registerValidator(name string, fn validatorFn, level VerifyLevel) {
	o.validators[name] = append(o.validators[name], optionValidator{level: level, fn: fn})
}

func checkCRLF(name, value string) liberr.Error {
	if strings.ContainsAny(name, "\r\n") || strings.ContainsAny(value, "\r\n") {
		return ErrorHeaderCRLF.Error(nil)
	}

	return nil
}

// HeadLine returns the raw start line seen by parse.
func (o *Header) HeadLine() string {
	return o.headLine
}

// Option returns a field by lowercased name.
func (o *Header) Option(name string) (string, bool) {
	v, ok := o.options[name]
	return v, ok
}

// SetOption stores a field after CR/LF validation. Duplicate set
// replaces.
func (o *Header) SetOption(name, value string) liberr.Error {
	if e := checkCRLF(name, value); e != nil {
		return e
	}

	o.options[name] = value
	return nil
}

func (o *Header) setOptionDefault(name, value string) {
	if _, ok := o.options[name]; !ok {
		o.options[name] = value
	}
}

func (o *Header) setOptionChecked(name, value string) liberr.Error {
	for _, v := range o.validators[name] {
		if v.level <= o.level {
			if e := v.fn(value); e != nil {
				return e
			}
		}
	}

	return o.SetOption(name, value)
}

// parse runs a single scan over the header block: the field name is
// lowercased on the fly, OWS is trimmed from both sides and each name and
// value is validated against CR/LF before admission.
func (o *Header) parse(raw string) liberr.Error {
	isWS := func(c byte) bool { return c == ' ' || c == '\t' }

	pos := 0
	end := len(raw)

	lineEnd := func(p int) int {
		for p < end && raw[p] != '\r' && raw[p] != '\n' {
			p++
		}
		return p
	}

	skipNL := func(p int) int {
		if p < end && raw[p] == '\r' {
			p++
		}
		if p < end && raw[p] == '\n' {
			p++
		}
		return p
	}

	le := lineEnd(pos)
	o.headLine = raw[pos:le]
	pos = skipNL(le)

	for pos < end {
		le = lineEnd(pos)

		if pos == le {
			pos = skipNL(le)
			continue
		}

		colon := pos
		for colon < le && raw[colon] != ':' {
			colon++
		}

		if colon == le {
			return ErrorMalformed.Error(newMsgErr("option line does not contain a colon symbol"))
		}

		ns, ne := pos, colon
		for ns < ne && isWS(raw[ns]) {
			ns++
		}
		for ne > ns && isWS(raw[ne-1]) {
			ne--
		}

		var nb strings.Builder
		nb.Grow(ne - ns)
		for i := ns; i < ne; i++ {
			c := raw[i]
			if c >= 'A' && c <= 'Z' {
				c |= 0x20
			}
			nb.WriteByte(c)
		}

		vs, ve := colon+1, le
		for vs < ve && isWS(raw[vs]) {
			vs++
		}
		for ve > vs && isWS(raw[ve-1]) {
			ve--
		}

		if e := o.setOptionChecked(nb.String(), raw[vs:ve]); e != nil {
			return e
		}

		pos = skipNL(le)
	}

	return nil
}

// DumpOptions renders the fields in sorted order followed by the blank
// terminator line.
func (o *Header) DumpOptions() string {
	var b strings.Builder

	if !safenum.WouldOverflowMul(uint(len(o.options)), 64) {
		b.Grow(len(o.options)*64 + 4)
	}

	names := make([]string, 0, len(o.options))
	for k := range o.options {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(o.options[k])
		b.WriteString(crlf)
	}

	b.WriteString(crlf)
	return b.String()
}

// SetContentLength stores the length and, for non-empty bodies, the
// text/xml content type.
func (o *Header) SetContentLength(n uint) {
	_ = o.SetOption(hdrContentLength, safenum.FormatUint(n))

	if n > 0 {
		_ = o.SetOption(hdrContentType, "text/xml")
	}
}

// ContentLength returns the declared length; a missing field means the
// peer must supply one.
func (o *Header) ContentLength() (uint, liberr.Error) {
	v, ok := o.options[hdrContentLength]
	if !ok {
		return 0, ErrorLengthRequired.Error(nil)
	}

	n, e := safenum.ParseUint(v)
	if e != nil {
		return 0, ErrorMalformed.Error(e)
	}

	return n, nil
}

// SetKeepAlive stores the connection policy.
func (o *Header) SetKeepAlive(keepAlive bool) {
	if keepAlive {
		_ = o.SetOption(hdrConnection, "keep-alive")
	} else {
		_ = o.SetOption(hdrConnection, "close")
	}
}

// KeepAlive reports the connection policy.
func (o *Header) KeepAlive() bool {
	return o.options[hdrConnection] == "keep-alive"
}

// ExpectContinue reports whether the peer asked for an interim response.
func (o *Header) ExpectContinue() bool {
	_, ok := o.options[hdrExpect]
	return ok
}

// IsChunked reports whether the body uses chunked transfer encoding.
func (o *Header) IsChunked() bool {
	return strings.Contains(strings.ToLower(o.options[hdrTransferEnc]), "chunked")
}

// XHeaders extracts the X- passthrough fields.
func (o *Header) XHeaders() XHeaders {
	x := make(XHeaders)

	for k, v := range o.options {
		if ValidXHeaderName(k) {
			x[strings.ToLower(k)] = v
		}
	}

	return x
}

// SetXHeaders stores passthrough fields onto the header.
func (o *Header) SetXHeaders(x XHeaders) liberr.Error {
	for k, v := range x {
		if e := o.SetOption(strings.ToLower(k), v); e != nil {
			return e
		}
	}

	return nil
}
