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
	"strconv"
	"strings"
	"time"

	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/safenum"
)

// ResponseHeader is the response-side header: status code and phrase plus
// the shared field map.
type ResponseHeader struct {
	Header
	code   int
	phrase string
}

// ParseResponseHeader decodes a response header block received by a
// client.
func ParseResponseHeader(level VerifyLevel, raw string) (*ResponseHeader, liberr.Error) {
	h := &ResponseHeader{Header: newHeader(level)}

	if e := h.parse(raw); e != nil {
		return nil, e
	}

	h.setOptionDefault(hdrServer, "unknown")

	tokens := strings.Fields(h.headLine)
	if len(tokens) < 2 {
		return nil, ErrorMalformed.Error(newMsgErr("bad response"))
	}

	if c, e := safenum.ParseInt32(tokens[1]); e == nil {
		h.code = int(c)
	}

	if len(tokens) > 2 {
		h.phrase = strings.Join(tokens[2:], " ")
	}

	return h, nil
}

// NewResponseHeader builds the header for an outgoing response. Besides
// Date and the configurable Server field it always carries the standard
// security fields: nosniff, DENY framing and no-store caching, plus HSTS
// and CSP when configured.
func NewResponseHeader(code int, phrase string) *ResponseHeader {
	h := &ResponseHeader{
		Header: newHeader(VerifyWeak),
		code:   code,
		phrase: phrase,
	}

	_ = h.SetOption(hdrDate, time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))

	if srv, ok := serverHeaderValue(); ok {
		_ = h.SetOption(hdrServer, srv)
	}

	_ = h.SetOption("x-content-type-options", "nosniff")
	_ = h.SetOption("x-frame-options", "DENY")
	_ = h.SetOption("cache-control", "no-store")

	if cfgHSTSEnable.Load() {
		_ = h.SetOption("strict-transport-security", "max-age="+strconv.Itoa(cfgHSTSMaxAge.Load()))
	}

	if csp := cspValue(); csp != "" {
		_ = h.SetOption("content-security-policy", csp)
	}

	return h
}

// NewStatusHeader builds the response header for an HTTP-level error,
// carrying its extra fields.
func NewStatusHeader(st StatusError) *ResponseHeader {
	h := NewResponseHeader(st.Code, st.Phrase)

	for k, v := range st.Options {
		_ = h.SetOption(k, v)
	}

	return h
}

// Code returns the status code.
func (o *ResponseHeader) Code() int {
	return o.code
}

// Phrase returns the status phrase.
func (o *ResponseHeader) Phrase() string {
	return o.phrase
}

// Server returns the server product field.
func (o *ResponseHeader) Server() string {
	v, _ := o.Option(hdrServer)
	return v
}

// Dump renders the response head. Responses go out as HTTP/1.1.
func (o *ResponseHeader) Dump() string {
	return "HTTP/1.1 " + strconv.Itoa(o.code) + " " + o.phrase + crlf + o.DumpOptions()
}
