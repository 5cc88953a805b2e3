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

	liberr "github.com/nabbar/golib/errors"
	libvlu "github.com/nabbar/xmlrpc/value"
)

// RequestHeader is the request-side header: POST-only start line plus the
// request URI.
type RequestHeader struct {
	Header
	uri string
}

// ParseRequestHeader decodes a request header block. Anything but POST is
// refused with a method-not-allowed error.
func ParseRequestHeader(level VerifyLevel, raw string) (*RequestHeader, liberr.Error) {
	h := &RequestHeader{Header: newHeader(level)}

	if e := h.parse(raw); e != nil {
		return nil, e
	}

	h.setOptionDefault(hdrHost, "")
	h.setOptionDefault(hdrUserAgent, "unknown")

	tokens := strings.Fields(h.headLine)

	if len(tokens) == 0 {
		return nil, ErrorBadRequest.Error(nil)
	}

	if tokens[0] != "POST" {
		return nil, ErrorMethodNotAllowed.Error(nil)
	}

	if len(tokens) > 1 {
		h.uri = tokens[1]
	}

	return h, nil
}

// NewRequestHeader builds the header for an outgoing call.
func NewRequestHeader(uri, vhost string, port int) *RequestHeader {
	h := &RequestHeader{
		Header: newHeader(VerifyWeak),
		uri:    uri,
	}

	_ = h.SetOption(hdrHost, vhost+":"+strconv.Itoa(port))
	_ = h.SetOption(hdrUserAgent, UserAgent())

	return h
}

// URI returns the request target.
func (o *RequestHeader) URI() string {
	return o.uri
}

// SetURI replaces the request target, used for proxy absolute-URI
// decoration.
func (o *RequestHeader) SetURI(uri string) {
	o.uri = uri
}

// Dump renders the request head: requests go out as HTTP/1.0, one call
// per round trip.
func (o *RequestHeader) Dump() string {
	return "POST " + o.uri + " HTTP/1.0" + crlf + o.DumpOptions()
}

// Host returns the host field.
func (o *RequestHeader) Host() string {
	v, _ := o.Option(hdrHost)
	return v
}

// Agent returns the user-agent field.
func (o *RequestHeader) Agent() string {
	v, _ := o.Option(hdrUserAgent)
	return v
}

// HasAuthInfo reports whether credentials are attached.
func (o *RequestHeader) HasAuthInfo() bool {
	_, ok := o.Option(hdrAuthorization)
	return ok
}

// AuthInfo decodes HTTP Basic credentials: the user is everything before
// the first colon, the password everything after.
func (o *RequestHeader) AuthInfo() (user, password string, err liberr.Error) {
	raw, ok := o.Option(hdrAuthorization)
	if !ok {
		return "", "", ErrorUnauthorized.Error(nil)
	}

	tokens := strings.Fields(raw)
	if len(tokens) != 2 || !strings.EqualFold(tokens[0], "basic") {
		return "", "", ErrorUnauthorized.Error(nil)
	}

	data, e := libvlu.Base64Decode(tokens[1])
	if e != nil {
		return "", "", ErrorUnauthorized.Error(e)
	}

	s := string(data)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:], nil
	}

	return s, "", nil
}

// SetAuthInfo attaches HTTP Basic credentials.
func (o *RequestHeader) SetAuthInfo(user, password string) {
	_ = o.SetOption(hdrAuthorization, "Basic "+libvlu.Base64Encode([]byte(user+":"+password)))
}
