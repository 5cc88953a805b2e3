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
	"fmt"
	"strings"

	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "xmlrpc/httpmsg"

const (
	ErrorMalformed liberr.CodeError = iota + liberr.MinAvailable + 80
	ErrorHeaderCRLF
	ErrorRequestTooLarge
	ErrorResponseTooLarge
	ErrorLengthRequired
	ErrorBadRequest
	ErrorMethodNotAllowed
	ErrorUnauthorized
	ErrorUnsupportedMedia
	ErrorExpectationFailed
	ErrorChunked
)

func init() {
	if liberr.ExistInMapMessage(ErrorMalformed) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorMalformed, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorMalformed:
		return "malformed http packet"
	case ErrorHeaderCRLF:
		return "header contains invalid CRLF characters"
	case ErrorRequestTooLarge:
		return "request entity too large"
	case ErrorResponseTooLarge:
		return "response entity too large"
	case ErrorLengthRequired:
		return "content-length required"
	case ErrorBadRequest:
		return "bad request"
	case ErrorMethodNotAllowed:
		return "method not allowed"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorUnsupportedMedia:
		return "unsupported media type"
	case ErrorExpectationFailed:
		return "expectation failed"
	case ErrorChunked:
		return "malformed chunked transfer encoding"
	}

	return liberr.NullMessage
}

// StatusError is one HTTP-level failure carried back to the peer as a
// status line, optionally with extra header fields. It is distinct from
// an XML-RPC fault.
type StatusError struct {
	Code    int
	Phrase  string
	Options map[string]string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, e.Phrase)
}

func NewBadRequest() StatusError {
	return StatusError{Code: 400, Phrase: "Bad request"}
}

func NewUnauthorized() StatusError {
	return StatusError{Code: 401, Phrase: "Unauthorized", Options: map[string]string{
		"www-authenticate": `Basic realm=""`,
	}}
}

func NewMethodNotAllowed() StatusError {
	return StatusError{Code: 405, Phrase: "Method not allowed", Options: map[string]string{
		"allowed": "POST",
	}}
}

func NewLengthRequired() StatusError {
	return StatusError{Code: 411, Phrase: "Content-Length Required"}
}

func NewRequestTooLarge() StatusError {
	return StatusError{Code: 413, Phrase: "Request Entity Too Large"}
}

func NewUnsupportedContentType(wrong string) StatusError {
	return StatusError{Code: 415, Phrase: "Unsupported media type '" + sanitizeContentType(wrong) + "'"}
}

func NewExpectationFailed() StatusError {
	return StatusError{Code: 417, Phrase: "Expectation Failed"}
}

func NewTooManyRequests() StatusError {
	return StatusError{Code: 429, Phrase: "Too Many Requests"}
}

// sanitizeContentType truncates adversarial content types and strips
// non-printable bytes before they reach a status line or a log.
func sanitizeContentType(s string) string {
	const maxLen = 64

	var b strings.Builder

	for i := 0; i < len(s) && b.Len() < maxLen; i++ {
		if s[i] >= 32 && s[i] < 127 {
			b.WriteByte(s[i])
		}
	}

	if len(s) > maxLen {
		b.WriteString("...")
	}

	return b.String()
}

// StatusOf maps a reader or header error onto the HTTP status carried
// back to the peer.
func StatusOf(e liberr.Error) StatusError {
	switch {
	case e == nil:
		return StatusError{Code: 200, Phrase: "OK"}
	case e.IsCode(ErrorRequestTooLarge), e.IsCode(ErrorResponseTooLarge):
		return NewRequestTooLarge()
	case e.IsCode(ErrorLengthRequired):
		return NewLengthRequired()
	case e.IsCode(ErrorMethodNotAllowed):
		return NewMethodNotAllowed()
	case e.IsCode(ErrorUnauthorized):
		return NewUnauthorized()
	case e.IsCode(ErrorUnsupportedMedia):
		return NewUnsupportedContentType("")
	case e.IsCode(ErrorExpectationFailed):
		return NewExpectationFailed()
	}

	return NewBadRequest()
}
