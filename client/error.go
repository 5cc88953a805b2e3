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

package client

import (
	"errors"
	"fmt"

	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/httpmsg"
)

const pkgName = "xmlrpc/client"

const (
	ErrorParamEmpty liberr.CodeError = iota + liberr.MinAvailable + 160
	ErrorConnect
	ErrorTimeout
	ErrorClosedByPeer
	ErrorResponseStatus
	ErrorResponseTooLarge
	ErrorProxyTunnel
)

func init() {
	if liberr.ExistInMapMessage(ErrorParamEmpty) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorParamEmpty:
		return "given parameters is empty"
	case ErrorConnect:
		return "cannot connect to server"
	case ErrorTimeout:
		return "client call timed out"
	case ErrorClosedByPeer:
		return "connection closed by peer"
	case ErrorResponseStatus:
		return "server answered a non-200 status"
	case ErrorResponseTooLarge:
		return "response exceeds the configured maximum size"
	case ErrorProxyTunnel:
		return "proxy refused the tunnel"
	}

	return liberr.NullMessage
}

// ResponseStatusOf extracts the HTTP status carried by an
// ErrorResponseStatus failure, so callers can branch on 413 versus 401
// without string matching.
func ResponseStatusOf(e error) (httpmsg.StatusError, bool) {
	var st httpmsg.StatusError

	if errors.As(e, &st) {
		return st, true
	}

	if le, ok := e.(liberr.Error); ok {
		for _, p := range le.GetParent(false) {
			if errors.As(p, &st) {
				return st, true
			}
		}
	}

	return httpmsg.StatusError{}, false
}
