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

package tlslink

import (
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "xmlrpc/tlslink"

const (
	ErrorConfig liberr.CodeError = iota + liberr.MinAvailable + 120
	ErrorHandshake
	ErrorNeedRead
	ErrorNeedWrite
	ErrorConnectionClose
	ErrorIO
	ErrorFingerprint
	ErrorHostname
)

func init() {
	if liberr.ExistInMapMessage(ErrorConfig) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorConfig, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorConfig:
		return "invalid tls configuration"
	case ErrorHandshake:
		return "tls handshake failed"
	case ErrorNeedRead:
		return "tls operation needs more inbound data"
	case ErrorNeedWrite:
		return "tls operation needs outbound flush"
	case ErrorConnectionClose:
		return "tls connection closed by peer"
	case ErrorIO:
		return "tls i/o error"
	case ErrorFingerprint:
		return "certificate fingerprint mismatch"
	case ErrorHostname:
		return "certificate hostname mismatch"
	}

	return liberr.NullMessage
}

// Status is the discriminated outcome of the reactive TLS operations.
// WANT_READ and WANT_WRITE occur on every byte boundary of the hot
// read/write loop, so they are a branch on a return code here, never an
// error allocation.
type Status uint8

const (
	StatusOK Status = iota
	StatusWantRead
	StatusWantWrite
	StatusClose
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWantRead:
		return "WANT_READ"
	case StatusWantWrite:
		return "WANT_WRITE"
	case StatusClose:
		return "CLOSE"
	case StatusError:
		return "ERROR"
	}

	return "UNKNOWN"
}
