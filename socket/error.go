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

package socket

import (
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "xmlrpc/socket"

const (
	ErrorCreate liberr.CodeError = iota + liberr.MinAvailable + 20
	ErrorInvalid
	ErrorLenOverflow
	ErrorSend
	ErrorRecv
	ErrorBind
	ErrorListen
	ErrorAccept
	ErrorConnect
	ErrorClosedByPeer
	ErrorOption
)

func init() {
	if liberr.ExistInMapMessage(ErrorCreate) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorCreate, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorCreate:
		return "cannot create socket"
	case ErrorInvalid:
		return "socket is not valid"
	case ErrorLenOverflow:
		return "buffer size exceeds the maximum I/O length"
	case ErrorSend:
		return "cannot send data over socket"
	case ErrorRecv:
		return "cannot receive data from socket"
	case ErrorBind:
		return "cannot bind socket address"
	case ErrorListen:
		return "cannot listen on socket"
	case ErrorAccept:
		return "cannot accept incoming connection"
	case ErrorConnect:
		return "cannot connect to peer"
	case ErrorClosedByPeer:
		return "connection closed by peer"
	case ErrorOption:
		return "cannot apply socket option"
	}

	return liberr.NullMessage
}
