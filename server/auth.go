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

package server

import (
	liberr "github.com/nabbar/golib/errors"
	"github.com/nabbar/xmlrpc/httpmsg"
)

// AuthPlugin decides request admission from HTTP Basic credentials.
// Basic transmits credentials in Base64, not encryption: enable TLS
// whenever authentication is on.
//
// Authenticate implementations must compare secrets with
// ConstantTimeCompare, never the == operator.
type AuthPlugin interface {
	// Authenticate returns true when the credentials are accepted.
	Authenticate(user, password string) bool

	// AuthenticateAnonymous decides whether requests without credentials
	// are admitted.
	AuthenticateAnonymous() bool
}

// ConstantTimeCompare is a length-oblivious byte-by-byte comparison: its
// timing is independent of the position of the first mismatch and of
// |b| when |a| is fixed, so response timing leaks nothing about stored
// secrets.
func ConstantTimeCompare(a, b string) bool {
	var result byte
	if len(a) != len(b) {
		result = 1
	}

	for i := 0; i < len(a); i++ {
		var cb byte

		if i < len(b) {
			cb = b[i]
		}

		result |= a[i] ^ cb
	}

	return result == 0
}

// UserMapAuth is a bundled plugin over a fixed user to password mapping.
// Anonymous requests are rejected.
type UserMapAuth struct {
	Users map[string]string
}

func (o UserMapAuth) Authenticate(user, password string) bool {
	stored, ok := o.Users[user]
	if !ok {
		// burn comparable time on unknown users
		return ConstantTimeCompare(password, password) && false
	}

	return ConstantTimeCompare(stored, password)
}

func (o UserMapAuth) AuthenticateAnonymous() bool {
	return false
}

// authenticate resolves the request's credentials against the installed
// plugin. A nil plugin admits everything anonymously.
func authenticate(pkt *httpmsg.Packet, ap AuthPlugin) (string, liberr.Error) {
	if ap == nil {
		return "", nil
	}

	hdr, ok := pkt.RequestHead()
	if !ok {
		return "", httpmsg.ErrorMalformed.Error(nil)
	}

	if !hdr.HasAuthInfo() {
		if !ap.AuthenticateAnonymous() {
			return "", httpmsg.ErrorUnauthorized.Error(nil)
		}
		return "", nil
	}

	user, password, e := hdr.AuthInfo()
	if e != nil {
		return "", e
	}

	if !ap.Authenticate(user, password) {
		return "", httpmsg.ErrorUnauthorized.Error(nil)
	}

	return user, nil
}
