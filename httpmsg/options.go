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
	"sync"

	libatm "github.com/nabbar/golib/atomic"
	liberr "github.com/nabbar/golib/errors"
)

const (
	product = "nabbar-xmlrpc"
	version = "1.0.0"
)

// Process-wide response-header configuration. Booleans and integers are
// independent atomics for lock-free reads; strings sit behind a mutex.
// The caller contract is: set once at startup, before worker goroutines
// exist.

var (
	cfgMutex        sync.Mutex
	cfgServerHeader string
	cfgCSPPolicy    string

	cfgHideVersion = libatm.NewValue[bool]()
	cfgHSTSEnable  = libatm.NewValue[bool]()
	cfgHSTSMaxAge  = libatm.NewValue[int]()
)

// UserAgent returns the product token sent on outgoing requests.
func UserAgent() string {
	return product + " " + version
}

// SetServerHeader replaces the Server response field. CR/LF is refused
// early so the configuration itself can never inject a header line.
func SetServerHeader(header string) liberr.Error {
	if strings.ContainsAny(header, "\r\n") {
		return ErrorHeaderCRLF.Error(nil)
	}

	cfgMutex.Lock()
	defer cfgMutex.Unlock()

	cfgServerHeader = header
	return nil
}

// HideServerVersion suppresses the Server response field entirely.
func HideServerVersion(hide bool) {
	cfgHideVersion.Store(hide)
}

// EnableHSTS toggles the Strict-Transport-Security response field. Only
// enable for TLS servers.
func EnableHSTS(enable bool, maxAge int) {
	cfgHSTSEnable.Store(enable)
	cfgHSTSMaxAge.Store(maxAge)
}

// SetContentSecurityPolicy sets the CSP response field, empty to disable.
func SetContentSecurityPolicy(policy string) liberr.Error {
	if strings.ContainsAny(policy, "\r\n") {
		return ErrorHeaderCRLF.Error(nil)
	}

	cfgMutex.Lock()
	defer cfgMutex.Unlock()

	cfgCSPPolicy = policy
	return nil
}

func serverHeaderValue() (string, bool) {
	if cfgHideVersion.Load() {
		return "", false
	}

	cfgMutex.Lock()
	h := cfgServerHeader
	cfgMutex.Unlock()

	if h == "" {
		return product + " " + version, true
	}

	return h, true
}

func cspValue() string {
	cfgMutex.Lock()
	defer cfgMutex.Unlock()

	return cfgCSPPolicy
}
