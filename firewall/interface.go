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

// Package firewall decides at accept time whether a peer may connect and at
// request time whether it may issue another call.
//
// The bundled rate-limiting implementation enforces three independent
// ceilings: total concurrent connections, per-IP concurrent connections and
// per-IP requests per second. A zero ceiling means unlimited.
package firewall

import (
	"github.com/nabbar/xmlrpc/inetaddr"
)

// Firewall is the polymorphic admission predicate consulted by the
// acceptor. Release must be called once per granted connection when it
// closes, so concurrent-connection tracking stays correct.
type Firewall interface {
	// Grant decides at accept time whether the peer may connect.
	Grant(peer inetaddr.Addr) bool

	// Release undoes the accounting of a previously granted connection.
	Release(peer inetaddr.Addr)

	// Message returns the short reason sent to rejected peers.
	// Empty means silent close.
	Message() string
}

// RequestLimiter is implemented by firewalls that also meter request rate.
// The server consults it once per parsed request.
type RequestLimiter interface {
	// CheckRequestAllowed records one request for the peer and reports
	// whether it stays under the configured rate ceiling.
	CheckRequestAllowed(peer inetaddr.Addr) bool
}

// New builds the bundled rate-limiting firewall from its configuration.
func New(cfg Config) RateLimiting {
	r := &limiter{
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
		message:  cfg.RejectMessage,
		ipCount:  make(map[string]uint),
		trackers: make(map[string]*requestTracker),
	}

	r.maxRps.Store(int64(cfg.MaxRequestRate))

	return r
}
