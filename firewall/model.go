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

package firewall

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/xmlrpc/inetaddr"
)

// RateLimiting is the bundled firewall implementation. Besides the
// Firewall and RequestLimiter contracts it exposes inspection helpers and
// the stale-entry cleanup the host must call periodically: memory of the
// rate tracker grows with the number of unique peers seen.
type RateLimiting interface {
	Firewall
	RequestLimiter

	// SetRequestRateLimit changes the per-IP requests-per-second ceiling.
	SetRequestRateLimit(maxRps uint)

	// ConnectionsFrom returns the live connection count for one IP.
	ConnectionsFrom(peer inetaddr.Addr) uint

	// TotalConnections returns the live connection count across peers.
	TotalConnections() uint

	// RequestRate returns the requests seen from one IP in the last second.
	RequestRate(peer inetaddr.Addr) uint

	// CleanupStaleEntries drops rate trackers with no recent activity and
	// returns how many were removed.
	CleanupStaleEntries() uint
}

const rateWindow = time.Second

// requestTracker keeps the monotonic timestamps of recent requests for one
// IP in arrival order.
type requestTracker struct {
	stamps []time.Time
}

func (t *requestTracker) addRequest() {
	t.stamps = append(t.stamps, time.Now())
}

// countRecent evicts everything older than the window from the head and
// returns the remaining count.
func (t *requestTracker) countRecent(window time.Duration) uint {
	cutoff := time.Now().Add(-window)

	i := 0
	for i < len(t.stamps) && t.stamps[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		t.stamps = t.stamps[i:]
	}

	return uint(len(t.stamps))
}

type limiter struct {
	maxPerIP uint
	maxTotal uint
	maxRps   atomic.Int64
	message  string

	mapMutex   sync.Mutex
	ipCount    map[string]uint
	totalCount atomic.Int64

	rateMutex sync.Mutex
	trackers  map[string]*requestTracker
}

func (o *limiter) Grant(peer inetaddr.Addr) bool {
	// fast path without the lock
	if o.maxTotal > 0 && uint(o.totalCount.Load()) >= o.maxTotal {
		return false
	}

	o.mapMutex.Lock()
	defer o.mapMutex.Unlock()

	// re-check under lock to avoid race
	if o.maxTotal > 0 && uint(o.totalCount.Load()) >= o.maxTotal {
		return false
	}

	ip := peer.Host()

	if o.maxPerIP > 0 && o.ipCount[ip] >= o.maxPerIP {
		return false
	}

	o.ipCount[ip]++

	o.totalCount.Add(1)
	return true
}

func (o *limiter) Release(peer inetaddr.Addr) {
	ip := peer.Host()

	o.mapMutex.Lock()
	defer o.mapMutex.Unlock()

	if c, ok := o.ipCount[ip]; ok {
		if c > 1 {
			o.ipCount[ip] = c - 1
		} else {
			delete(o.ipCount, ip)
		}
	}

	for {
		cur := o.totalCount.Load()
		if cur <= 0 {
			break
		}
		if o.totalCount.CompareAndSwap(cur, cur-1) {
			break
		}
	}
}

func (o *limiter) Message() string {
	return o.message
}

func (o *limiter) SetRequestRateLimit(maxRps uint) {
	o.maxRps.Store(int64(maxRps))
}

func (o *limiter) CheckRequestAllowed(peer inetaddr.Addr) bool {
	limit := uint(o.maxRps.Load())
	if limit == 0 {
		return true
	}

	ip := peer.Host()

	o.rateMutex.Lock()
	defer o.rateMutex.Unlock()

	t, ok := o.trackers[ip]
	if !ok {
		t = &requestTracker{}
		o.trackers[ip] = t
	}

	if t.countRecent(rateWindow) >= limit {
		return false
	}

	t.addRequest()
	return true
}

func (o *limiter) ConnectionsFrom(peer inetaddr.Addr) uint {
	o.mapMutex.Lock()
	defer o.mapMutex.Unlock()

	return o.ipCount[peer.Host()]
}

func (o *limiter) TotalConnections() uint {
	if v := o.totalCount.Load(); v > 0 {
		return uint(v)
	}

	return 0
}

func (o *limiter) RequestRate(peer inetaddr.Addr) uint {
	o.rateMutex.Lock()
	defer o.rateMutex.Unlock()

	if t, ok := o.trackers[peer.Host()]; ok {
		return t.countRecent(rateWindow)
	}

	return 0
}

func (o *limiter) CleanupStaleEntries() uint {
	o.rateMutex.Lock()
	defer o.rateMutex.Unlock()

	var removed uint

	for ip, t := range o.trackers {
		if t.countRecent(rateWindow) == 0 {
			delete(o.trackers, ip)
			removed++
		}
	}

	return removed
}
