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

// Package inetaddr provides an immutable IPv4 host+port value with lazy,
// serialized DNS resolution.
//
// Hostnames containing CR or LF are rejected at construction so that an
// address can never inject header lines when it later flows into an HTTP
// Host header. Resolution happens at most once per value; copies share the
// resolution cell.
package inetaddr

import (
	"net"
	"strconv"
	"strings"
	"sync"

	liberr "github.com/nabbar/golib/errors"
	"golang.org/x/sys/unix"
)

// DNS lookups are serialized process-wide. Legacy resolver implementations
// share internal state; serializing eliminates the race for the cost of a
// mutex on a path the system resolver caches anyway.
var dnsMutex sync.Mutex

type resolveCell struct {
	once sync.Once
	ip   [4]byte
	err  liberr.Error
}

// Addr is an immutable host + port pair. The zero value is not usable;
// build one with New, NewAny or FromSockaddr. Copies are cheap and share
// the lazy resolution cell.
type Addr struct {
	host string
	port int
	cell *resolveCell
}

// New builds an address from a hostname or dotted quad and a port.
func New(host string, port int) (Addr, liberr.Error) {
	if strings.ContainsAny(host, "\r\n") {
		return Addr{}, ErrorHostInvalid.Error(nil)
	} else if port < 0 || port > 65535 {
		return Addr{}, ErrorPortInvalid.Error(nil)
	}

	return Addr{
		host: host,
		port: port,
		cell: &resolveCell{},
	}, nil
}

// NewAny builds an address bound to 0.0.0.0 on the given port.
func NewAny(port int) (Addr, liberr.Error) {
	if a, e := New("0.0.0.0", port); e != nil {
		return Addr{}, e
	} else {
		a.cell.once.Do(func() {})
		return a, nil
	}
}

// FromSockaddr builds an address from an already-resolved IPv4 sockaddr.
// The resolution cell is pre-populated, no DNS lookup will ever occur.
func FromSockaddr(sa *unix.SockaddrInet4) Addr {
	c := &resolveCell{ip: sa.Addr}
	c.once.Do(func() {})

	return Addr{
		host: net.IP(sa.Addr[:]).String(),
		port: sa.Port,
		cell: c,
	}
}

// Host returns the hostname given at construction.
func (a Addr) Host() string {
	return a.host
}

// Port returns the port given at construction.
func (a Addr) Port() int {
	return a.port
}

// String renders the address as host:port.
func (a Addr) String() string {
	return net.JoinHostPort(a.host, strconv.Itoa(a.port))
}

// IsValid reports whether the address was built by a constructor.
func (a Addr) IsValid() bool {
	return a.cell != nil
}

// Sockaddr resolves the hostname on first use and returns the IPv4
// sockaddr for the platform socket calls. The lookup result, success or
// failure, is cached for the lifetime of the value and every copy of it.
func (a Addr) Sockaddr() (*unix.SockaddrInet4, liberr.Error) {
	if a.cell == nil {
		return nil, ErrorResolve.Error(nil)
	}

	a.cell.once.Do(func() {
		a.cell.ip, a.cell.err = resolveHost(a.host)
	})

	if a.cell.err != nil {
		return nil, a.cell.err
	}

	return &unix.SockaddrInet4{
		Port: a.port,
		Addr: a.cell.ip,
	}, nil
}

func resolveHost(host string) ([4]byte, liberr.Error) {
	var r [4]byte

	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 == nil {
			return r, ErrorResolveLength.Error(nil)
		} else {
			copy(r[:], v4)
			return r, nil
		}
	}

	dnsMutex.Lock()
	addrs, err := net.LookupIP(host)
	dnsMutex.Unlock()

	if err != nil {
		return r, ErrorResolve.Error(err)
	}

	for _, ip := range addrs {
		if v4 := ip.To4(); v4 != nil {
			if len(v4) != net.IPv4len {
				return r, ErrorResolveLength.Error(nil)
			}
			copy(r[:], v4)
			return r, nil
		}
	}

	return r, ErrorResolve.Error(nil)
}
