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

// Package socket provides a thin wrapper over a non-blocking IPv4 TCP
// endpoint addressed by raw file descriptor, as consumed by the reactor.
//
// TCP_NODELAY is enabled by default since the RPC workload exchanges small
// messages where Nagle's algorithm only adds latency. Send and Recv cap the
// transfer length so a length can never be truncated when it crosses the
// system call boundary.
package socket

import (
	"errors"
	"math"

	liberr "github.com/nabbar/golib/errors"
	libptc "github.com/nabbar/golib/network/protocol"
	"github.com/nabbar/xmlrpc/inetaddr"
	"golang.org/x/sys/unix"
)

// MaxIOLen is the largest single transfer accepted by Send and Recv.
const MaxIOLen = math.MaxInt32

// Socket wraps one TCP endpoint. It is owned by exactly one goroutine at a
// time; the reactor hands ownership around but never shares it.
type Socket struct {
	fd   int
	peer inetaddr.Addr
}

// New creates an IPv4 TCP socket with SO_REUSEADDR applied best-effort and
// TCP_NODELAY enabled.
func New() (*Socket, liberr.Error) {
	return NewProtocol(libptc.NetworkTCP4)
}

// NewProtocol creates a stream socket for the given network protocol.
// Only the TCP flavors map onto the IPv4 reactor engine; unix stream
// endpoints serve local plumbing. Other protocols fail with ErrorCreate.
func NewProtocol(proto libptc.NetworkProtocol) (*Socket, liberr.Error) {
	var domain, ipp int

	switch proto {
	case libptc.NetworkTCP, libptc.NetworkTCP4:
		domain, ipp = unix.AF_INET, unix.IPPROTO_TCP
	case libptc.NetworkUnix:
		domain, ipp = unix.AF_UNIX, 0
	default:
		//nolint #goerr113
		return nil, ErrorCreate.Error(errors.New("unsupported network protocol " + proto.Code()))
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, ipp)
	if err != nil {
		return nil, ErrorCreate.Error(err)
	}

	s := &Socket{fd: fd}

	if domain == unix.AF_INET {
		// best effort, failure must not prevent socket creation
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		s.SetNoDelay(true)
	}

	return s, nil
}

// FromFd wraps an already-open descriptor, typically one returned by Accept.
func FromFd(fd int, peer inetaddr.Addr) *Socket {
	return &Socket{fd: fd, peer: peer}
}

// Fd returns the underlying descriptor for reactor registration.
func (o *Socket) Fd() int {
	if o == nil {
		return -1
	}

	return o.fd
}

// Peer returns the remote address of a connected or accepted socket.
func (o *Socket) Peer() inetaddr.Addr {
	return o.peer
}

// IsValid reports whether the socket still owns a descriptor.
func (o *Socket) IsValid() bool {
	return o != nil && o.fd >= 0
}

// SetNonBlocking switches the descriptor in or out of non-blocking mode.
func (o *Socket) SetNonBlocking(flag bool) liberr.Error {
	if !o.IsValid() {
		return ErrorInvalid.Error(nil)
	} else if err := unix.SetNonblock(o.fd, flag); err != nil {
		return ErrorOption.Error(err)
	}

	return nil
}

// SetNoDelay toggles TCP_NODELAY. Failure is ignored: losing the latency
// optimization must not prevent communication.
func (o *Socket) SetNoDelay(enable bool) {
	if !o.IsValid() {
		return
	}

	v := 0
	if enable {
		v = 1
	}

	_ = unix.SetsockoptInt(o.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

// Send writes at most MaxIOLen bytes and returns the number written.
// EAGAIN surfaces as (0, nil) so the reactor can wait for writability.
// EPIPE is a normal transport error here, not a signal.
func (o *Socket) Send(data []byte) (int, liberr.Error) {
	if !o.IsValid() {
		return 0, ErrorInvalid.Error(nil)
	} else if len(data) > MaxIOLen {
		return 0, ErrorLenOverflow.Error(nil)
	}

	n, err := unix.Write(o.fd, data)

	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, nil
		}
		return 0, ErrorSend.Error(err)
	}

	return n, nil
}

// Recv reads at most len(buf) bytes. A zero return with nil error means the
// peer closed its write side. EAGAIN surfaces as (-1, nil) so callers can
// distinguish "no data yet" from EOF.
func (o *Socket) Recv(buf []byte) (int, liberr.Error) {
	if !o.IsValid() {
		return 0, ErrorInvalid.Error(nil)
	} else if len(buf) > MaxIOLen {
		return 0, ErrorLenOverflow.Error(nil)
	}

	n, err := unix.Read(o.fd, buf)

	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return -1, nil
		}
		return 0, ErrorRecv.Error(err)
	}

	return n, nil
}

// SendShutdown performs a best-effort abortive close: the buffer is sent,
// SO_LINGER is set to a zero timeout and the write side is shut down, so a
// rejected peer receives a short reason message without the server waiting
// for FIN-ACK.
func (o *Socket) SendShutdown(data []byte) {
	if !o.IsValid() {
		return
	}

	if len(data) > 0 {
		_, _ = o.Send(data)
	}

	_ = unix.SetsockoptLinger(o.fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0})
	_ = unix.Shutdown(o.fd, unix.SHUT_WR)
}

// Bind attaches the socket to the given local address.
func (o *Socket) Bind(addr inetaddr.Addr) liberr.Error {
	if !o.IsValid() {
		return ErrorInvalid.Error(nil)
	}

	sa, e := addr.Sockaddr()
	if e != nil {
		return e
	}

	if err := unix.Bind(o.fd, sa); err != nil {
		return ErrorBind.Error(err)
	}

	return nil
}

// Listen marks the socket as accepting connections.
func (o *Socket) Listen(backlog int) liberr.Error {
	if !o.IsValid() {
		return ErrorInvalid.Error(nil)
	} else if err := unix.Listen(o.fd, backlog); err != nil {
		return ErrorListen.Error(err)
	}

	return nil
}

// Accept takes one pending connection and returns it with TCP_NODELAY
// already enabled. EAGAIN surfaces as (nil, nil).
func (o *Socket) Accept() (*Socket, liberr.Error) {
	if !o.IsValid() {
		return nil, ErrorInvalid.Error(nil)
	}

	fd, sa, err := unix.Accept(o.fd)

	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return nil, nil
		}
		return nil, ErrorAccept.Error(err)
	}

	var peer inetaddr.Addr
	if sa4, ok := sa.(*unix.SockaddrInet4); ok {
		peer = inetaddr.FromSockaddr(sa4)
	}

	n := FromFd(fd, peer)
	n.SetNoDelay(true)

	return n, nil
}

// Connect starts a connection to the peer. In non-blocking mode
// EINPROGRESS is tolerated and reported as (false, nil): completion must
// be awaited through the reactor's OUTPUT readiness.
func (o *Socket) Connect(peer inetaddr.Addr) (bool, liberr.Error) {
	if !o.IsValid() {
		return false, ErrorInvalid.Error(nil)
	}

	sa, e := peer.Sockaddr()
	if e != nil {
		return false, e
	}

	err := unix.Connect(o.fd, sa)

	if err != nil {
		if errors.Is(err, unix.EINPROGRESS) {
			o.peer = peer
			return false, nil
		}
		return false, ErrorConnect.Error(err)
	}

	o.peer = peer
	return true, nil
}

// LocalAddr returns the address the socket is bound to.
func (o *Socket) LocalAddr() (inetaddr.Addr, liberr.Error) {
	if !o.IsValid() {
		return inetaddr.Addr{}, ErrorInvalid.Error(nil)
	}

	sa, err := unix.Getsockname(o.fd)
	if err != nil {
		return inetaddr.Addr{}, ErrorOption.Error(err)
	}

	if sa4, ok := sa.(*unix.SockaddrInet4); ok {
		return inetaddr.FromSockaddr(sa4), nil
	}

	return inetaddr.Addr{}, ErrorOption.Error(nil)
}

// LastError drains the pending SO_ERROR, used after a non-blocking connect
// completes to learn whether it succeeded.
func (o *Socket) LastError() error {
	if !o.IsValid() {
		return nil
	}

	v, err := unix.GetsockoptInt(o.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	} else if v != 0 {
		return unix.Errno(v)
	}

	return nil
}

// Shutdown closes both directions without releasing the descriptor.
func (o *Socket) Shutdown() {
	if o.IsValid() {
		_ = unix.Shutdown(o.fd, unix.SHUT_RDWR)
	}
}

// Close releases the descriptor.
func (o *Socket) Close() {
	if o.IsValid() {
		_ = unix.Close(o.fd)
		o.fd = -1
	}
}

// Pair returns two connected stream sockets, used by the reactor
// interrupter as a self-pipe.
func Pair() (*Socket, *Socket, liberr.Error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, ErrorCreate.Error(err)
	}

	return &Socket{fd: fds[0]}, &Socket{fd: fds[1]}, nil
}
