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
	"crypto/tls"
	"errors"
	"io"
	"math"
	"net"
	"os"
	"strconv"

	liberr "github.com/nabbar/golib/errors"
)

// Link is the blocking TLS path used by synchronous clients: handshake,
// shutdown, send and receive with typed errors, partial writes retried
// internally by the engine.
type Link struct {
	conn *tls.Conn
	raw  net.Conn
}

// NewClientLink wraps a raw connected descriptor in blocking mode.
func NewClientLink(fd int, cfg *tls.Config) (*Link, liberr.Error) {
	f := os.NewFile(uintptr(fd), "tlslink-"+strconv.Itoa(fd))
	if f == nil {
		return nil, ErrorConfig.Error(nil)
	}

	raw, err := net.FileConn(f)
	// FileConn duplicated the descriptor, release the intermediate file
	_ = f.Close()

	if err != nil {
		return nil, ErrorConfig.Error(err)
	}

	return &Link{
		conn: tls.Client(raw, cfg),
		raw:  raw,
	}, nil
}

// Handshake completes the TLS exchange or fails with a typed error.
func (o *Link) Handshake() liberr.Error {
	if err := o.conn.Handshake(); err != nil {
		return ErrorHandshake.Error(err)
	}

	return nil
}

// Send writes the whole buffer, the engine retrying partial writes.
func (o *Link) Send(b []byte) (int, liberr.Error) {
	if len(b) > math.MaxInt32 {
		return 0, ErrorIO.Error(nil)
	}

	n, err := o.conn.Write(b)
	if err != nil {
		return n, ErrorIO.Error(err)
	}

	return n, nil
}

// Recv reads at most len(b) bytes of application data.
func (o *Link) Recv(b []byte) (int, liberr.Error) {
	if len(b) > math.MaxInt32 {
		return 0, ErrorIO.Error(nil)
	}

	n, err := o.conn.Read(b)

	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, ErrorConnectionClose.Error(nil)
		}
		return n, ErrorIO.Error(err)
	}

	return n, nil
}

// Shutdown sends close-notify.
func (o *Link) Shutdown() liberr.Error {
	if err := o.conn.CloseWrite(); err != nil {
		return ErrorIO.Error(err)
	}

	return nil
}

// Close releases both the engine and the duplicated descriptor.
func (o *Link) Close() {
	_ = o.conn.Close()
	_ = o.raw.Close()
}
