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

// Head is the envelope-side view of a header shared by requests and
// responses.
type Head interface {
	Dump() string
	SetContentLength(n uint)
	SetKeepAlive(keepAlive bool)
	KeepAlive() bool
	ExpectContinue() bool
	Option(name string) (string, bool)
}

// Packet is the HTTP envelope carrying one XML-RPC message: header plus
// body. Construction keeps the declared content-length equal to the body
// length.
type Packet struct {
	head Head
	body []byte
}

// NewPacket binds a header and body.
func NewPacket(h Head, body []byte) *Packet {
	h.SetContentLength(uint(len(body)))

	return &Packet{head: h, body: body}
}

// NewStatusPacket renders an HTTP-level error as an empty-body response
// packet.
func NewStatusPacket(st StatusError) *Packet {
	return NewPacket(NewStatusHeader(st), nil)
}

// Head returns the envelope header.
func (o *Packet) Head() Head {
	return o.head
}

// RequestHead returns the header as a request header when the packet was
// read in request mode.
func (o *Packet) RequestHead() (*RequestHeader, bool) {
	h, ok := o.head.(*RequestHeader)
	return h, ok
}

// ResponseHead returns the header as a response header when the packet
// was read in response mode.
func (o *Packet) ResponseHead() (*ResponseHeader, bool) {
	h, ok := o.head.(*ResponseHeader)
	return h, ok
}

// Body returns the payload bytes.
func (o *Packet) Body() []byte {
	return o.body
}

// SetKeepAlive stamps the connection policy onto the header.
func (o *Packet) SetKeepAlive(keepAlive bool) {
	o.head.SetKeepAlive(keepAlive)
}

// Dump renders the full wire image.
func (o *Packet) Dump() []byte {
	h := o.head.Dump()

	r := make([]byte, 0, len(h)+len(o.body))
	r = append(r, h...)
	r = append(r, o.body...)

	return r
}
