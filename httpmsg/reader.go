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
	"bytes"
	"strconv"
	"strings"

	liberr "github.com/nabbar/golib/errors"
	libsiz "github.com/nabbar/golib/size"
	"github.com/nabbar/xmlrpc/safenum"
)

// DefaultHeaderMaxSize caps the header portion of one packet.
const DefaultHeaderMaxSize = uint(16 * libsiz.SizeKilo)

// Mode selects the envelope flavor a Reader decodes and which too-large
// error it reports.
type Mode uint8

const (
	ModeRequest Mode = iota
	ModeResponse
)

// Reader accumulates feeds of arbitrary byte chunks until one complete
// packet is available. It is single-owner and single-threaded; errors
// surface synchronously on the feed that caused them and are never
// buffered for later.
//
// Size caps are separate and cumulative: the header cap fails the packet
// as soon as the header portion alone exceeds it, even before the
// terminator is seen; the total cap covers cumulative bytes seen plus the
// declared content-length, combined through safe math so a hostile
// declaration can never wrap past the limit.
type Reader struct {
	mode  Mode
	level VerifyLevel

	headerCache  []byte
	contentCache []byte
	decoded      []byte
	head         Head

	constructed  bool
	chunked      bool
	chunkDone    bool
	continueSent bool

	totalSeen uint
	headerMax uint
	totalMax  uint
}

// NewReader builds a reader for one connection. The total cap default is
// zero, unlimited, which fits the client side; the server re-applies its
// configured cap before every feed.
func NewReader(mode Mode) *Reader {
	return &Reader{
		mode:      mode,
		headerMax: DefaultHeaderMaxSize,
	}
}

// SetVerifyLevel switches the strictness for subsequently parsed headers.
func (o *Reader) SetVerifyLevel(level VerifyLevel) {
	o.level = level
}

// SetMaxSize re-applies the total size cap; zero means unlimited. Called
// before each feed on the server path so the cap is live.
func (o *Reader) SetMaxSize(max uint) {
	o.totalMax = max
}

// SetHeaderMaxSize replaces the header portion cap.
func (o *Reader) SetHeaderMaxSize(max uint) {
	o.headerMax = max
}

// ExpectContinue reports whether the parsed request asked for an interim
// 100 response not yet sent.
func (o *Reader) ExpectContinue() bool {
	return o.head != nil && o.head.ExpectContinue() && !o.continueSent
}

// SetContinueSent inhibits further interim responses for this reader.
func (o *Reader) SetContinueSent() {
	o.continueSent = true
}

// Reset clears all per-packet state including the 100-continue flag, so a
// keep-alive connection starts the next request from scratch.
func (o *Reader) Reset() {
	o.clear()
	o.continueSent = false
}

func (o *Reader) clear() {
	o.head = nil
	o.headerCache = nil
	o.contentCache = nil
	o.decoded = nil
	o.constructed = false
	o.chunked = false
	o.chunkDone = false
	o.totalSeen = 0
}

func (o *Reader) tooLarge() liberr.Error {
	if o.mode == ModeResponse {
		return ErrorResponseTooLarge.Error(nil)
	}

	return ErrorRequestTooLarge.Error(nil)
}

// checkSz enforces the cumulative total cap before a feed is admitted.
func (o *Reader) checkSz(sz uint) liberr.Error {
	if o.totalMax == 0 {
		return nil
	}

	if o.head != nil && !o.chunked {
		cl, e := o.contentLength()
		if e != nil {
			if !e.IsCode(ErrorLengthRequired) {
				return e
			}
			// a missing declaration weighs nothing here; completion
			// still demands one
			cl = 0
		}

		if safenum.WouldOverflowAdd(cl, uint(len(o.headerCache))) {
			return o.tooLarge()
		} else if cl+uint(len(o.headerCache)) >= o.totalMax {
			return o.tooLarge()
		}
	}

	if safenum.WouldOverflowAdd(o.totalSeen, sz) {
		return o.tooLarge()
	}

	o.totalSeen += sz

	if o.totalSeen >= o.totalMax {
		return o.tooLarge()
	}

	return nil
}

func (o *Reader) contentLength() (uint, liberr.Error) {
	switch h := o.head.(type) {
	case *RequestHeader:
		return h.ContentLength()
	case *ResponseHeader:
		return h.ContentLength()
	}

	return 0, ErrorMalformed.Error(nil)
}

// readHeader accumulates until the header terminator is found, accepting
// in order CRLF CRLF, CRLF LF and LF LF for robustness against
// non-compliant peers. Bytes past the terminator move to the content
// cache.
func (o *Reader) readHeader(feed []byte) (bool, liberr.Error) {
	o.headerCache = append(o.headerCache, feed...)

	sep := bytes.Index(o.headerCache, []byte("\r\n\r\n"))
	sepLen := 4

	if sep < 0 {
		sep = bytes.Index(o.headerCache, []byte("\r\n\n"))
		sepLen = 3
	}

	if sep < 0 {
		sep = bytes.Index(o.headerCache, []byte("\n\n"))
		sepLen = 2
	}

	if o.headerMax > 0 {
		if sep < 0 {
			if uint(len(o.headerCache)) > o.headerMax {
				return false, o.tooLarge()
			}
		} else if uint(sep) > o.headerMax {
			return false, o.tooLarge()
		}
	}

	if sep < 0 {
		return false, nil
	}

	o.contentCache = append(o.contentCache, o.headerCache[sep+sepLen:]...)
	o.headerCache = o.headerCache[:sep]

	return true, nil
}

func (o *Reader) parseHead() liberr.Error {
	raw := string(o.headerCache)

	if o.mode == ModeRequest {
		h, e := ParseRequestHeader(o.level, raw)
		if e != nil {
			return e
		}
		o.head = h
		o.chunked = h.IsChunked()
	} else {
		h, e := ParseResponseHeader(o.level, raw)
		if e != nil {
			return e
		}
		o.head = h
		o.chunked = h.IsChunked()
	}

	return nil
}

// ReadRequest feeds bytes on the server path.
func (o *Reader) ReadRequest(feed []byte) (*Packet, liberr.Error) {
	return o.readPacket(feed, false)
}

// ReadResponse feeds bytes on the client path. With hdrOnly the packet
// completes as soon as the header is parsed, used to validate a CONNECT
// tunnel response before any body handling.
func (o *Reader) ReadResponse(feed []byte, hdrOnly bool) (*Packet, liberr.Error) {
	return o.readPacket(feed, hdrOnly)
}

func (o *Reader) readPacket(feed []byte, hdrOnly bool) (*Packet, liberr.Error) {
	if o.constructed {
		o.clear()
	}

	if e := o.checkSz(uint(len(feed))); e != nil {
		return nil, e
	}

	if o.head == nil {
		if len(feed) == 0 {
			return nil, ErrorMalformed.Error(nil)
		}

		if done, e := o.readHeader(feed); e != nil {
			return nil, e
		} else if done {
			if e = o.parseHead(); e != nil {
				return nil, e
			}

			// the declared content-length counts against the cap as soon
			// as the header is known, so a hostile declaration fails on
			// the feed that carried it
			if e = o.checkSz(0); e != nil {
				return nil, e
			}
		}
	} else {
		o.contentCache = append(o.contentCache, feed...)
	}

	if o.head == nil {
		return nil, nil
	}

	if hdrOnly {
		o.constructed = true
		return &Packet{head: o.head}, nil
	}

	if o.chunked {
		return o.completeChunked()
	}

	cl, e := o.contentLength()
	if e != nil {
		return nil, e
	}

	ready := (cl == 0 && len(feed) == 0) || uint(len(o.contentCache)) >= cl

	if !ready {
		return nil, nil
	}

	// excess bytes in the current feed beyond the declared length are
	// dropped: pipelined requests inside one HTTP/1.0 packet are not
	// supported
	if uint(len(o.contentCache)) > cl {
		o.contentCache = o.contentCache[:cl]
	}

	o.constructed = true
	return &Packet{head: o.head, body: o.contentCache}, nil
}

// completeChunked drains full chunks from the content cache into the
// decoded body and completes on the terminal zero chunk. The decoded byte
// sequence is presented as a single plain body.
func (o *Reader) completeChunked() (*Packet, liberr.Error) {
	for !o.chunkDone {
		nl := bytes.Index(o.contentCache, []byte("\n"))
		if nl < 0 {
			return nil, nil
		}

		line := strings.TrimRight(string(o.contentCache[:nl]), "\r")

		// drop any chunk extension
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}

		sz, err := strconv.ParseUint(strings.TrimSpace(line), 16, 32)
		if err != nil {
			return nil, ErrorChunked.Error(err)
		}

		need := nl + 1 + int(sz) + 2
		if len(o.contentCache) < need {
			return nil, nil
		}

		if sz == 0 {
			o.chunkDone = true
			break
		}

		if safenum.WouldOverflowAdd(uint(len(o.decoded)), uint(sz)) {
			return nil, o.tooLarge()
		}

		o.decoded = append(o.decoded, o.contentCache[nl+1:nl+1+int(sz)]...)
		o.contentCache = o.contentCache[need:]

		if o.totalMax > 0 && uint(len(o.decoded)) >= o.totalMax {
			return nil, o.tooLarge()
		}
	}

	o.constructed = true
	return &Packet{head: o.head, body: o.decoded}, nil
}
