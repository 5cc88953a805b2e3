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

// base64_test.go validates the wire base64 contract including the
// padding terminator rules.
package value_test

import (
	libvlu "github.com/nabbar/xmlrpc/value"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Base64 codec", func() {
	Context("decode", func() {
		It("should decode TWE= to Ma", func() {
			d, err := libvlu.Base64Decode("TWE=")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(d)).To(Equal("Ma"))
		})

		It("should decode TQ== to M", func() {
			d, err := libvlu.Base64Decode("TQ==")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(d)).To(Equal("M"))
		})

		It("should decode TWFu to Man", func() {
			d, err := libvlu.Base64Decode("TWFu")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(d)).To(Equal("Man"))
		})

		It("should refuse an incomplete group without padding", func() {
			_, err := libvlu.Base64Decode("TWF")
			Expect(err).To(HaveOccurred())
			Expect(err.IsCode(libvlu.ErrorMalformedBase64)).To(BeTrue())
		})

		It("should skip embedded whitespace", func() {
			d, err := libvlu.Base64Decode("TW\r\nFu")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(d)).To(Equal("Man"))
		})

		It("should refuse characters outside the alphabet", func() {
			_, err := libvlu.Base64Decode("TW!u")
			Expect(err).To(HaveOccurred())
		})

		It("should stop at padding and ignore the remainder", func() {
			d, err := libvlu.Base64Decode("TQ==garbage")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(d)).To(Equal("M"))
		})
	})

	Context("encode", func() {
		It("should pad to a four character boundary", func() {
			Expect(libvlu.Base64Encode([]byte("M"))).To(Equal("TQ=="))
			Expect(libvlu.Base64Encode([]byte("Ma"))).To(Equal("TWE="))
			Expect(libvlu.Base64Encode([]byte("Man"))).To(Equal("TWFu"))
		})

		It("should round-trip arbitrary bytes", func() {
			src := []byte{0x00, 0xff, 0x10, 0x80, 0x7f}
			d, err := libvlu.Base64Decode(libvlu.Base64Encode(src))
			Expect(err).ToNot(HaveOccurred())
			Expect(d).To(Equal(src))
		})
	})

	Context("Binary lazy cache", func() {
		It("should encode on first read only", func() {
			b := libvlu.BinaryFromData([]byte("Man"))
			Expect(b.Base64()).To(Equal("TWFu"))
			Expect(b.Base64()).To(Equal("TWFu"))
		})

		It("should reject malformed text at construction", func() {
			_, err := libvlu.BinaryFromBase64("T")
			Expect(err).To(HaveOccurred())
		})
	})
})
