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

// basic_test.go validates address construction, CRLF rejection and lazy
// resolution over literal addresses.
package inetaddr_test

import (
	"github.com/nabbar/xmlrpc/inetaddr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Address construction", func() {
	It("should build a host and port address", func() {
		a, err := inetaddr.New("127.0.0.1", 8080)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Host()).To(Equal("127.0.0.1"))
		Expect(a.Port()).To(Equal(8080))
		Expect(a.String()).To(Equal("127.0.0.1:8080"))
	})

	It("should refuse a hostname carrying CR LF", func() {
		_, err := inetaddr.New("evil.example\r\nHost: injected", 80)
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(inetaddr.ErrorHostInvalid)).To(BeTrue())
	})

	It("should refuse a bare CR in the hostname", func() {
		_, err := inetaddr.New("evil\rexample", 80)
		Expect(err).To(HaveOccurred())
	})

	It("should refuse an out-of-range port", func() {
		_, err := inetaddr.New("localhost", 70000)
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(inetaddr.ErrorPortInvalid)).To(BeTrue())
	})

	It("should bind the wildcard host on NewAny", func() {
		a, err := inetaddr.NewAny(9090)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Host()).To(Equal("0.0.0.0"))
	})
})

var _ = Describe("Lazy resolution", func() {
	It("should resolve a literal IPv4 without DNS", func() {
		a, err := inetaddr.New("192.0.2.7", 443)
		Expect(err).ToNot(HaveOccurred())

		sa, err := a.Sockaddr()
		Expect(err).ToNot(HaveOccurred())
		Expect(sa.Port).To(Equal(443))
		Expect(sa.Addr).To(Equal([4]byte{192, 0, 2, 7}))
	})

	It("should share the resolution cell across copies", func() {
		a, err := inetaddr.New("127.0.0.1", 80)
		Expect(err).ToNot(HaveOccurred())

		b := a
		sa1, err := a.Sockaddr()
		Expect(err).ToNot(HaveOccurred())
		sa2, err := b.Sockaddr()
		Expect(err).ToNot(HaveOccurred())
		Expect(sa1.Addr).To(Equal(sa2.Addr))
	})

	It("should refuse an IPv6-only literal", func() {
		a, err := inetaddr.New("::1", 80)
		Expect(err).ToNot(HaveOccurred())

		_, err = a.Sockaddr()
		Expect(err).To(HaveOccurred())
	})

	It("should refuse the zero value", func() {
		var a inetaddr.Addr
		Expect(a.IsValid()).To(BeFalse())

		_, err := a.Sockaddr()
		Expect(err).To(HaveOccurred())
	})
})
