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

// datetime_test.go validates the 17-character positional datetime form.
package value_test

import (
	libvlu "github.com/nabbar/xmlrpc/value"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DateTime", func() {
	It("should parse the canonical form", func() {
		d, err := libvlu.ParseDateTime("20231105T12:30:45")
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Year).To(Equal(2023))
		Expect(d.Month).To(Equal(11))
		Expect(d.Day).To(Equal(5))
		Expect(d.Hour).To(Equal(12))
		Expect(d.Minute).To(Equal(30))
		Expect(d.Second).To(Equal(45))
	})

	It("should admit a leap second", func() {
		_, err := libvlu.ParseDateTime("20151231T23:59:60")
		Expect(err).ToNot(HaveOccurred())
	})

	It("should refuse month thirteen", func() {
		_, err := libvlu.ParseDateTime("20231325T12:30:45")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(libvlu.ErrorMalformedDatetime)).To(BeTrue())
	})

	It("should refuse a wrong separator", func() {
		_, err := libvlu.ParseDateTime("20231105 12:30:45")
		Expect(err).To(HaveOccurred())
	})

	It("should refuse a short string", func() {
		_, err := libvlu.ParseDateTime("20231105T12:30:4")
		Expect(err).To(HaveOccurred())
	})

	It("should refuse letters in digit positions", func() {
		_, err := libvlu.ParseDateTime("2023110xT12:30:45")
		Expect(err).To(HaveOccurred())
	})

	It("should render back the exact source", func() {
		d, err := libvlu.ParseDateTime("20151231T23:59:60")
		Expect(err).ToNot(HaveOccurred())
		Expect(d.String()).To(Equal("20151231T23:59:60"))
	})
})
