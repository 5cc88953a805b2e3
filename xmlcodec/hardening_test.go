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

// hardening_test.go validates the DoS caps enforced by the parser
// wrapper.
package xmlcodec_test

import (
	"strings"

	"github.com/nabbar/xmlrpc/xmlcodec"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parser hardening", func() {
	It("should accept nesting at the documented limit", func() {
		// depth 32: value > (array > data > value) * 10 + string
		doc := "<value>" + strings.Repeat("<array><data><value>", 10) +
			"<string>x</string>" +
			strings.Repeat("</value></data></array>", 10) + "</value>"

		_, err := xmlcodec.ParseValue([]byte(doc))
		Expect(err).ToNot(HaveOccurred())
	})

	It("should refuse nesting beyond the limit", func() {
		doc := "<value>" + strings.Repeat("<array><data><value>", 12) +
			"<string>x</string>" +
			strings.Repeat("</value></data></array>", 12) + "</value>"

		_, err := xmlcodec.ParseValue([]byte(doc))
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(xmlcodec.ErrorParseDepth)).To(BeTrue())
	})

	It("should refuse an element flood", func() {
		var b strings.Builder
		b.WriteString("<value><array><data>")
		for i := 0; i < xmlcodec.MaxElementCount; i++ {
			b.WriteString("<value><i4>1</i4></value>")
		}
		b.WriteString("</data></array></value>")

		_, err := xmlcodec.ParseValue([]byte(b.String()))
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(xmlcodec.ErrorParseCount)).To(BeTrue())
	})

	It("should refuse undefined entities", func() {
		_, err := xmlcodec.ParseValue([]byte("<value>&xxe;</value>"))
		Expect(err).To(HaveOccurred())
	})

	It("should refuse malformed xml", func() {
		_, err := xmlcodec.ParseRequest([]byte("<methodCall><methodName>a</methodCall>"))
		Expect(err).To(HaveOccurred())
	})

	It("should refuse an unexpected grammar tag with context", func() {
		_, err := xmlcodec.ParseRequest([]byte("<methodCall><bogus/></methodCall>"))
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(xmlcodec.ErrorViolation)).To(BeTrue())
	})
})
