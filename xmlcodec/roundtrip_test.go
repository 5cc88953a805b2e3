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

// roundtrip_test.go validates the canonical encode/decode cycle for
// requests, responses and values.
package xmlcodec_test

import (
	"strings"

	libvlu "github.com/nabbar/xmlrpc/value"
	"github.com/nabbar/xmlrpc/xmlcodec"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Request round trip", func() {
	It("should preserve method name and parameter sequence", func() {
		s := libvlu.Struct()
		s.Insert("a", libvlu.Int(1))
		s.Insert("b", libvlu.String("str"))

		src := xmlcodec.Request{
			MethodName: "echo",
			Params:     libvlu.Params{s, libvlu.Bool(true)},
		}

		out, err := xmlcodec.ParseRequest([]byte(xmlcodec.DumpRequest(src)))
		Expect(err).ToNot(HaveOccurred())
		Expect(out.MethodName).To(Equal("echo"))
		Expect(out.Params).To(HaveLen(2))

		p0 := out.Params[0]
		Expect(p0.IsStruct()).To(BeTrue())
		fa, _ := p0.Field("a")
		Expect(fa.MustInt()).To(Equal(int32(1)))
		fb, _ := p0.Field("b")
		Expect(fb.MustString()).To(Equal("str"))

		Expect(out.Params[1].MustBool()).To(BeTrue())
	})

	It("should canonicalize byte-for-byte on re-encode", func() {
		src := xmlcodec.Request{
			MethodName: "m",
			Params: libvlu.Params{
				libvlu.Int64(1 << 40),
				libvlu.Double(0.5),
				libvlu.Array(libvlu.String("x"), libvlu.Nil()),
			},
		}

		first := xmlcodec.DumpRequest(src)
		back, err := xmlcodec.ParseRequest([]byte(first))
		Expect(err).ToNot(HaveOccurred())
		Expect(xmlcodec.DumpRequest(*back)).To(Equal(first))
	})

	It("should refuse a method name over 256 bytes", func() {
		src := xmlcodec.Request{MethodName: strings.Repeat("a", 257)}
		_, err := xmlcodec.ParseRequest([]byte(xmlcodec.DumpRequest(src)))
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(xmlcodec.ErrorMethodNameLength)).To(BeTrue())
	})

	It("should accept a method name of exactly 256 bytes", func() {
		src := xmlcodec.Request{MethodName: strings.Repeat("a", 256)}
		out, err := xmlcodec.ParseRequest([]byte(xmlcodec.DumpRequest(src)))
		Expect(err).ToNot(HaveOccurred())
		Expect(out.MethodName).To(HaveLen(256))
	})
})

var _ = Describe("Response round trip", func() {
	It("should carry a success value", func() {
		r, err := xmlcodec.ParseResponse([]byte(xmlcodec.DumpResponse(xmlcodec.NewResponse(libvlu.Int(7)))))
		Expect(err).ToNot(HaveOccurred())
		Expect(r.IsFault()).To(BeFalse())

		v, verr := r.Value()
		Expect(verr).ToNot(HaveOccurred())
		Expect(v.MustInt()).To(Equal(int32(7)))
	})

	It("should carry a fault", func() {
		r, err := xmlcodec.ParseResponse([]byte(xmlcodec.DumpResponse(xmlcodec.NewFaultResponse(42, "nope"))))
		Expect(err).ToNot(HaveOccurred())
		Expect(r.IsFault()).To(BeTrue())
		Expect(r.FaultCode()).To(Equal(int32(42)))
		Expect(r.FaultString()).To(Equal("nope"))
	})

	It("should refuse reading the value of a fault", func() {
		r := xmlcodec.NewFaultResponse(1, "boom")
		_, err := r.Value()
		Expect(err).To(HaveOccurred())
		Expect(func() { r.MustValue() }).To(Panic())
	})

	It("should match the reference echo wire image", func() {
		s := libvlu.Struct()
		s.Insert("a", libvlu.Int(1))
		s.Insert("b", libvlu.String("str"))

		body := xmlcodec.DumpResponse(xmlcodec.NewResponse(s))

		strip := func(x string) string {
			x = strings.ReplaceAll(x, "\n", "")
			x = strings.ReplaceAll(x, "\t", "")
			return strings.ReplaceAll(x, " ", "")
		}

		want := "<methodResponse><params><param><value><struct>" +
			"<member><name>a</name><value><i4>1</i4></value></member>" +
			"<member><name>b</name><value><string>str</string></value></member>" +
			"</struct></value></param></params></methodResponse>"

		Expect(strip(body)).To(ContainSubstring(strip(want)))
	})
})

var _ = Describe("Value production", func() {
	parse := func(x string) (libvlu.Value, error) {
		v, e := xmlcodec.ParseValue([]byte(x))
		if e != nil {
			return v, e
		}
		return v, nil
	}

	It("should treat an untyped value as string", func() {
		v, err := parse("<value>plain</value>")
		Expect(err).ToNot(HaveOccurred())
		Expect(v.MustString()).To(Equal("plain"))
	})

	It("should treat an empty value as empty string", func() {
		v, err := parse("<value></value>")
		Expect(err).ToNot(HaveOccurred())
		Expect(v.MustString()).To(Equal(""))
	})

	It("should treat an empty base64 as empty binary", func() {
		v, err := parse("<value><base64></base64></value>")
		Expect(err).ToNot(HaveOccurred())
		Expect(v.IsBinary()).To(BeTrue())
	})

	It("should refuse an empty int without a registered default", func() {
		_, err := parse("<value><int></int></value>")
		Expect(err).To(HaveOccurred())
	})

	It("should accept i4 and int synonyms", func() {
		v, err := parse("<value><int>5</int></value>")
		Expect(err).ToNot(HaveOccurred())
		Expect(v.MustInt()).To(Equal(int32(5)))
	})

	It("should parse nil", func() {
		v, err := parse("<value><nil/></value>")
		Expect(err).ToNot(HaveOccurred())
		Expect(v.IsNil()).To(BeTrue())
	})

	It("should strip one namespace prefix", func() {
		v, err := parse("<ns:value xmlns:ns=\"urn:x\"><ns:int>3</ns:int></ns:value>")
		Expect(err).ToNot(HaveOccurred())
		Expect(v.MustInt()).To(Equal(int32(3)))
	})
})
