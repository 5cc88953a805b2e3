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

// basic_test.go validates the tagged union: construction, kind checks,
// deep copies and move semantics.
package value_test

import (
	libvlu "github.com/nabbar/xmlrpc/value"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Value union", func() {
	It("should default to Nil", func() {
		var v libvlu.Value
		Expect(v.Kind()).To(Equal(libvlu.KindNil))
		Expect(v.IsNil()).To(BeTrue())
	})

	It("should carry scalar payloads", func() {
		i, ok := libvlu.Int(42).AsInt()
		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(int32(42)))

		b, ok := libvlu.Bool(true).AsBool()
		Expect(ok).To(BeTrue())
		Expect(b).To(BeTrue())

		d, ok := libvlu.Double(2.5).AsDouble()
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal(2.5))

		s, ok := libvlu.String("str").AsString()
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal("str"))
	})

	It("should report kind mismatch through the ok result", func() {
		_, ok := libvlu.Int(1).AsString()
		Expect(ok).To(BeFalse())
	})

	It("should panic from the Must accessors on mismatch", func() {
		Expect(func() { libvlu.String("x").MustInt() }).To(Panic())
	})

	It("should keep struct keys unique with last write winning", func() {
		s := libvlu.Struct()
		s.Insert("k", libvlu.Int(1))
		s.Insert("k", libvlu.Int(2))

		Expect(s.Len()).To(Equal(1))
		f, _ := s.Field("k")
		Expect(f.MustInt()).To(Equal(int32(2)))
	})

	It("should deep-copy arrays and structs", func() {
		inner := libvlu.Struct()
		inner.Insert("a", libvlu.Int(1))

		arr := libvlu.Array(inner)
		cp := arr.Clone()

		item, _ := cp.Index(0)
		Expect(item.HasField("a")).To(BeTrue())

		orig, _ := arr.Index(0)
		Expect(orig.Len()).To(Equal(1))
	})

	It("should leave the source empty after Move", func() {
		v := libvlu.String("payload")
		m := v.Move()

		Expect(m.MustString()).To(Equal("payload"))
		Expect(v.IsNil()).To(BeTrue())
	})

	It("should clone parameter lists deeply", func() {
		p := libvlu.Params{libvlu.Int(1), libvlu.String("two")}
		c := p.Clone()

		Expect(c).To(HaveLen(2))
		Expect(c[1].MustString()).To(Equal("two"))
	})
})
