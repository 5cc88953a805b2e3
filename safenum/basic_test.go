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

// basic_test.go validates checked arithmetic and width-limited parsing.
package safenum_test

import (
	"math"

	"github.com/nabbar/xmlrpc/safenum"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Checked arithmetic", func() {
	Context("Add", func() {
		It("should add values that fit", func() {
			r, err := safenum.Add(40, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(Equal(uint(42)))
		})

		It("should refuse a sum that wraps", func() {
			_, err := safenum.Add(math.MaxUint, 1)
			Expect(err).To(HaveOccurred())
			Expect(err.IsCode(safenum.ErrorOverflowAdd)).To(BeTrue())
		})

		It("should accept the exact maximum", func() {
			r, err := safenum.Add(math.MaxUint-1, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(Equal(uint(math.MaxUint)))
		})
	})

	Context("Mul", func() {
		It("should multiply values that fit", func() {
			r, err := safenum.Mul(6, 7)
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(Equal(uint(42)))
		})

		It("should refuse a product that wraps", func() {
			_, err := safenum.Mul(math.MaxUint/2+1, 2)
			Expect(err).To(HaveOccurred())
			Expect(err.IsCode(safenum.ErrorOverflowMul)).To(BeTrue())
		})

		It("should tolerate a zero factor", func() {
			Expect(safenum.WouldOverflowMul(0, math.MaxUint)).To(BeFalse())
		})
	})

	Context("AddAssign", func() {
		It("should update the target in place", func() {
			v := uint(10)
			r, err := safenum.AddAssign(&v, 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(Equal(uint(15)))
			Expect(v).To(Equal(uint(15)))
		})

		It("should leave the target untouched on overflow", func() {
			v := uint(math.MaxUint)
			_, err := safenum.AddAssign(&v, 1)
			Expect(err).To(HaveOccurred())
			Expect(v).To(Equal(uint(math.MaxUint)))
		})
	})

	Context("Predicates", func() {
		It("should mirror the checked operations", func() {
			Expect(safenum.WouldOverflowAdd(math.MaxUint, 1)).To(BeTrue())
			Expect(safenum.WouldOverflowAdd(0, math.MaxUint)).To(BeFalse())
		})
	})
})

var _ = Describe("Width-limited parsing", func() {
	Context("ParseUint", func() {
		It("should parse a pure decimal", func() {
			r, err := safenum.ParseUint("1024")
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(Equal(uint(1024)))
		})

		It("should refuse signs", func() {
			_, err := safenum.ParseUint("+1")
			Expect(err).To(HaveOccurred())
		})

		It("should refuse empty input", func() {
			_, err := safenum.ParseUint("")
			Expect(err).To(HaveOccurred())
		})

		It("should refuse trailing garbage", func() {
			_, err := safenum.ParseUint("12x")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("ParseInt32", func() {
		It("should parse negative values", func() {
			r, err := safenum.ParseInt32("-42")
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(Equal(int32(-42)))
		})

		It("should refuse a value over 32 bits", func() {
			_, err := safenum.ParseInt32("2147483648")
			Expect(err).To(HaveOccurred())
			Expect(err.IsCode(safenum.ErrorParseRange)).To(BeTrue())
		})
	})

	Context("ParseFloat / FormatFloat", func() {
		It("should round-trip exactly", func() {
			src := 3.141592653589793
			r, err := safenum.ParseFloat(safenum.FormatFloat(src))
			Expect(err).ToNot(HaveOccurred())
			Expect(r).To(Equal(src))
		})
	})
})
