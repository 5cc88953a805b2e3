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

// basic_test.go validates registration, ordered resolution, the name
// guard and introspection.
package dispatch_test

import (
	"strings"

	"github.com/nabbar/xmlrpc/dispatch"
	libvlu "github.com/nabbar/xmlrpc/value"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func noop(_ dispatch.Data, _ libvlu.Params) (libvlu.Value, error) {
	return libvlu.Nil(), nil
}

// listDispatcher is a custom dispatcher resolving one fixed name.
type listDispatcher struct {
	name string
}

func (o listDispatcher) CreateMethod(name string) dispatch.Method {
	if name == o.name {
		return dispatch.MethodFunc(noop)
	}
	return nil
}

func (o listDispatcher) MethodList() []string {
	return []string{o.name}
}

var _ = Describe("Manager", func() {
	var m dispatch.Manager

	BeforeEach(func() {
		m = dispatch.NewManager()
	})

	It("should resolve a registered function", func() {
		m.RegisterFunc("foo", noop)

		meth, err := m.CreateMethod("foo")
		Expect(err).ToNot(HaveOccurred())
		Expect(meth).ToNot(BeNil())
	})

	It("should refuse an unknown name", func() {
		_, err := m.CreateMethod("missing")
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(dispatch.ErrorUnknownMethod)).To(BeTrue())
	})

	It("should replace a factory on re-registration", func() {
		hits := 0
		m.RegisterFunc("dup", func(_ dispatch.Data, _ libvlu.Params) (libvlu.Value, error) {
			hits = 1
			return libvlu.Nil(), nil
		})
		m.RegisterFunc("dup", func(_ dispatch.Data, _ libvlu.Params) (libvlu.Value, error) {
			hits = 2
			return libvlu.Nil(), nil
		})

		meth, err := m.CreateMethod("dup")
		Expect(err).ToNot(HaveOccurred())

		_, _ = meth.Execute(dispatch.Data{}, nil)
		Expect(hits).To(Equal(2))
	})

	It("should walk dispatchers in order", func() {
		m.PushDispatcher(listDispatcher{name: "extra"})

		meth, err := m.CreateMethod("extra")
		Expect(err).ToNot(HaveOccurred())
		Expect(meth).ToNot(BeNil())
	})

	It("should refuse an over-long name defensively", func() {
		_, err := m.CreateMethod(strings.Repeat("a", dispatch.MaxMethodNameLen+1))
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(dispatch.ErrorUnknownMethod)).To(BeTrue())
	})

	It("should sanitize adversarial names in the error message", func() {
		_, err := m.CreateMethod("evil\r\nname<script>" + strings.Repeat("z", 300))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).ToNot(ContainSubstring("\r"))
		Expect(err.Error()).ToNot(ContainSubstring("<"))
		Expect(err.Error()).To(ContainSubstring("..."))
	})
})

var _ = Describe("Sanitizer", func() {
	It("should keep dots, underscores and colons", func() {
		Expect(dispatch.SanitizeMethodName("ns:mod.func_1")).To(Equal("ns:mod.func_1"))
	})

	It("should truncate at 128 bytes and append an ellipsis", func() {
		out := dispatch.SanitizeMethodName(strings.Repeat("a", 200))
		Expect(len(out)).To(BeNumerically("<=", 131))
	})
})

var _ = Describe("Introspection", func() {
	It("should enumerate every dispatcher through system.listMethods", func() {
		m := dispatch.NewManager()
		m.RegisterFunc("foo", noop)
		m.RegisterFunc("bar", noop)
		m.EnableIntrospection()

		meth, err := m.CreateMethod("system.listMethods")
		Expect(err).ToNot(HaveOccurred())

		v, merr := meth.Execute(dispatch.Data{}, nil)
		Expect(merr).ToNot(HaveOccurred())
		Expect(v.IsArray()).To(BeTrue())

		var names []string
		for i := 0; i < v.Len(); i++ {
			item, _ := v.Index(i)
			names = append(names, item.MustString())
		}

		Expect(names).To(ConsistOf("foo", "bar", "system.listMethods"))
	})
})
