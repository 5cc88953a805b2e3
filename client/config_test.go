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

// config_test.go validates the endpoint configuration surface.
package client_test

import (
	"github.com/nabbar/xmlrpc/client"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should accept a minimal endpoint", func() {
		cfg := client.Config{Host: "127.0.0.1", Port: 8080}
		Expect(cfg.Validate()).ToNot(HaveOccurred())
	})

	It("should refuse a missing host", func() {
		cfg := client.Config{Port: 8080}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should refuse an out-of-range port", func() {
		cfg := client.Config{Host: "h", Port: 99999}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should refuse a proxy without a host", func() {
		cfg := client.Config{Host: "h", Port: 1, Proxy: &client.ProxyConfig{Port: 3128}}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should build a client with defaults filled in", func() {
		cfg := client.Config{Host: "127.0.0.1", Port: 8080}

		c, err := cfg.Client(nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(c).ToNot(BeNil())
		c.Close()
	})
})

var _ = Describe("Setters", func() {
	It("should refuse an empty method name at call time", func() {
		a := newLoopAddr()

		c := client.New(a, "/", "", nil)
		defer c.Close()

		_, err := c.Execute("", nil, nil)
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(client.ErrorParamEmpty)).To(BeTrue())
	})

	It("should track the response size cap", func() {
		a := newLoopAddr()

		c := client.New(a, "/", "", nil)
		defer c.Close()

		c.SetMaxResponseSize(4096)
		Expect(c.GetMaxResponseSize()).To(Equal(uint(4096)))
	})
})
