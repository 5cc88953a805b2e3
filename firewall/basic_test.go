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

// basic_test.go validates the three independent ceilings of the bundled
// rate-limiting firewall.
package firewall_test

import (
	"github.com/nabbar/xmlrpc/firewall"
	"github.com/nabbar/xmlrpc/inetaddr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func addr(host string) inetaddr.Addr {
	a, err := inetaddr.New(host, 12345)
	Expect(err).ToNot(HaveOccurred())
	return a
}

var _ = Describe("Connection ceilings", func() {
	It("should cap concurrent connections per IP", func() {
		fw := firewall.New(firewall.Config{MaxPerIP: 2})
		p := addr("10.0.0.1")

		Expect(fw.Grant(p)).To(BeTrue())
		Expect(fw.Grant(p)).To(BeTrue())
		Expect(fw.Grant(p)).To(BeFalse())

		fw.Release(p)
		Expect(fw.Grant(p)).To(BeTrue())
	})

	It("should cap total concurrent connections", func() {
		fw := firewall.New(firewall.Config{MaxTotal: 2})

		Expect(fw.Grant(addr("10.0.0.1"))).To(BeTrue())
		Expect(fw.Grant(addr("10.0.0.2"))).To(BeTrue())
		Expect(fw.Grant(addr("10.0.0.3"))).To(BeFalse())
		Expect(fw.TotalConnections()).To(Equal(uint(2)))
	})

	It("should treat zero ceilings as unlimited", func() {
		fw := firewall.New(firewall.Config{})

		for i := 0; i < 100; i++ {
			Expect(fw.Grant(addr("10.0.0.9"))).To(BeTrue())
		}
	})

	It("should track per-IP counts independently", func() {
		fw := firewall.New(firewall.Config{MaxPerIP: 1})

		Expect(fw.Grant(addr("10.0.0.1"))).To(BeTrue())
		Expect(fw.Grant(addr("10.0.0.2"))).To(BeTrue())
		Expect(fw.ConnectionsFrom(addr("10.0.0.1"))).To(Equal(uint(1)))
	})

	It("should tolerate a release without a grant", func() {
		fw := firewall.New(firewall.Config{MaxTotal: 1})
		fw.Release(addr("10.0.0.1"))
		Expect(fw.TotalConnections()).To(Equal(uint(0)))
	})

	It("should expose the configured reject message", func() {
		fw := firewall.New(firewall.Config{RejectMessage: "go away"})
		Expect(fw.Message()).To(Equal("go away"))
	})
})

var _ = Describe("Request rate ceiling", func() {
	It("should admit up to the limit within the window", func() {
		fw := firewall.New(firewall.Config{MaxRequestRate: 3})
		p := addr("10.1.0.1")

		Expect(fw.CheckRequestAllowed(p)).To(BeTrue())
		Expect(fw.CheckRequestAllowed(p)).To(BeTrue())
		Expect(fw.CheckRequestAllowed(p)).To(BeTrue())
		Expect(fw.CheckRequestAllowed(p)).To(BeFalse())
		Expect(fw.RequestRate(p)).To(Equal(uint(3)))
	})

	It("should treat a zero rate as unlimited", func() {
		fw := firewall.New(firewall.Config{})

		for i := 0; i < 500; i++ {
			Expect(fw.CheckRequestAllowed(addr("10.1.0.2"))).To(BeTrue())
		}
	})

	It("should allow raising the limit at runtime", func() {
		fw := firewall.New(firewall.Config{MaxRequestRate: 1})
		p := addr("10.1.0.3")

		Expect(fw.CheckRequestAllowed(p)).To(BeTrue())
		Expect(fw.CheckRequestAllowed(p)).To(BeFalse())

		fw.SetRequestRateLimit(10)
		Expect(fw.CheckRequestAllowed(p)).To(BeTrue())
	})

	It("should drop stale trackers on cleanup", func() {
		fw := firewall.New(firewall.Config{MaxRequestRate: 5})
		Expect(fw.CheckRequestAllowed(addr("10.1.0.4"))).To(BeTrue())

		// the single entry is younger than the window, nothing to drop
		Expect(fw.CleanupStaleEntries()).To(Equal(uint(0)))
	})
})

var _ = Describe("Config validation", func() {
	It("should refuse CR LF in the reject message", func() {
		cfg := firewall.Config{RejectMessage: "bad\r\nmessage"}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should accept a plain config", func() {
		cfg := firewall.Config{MaxPerIP: 1, MaxTotal: 2, MaxRequestRate: 3, RejectMessage: "nope"}
		Expect(cfg.Validate()).ToNot(HaveOccurred())
	})
})
