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

// basic_test.go validates the raw endpoint wrapper over loopback and
// socket pairs.
package socket_test

import (
	libptc "github.com/nabbar/golib/network/protocol"
	"github.com/nabbar/xmlrpc/inetaddr"
	libskt "github.com/nabbar/xmlrpc/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Socket pair", func() {
	It("should move bytes both ways", func() {
		a, b, err := libskt.Pair()
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()
		defer b.Close()

		n, serr := a.Send([]byte("ping"))
		Expect(serr).ToNot(HaveOccurred())
		Expect(n).To(Equal(4))

		buf := make([]byte, 16)
		n, rerr := b.Recv(buf)
		Expect(rerr).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("ping"))
	})

	It("should report EAGAIN as no data on a non-blocking endpoint", func() {
		a, b, err := libskt.Pair()
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()
		defer b.Close()

		Expect(a.SetNonBlocking(true)).To(Succeed())

		buf := make([]byte, 4)
		n, rerr := a.Recv(buf)
		Expect(rerr).ToNot(HaveOccurred())
		Expect(n).To(Equal(-1))
	})

	It("should report EOF as a zero read after shutdown", func() {
		a, b, err := libskt.Pair()
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()
		defer b.Close()

		a.Shutdown()

		buf := make([]byte, 4)
		n, rerr := b.Recv(buf)
		Expect(rerr).ToNot(HaveOccurred())
		Expect(n).To(Equal(0))
	})

	It("should deliver a reject message through the abortive close", func() {
		a, b, err := libskt.Pair()
		Expect(err).ToNot(HaveOccurred())
		defer a.Close()
		defer b.Close()

		a.SendShutdown([]byte("denied"))

		buf := make([]byte, 16)
		n, rerr := b.Recv(buf)
		Expect(rerr).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("denied"))
	})
})

var _ = Describe("Protocol selection", func() {
	It("should build a TCP endpoint from the protocol enum", func() {
		s, err := libskt.NewProtocol(libptc.NetworkTCP)
		Expect(err).ToNot(HaveOccurred())
		Expect(s.IsValid()).To(BeTrue())
		s.Close()
	})

	It("should refuse a datagram protocol", func() {
		_, err := libskt.NewProtocol(libptc.NetworkUDP)
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(libskt.ErrorCreate)).To(BeTrue())
	})
})

var _ = Describe("TCP endpoint", func() {
	It("should bind, listen and report the ephemeral port", func() {
		s, err := libskt.New()
		Expect(err).ToNot(HaveOccurred())
		defer s.Close()

		bind, aerr := inetaddr.New("127.0.0.1", 0)
		Expect(aerr).ToNot(HaveOccurred())

		Expect(s.Bind(bind)).To(Succeed())
		Expect(s.Listen(1)).To(Succeed())

		local, lerr := s.LocalAddr()
		Expect(lerr).ToNot(HaveOccurred())
		Expect(local.Port()).To(BeNumerically(">", 0))
	})

	It("should accept a loopback connection", func() {
		srv, err := libskt.New()
		Expect(err).ToNot(HaveOccurred())
		defer srv.Close()

		bind, _ := inetaddr.New("127.0.0.1", 0)
		Expect(srv.Bind(bind)).To(Succeed())
		Expect(srv.Listen(1)).To(Succeed())

		local, _ := srv.LocalAddr()

		cli, cerr := libskt.New()
		Expect(cerr).ToNot(HaveOccurred())
		defer cli.Close()

		_, cerr = cli.Connect(local)
		Expect(cerr).ToNot(HaveOccurred())

		acc, aerr := srv.Accept()
		Expect(aerr).ToNot(HaveOccurred())
		Expect(acc).ToNot(BeNil())
		defer acc.Close()

		Expect(acc.Peer().Host()).To(Equal("127.0.0.1"))
	})
})
