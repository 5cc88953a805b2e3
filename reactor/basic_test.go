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

// basic_test.go validates handler registration semantics, faked events,
// stopper accounting and the interrupter.
package reactor_test

import (
	"time"

	libreact "github.com/nabbar/xmlrpc/reactor"
	libskt "github.com/nabbar/xmlrpc/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// pipeHandler is a reactor handler over one side of a socket pair.
type pipeHandler struct {
	sck     *libskt.Socket
	stopper bool
	caught  bool

	inputs   int
	outputs  int
	lastErr  error
	termIn   bool
	finished bool
}

func (o *pipeHandler) Fd() int              { return o.sck.Fd() }
func (o *pipeHandler) IsStopper() bool      { return o.stopper }
func (o *pipeHandler) CatchInReactor() bool { return o.caught }
func (o *pipeHandler) Finish()              { o.finished = true }
func (o *pipeHandler) LogError(err error)   { o.lastErr = err }

func (o *pipeHandler) HandleInput() (bool, error) {
	o.inputs++

	buf := make([]byte, 16)
	_, _ = o.sck.Recv(buf)

	return o.termIn, nil
}

func (o *pipeHandler) HandleOutput() (bool, error) {
	o.outputs++
	return false, nil
}

func newPair() (*libskt.Socket, *libskt.Socket) {
	a, b, err := libskt.Pair()
	Expect(err).ToNot(HaveOccurred())
	Expect(a.SetNonBlocking(true)).To(Succeed())
	Expect(b.SetNonBlocking(true)).To(Succeed())
	return a, b
}

var _ = Describe("HandleEvents", func() {
	It("should return false immediately without handlers", func() {
		r := libreact.NewSerial()

		more, err := r.HandleEvents(100)
		Expect(err).ToNot(HaveOccurred())
		Expect(more).To(BeFalse())
	})

	It("should refuse to block when only stoppers remain", func() {
		r := libreact.NewSerial()
		a, b := newPair()
		defer a.Close()
		defer b.Close()

		h := &pipeHandler{sck: a, stopper: true}
		r.RegisterHandler(h, libreact.Input)

		_, err := r.HandleEvents(10)
		Expect(err).To(HaveOccurred())
		Expect(err.IsCode(libreact.ErrorNoHandlers)).To(BeTrue())
	})

	It("should dispatch readiness to the registered handler", func() {
		r := libreact.NewSerial()
		a, b := newPair()
		defer a.Close()
		defer b.Close()

		h := &pipeHandler{sck: a}
		r.RegisterHandler(h, libreact.Input)

		_, err := b.Send([]byte("x"))
		Expect(err).ToNot(HaveOccurred())

		more, herr := r.HandleEvents(1000)
		Expect(herr).ToNot(HaveOccurred())
		Expect(more).To(BeTrue())
		Expect(h.inputs).To(Equal(1))
	})

	It("should time out when nothing is ready", func() {
		r := libreact.NewSerial()
		a, b := newPair()
		defer a.Close()
		defer b.Close()

		h := &pipeHandler{sck: a}
		r.RegisterHandler(h, libreact.Input)

		start := time.Now()
		more, err := r.HandleEvents(50)
		Expect(err).ToNot(HaveOccurred())
		Expect(more).To(BeFalse())
		Expect(time.Since(start)).To(BeNumerically(">=", 40*time.Millisecond))
	})

	It("should dispatch faked events without a syscall", func() {
		r := libreact.NewSerial()
		a, b := newPair()
		defer a.Close()
		defer b.Close()

		h := &pipeHandler{sck: a}
		r.RegisterHandler(h, libreact.Input)
		r.FakeEvent(h, libreact.Input)

		more, err := r.HandleEvents(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(more).To(BeTrue())
		Expect(h.inputs).To(Equal(1))
	})

	It("should unregister then finish a terminating handler", func() {
		r := libreact.NewSerial()
		a, b := newPair()
		defer a.Close()
		defer b.Close()

		h := &pipeHandler{sck: a, termIn: true}
		r.RegisterHandler(h, libreact.Input)

		_, err := b.Send([]byte("x"))
		Expect(err).ToNot(HaveOccurred())

		_, herr := r.HandleEvents(1000)
		Expect(herr).ToNot(HaveOccurred())
		Expect(h.finished).To(BeTrue())

		more, herr2 := r.HandleEvents(10)
		Expect(herr2).ToNot(HaveOccurred())
		Expect(more).To(BeFalse())
	})
})

var _ = Describe("Interrupter", func() {
	It("should wake a blocked reactor from another goroutine", func() {
		r := libreact.NewThreaded()

		it, err := libreact.NewInterrupter(r)
		Expect(err).ToNot(HaveOccurred())
		defer it.Close()

		a, b := newPair()
		defer a.Close()
		defer b.Close()

		h := &pipeHandler{sck: a}
		r.RegisterHandler(h, libreact.Input)

		go func() {
			time.Sleep(20 * time.Millisecond)
			it.Interrupt()
		}()

		start := time.Now()
		more, herr := r.HandleEvents(5000)
		Expect(herr).ToNot(HaveOccurred())
		Expect(more).To(BeTrue())
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})
})
