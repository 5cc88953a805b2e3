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

package reactor

import (
	"fmt"
	"sync"

	liberr "github.com/nabbar/golib/errors"
)

type locker interface {
	Lock()
	Unlock()
}

type nullLocker struct{}

func (nullLocker) Lock()   {}
func (nullLocker) Unlock() {}

type realLocker struct {
	m sync.Mutex
}

func (o *realLocker) Lock()   { o.m.Lock() }
func (o *realLocker) Unlock() { o.m.Unlock() }

// handlerState carries the registration mask and the pending faked or
// polled readiness bits for one descriptor.
type handlerState struct {
	fd      int
	mask    EventMask
	revents EventMask
}

type react struct {
	lock locker

	handlers map[int]EventHandler
	states   []handlerState

	numStoppers uint
}

func newReactor(l locker) Reactor {
	return &react{
		lock:     l,
		handlers: make(map[int]EventHandler),
	}
}

func (o *react) findState(fd int) int {
	for i := range o.states {
		if o.states[i].fd == fd {
			return i
		}
	}

	return -1
}

func (o *react) RegisterHandler(h EventHandler, mask EventMask) {
	o.lock.Lock()
	defer o.lock.Unlock()

	fd := h.Fd()

	if _, ok := o.handlers[fd]; !ok {
		if h.IsStopper() {
			o.numStoppers++
		}
		o.states = append(o.states, handlerState{fd: fd, mask: mask})
		o.handlers[fd] = h
	} else if i := o.findState(fd); i >= 0 {
		o.states[i].mask |= mask
	}
}

func (o *react) UnregisterMask(h EventHandler, mask EventMask) {
	o.lock.Lock()
	defer o.lock.Unlock()

	i := o.findState(h.Fd())
	if i < 0 {
		return
	}

	o.states[i].mask &^= mask

	if o.states[i].mask == 0 {
		o.removeLocked(h, i)
	}
}

func (o *react) UnregisterHandler(h EventHandler) {
	o.lock.Lock()
	defer o.lock.Unlock()

	if i := o.findState(h.Fd()); i >= 0 {
		o.removeLocked(h, i)
	}
}

func (o *react) removeLocked(h EventHandler, i int) {
	delete(o.handlers, h.Fd())
	o.states = append(o.states[:i], o.states[i+1:]...)

	if h.IsStopper() && o.numStoppers > 0 {
		o.numStoppers--
	}
}

func (o *react) FakeEvent(h EventHandler, mask EventMask) {
	o.lock.Lock()
	defer o.lock.Unlock()

	if i := o.findState(h.Fd()); i >= 0 {
		o.states[i].revents |= mask
	}
}

func (o *react) findHandler(fd int) EventHandler {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.handlers[fd]
}

// invoke runs one handler for the readiness it got. An error or panic
// from a handler that catches in reactor is logged on the handler itself
// and treated as terminate; otherwise it propagates to the HandleEvents
// caller.
func (o *react) invoke(hs handlerState) liberr.Error {
	h := o.findHandler(hs.fd)
	if h == nil {
		// unregistered by an earlier handler in the same tick
		return nil
	}

	var (
		terminate bool
		err       error
	)

	if h.CatchInReactor() {
		terminate, err = o.invokeCaught(h, hs)
		if err != nil {
			h.LogError(err)
			terminate = true
		}
	} else {
		terminate, err = invokeDirect(h, hs)
		if err != nil {
			// keep the handler's own code visible to the caller
			if le, ok := err.(liberr.Error); ok {
				return le
			}
			return ErrorHandler.Error(err)
		}
	}

	if terminate {
		o.UnregisterHandler(h)
		h.Finish()
	}

	return nil
}

func (o *react) invokeCaught(h EventHandler, hs handlerState) (terminate bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			//nolint #goerr113
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return invokeDirect(h, hs)
}

func invokeDirect(h EventHandler, hs handlerState) (bool, error) {
	if hs.revents&Input != 0 {
		return h.HandleInput()
	} else if hs.revents&Output != 0 {
		return h.HandleOutput()
	}

	return false, nil
}

// handleUserEvents dispatches states with faked readiness bits, clearing
// them before the handlers run.
func (o *react) handleUserEvents() (bool, liberr.Error) {
	var pending []handlerState

	o.lock.Lock()
	for i := range o.states {
		if o.states[i].revents != 0 {
			pending = append(pending, o.states[i])
			o.states[i].revents = 0
		}
	}
	o.lock.Unlock()

	for _, hs := range pending {
		if e := o.invoke(hs); e != nil {
			return true, e
		}
	}

	return len(pending) > 0, nil
}

func (o *react) handleSystemEvents(timeoutMs int) (bool, liberr.Error) {
	o.lock.Lock()
	snapshot := make([]handlerState, len(o.states))
	copy(snapshot, o.states)
	o.lock.Unlock()

	if len(snapshot) == 0 {
		return true, nil
	}

	ready, e := pollStates(snapshot, timeoutMs)
	if e != nil {
		return false, e
	} else if len(ready) == 0 {
		return false, nil
	}

	for _, hs := range ready {
		if err := o.invoke(hs); err != nil {
			return true, err
		}
	}

	return true, nil
}

func (o *react) HandleEvents(timeoutMs int) (bool, liberr.Error) {
	o.lock.Lock()

	if len(o.handlers) == 0 {
		o.lock.Unlock()
		return false, nil
	}

	if uint(len(o.handlers)) <= o.numStoppers {
		o.lock.Unlock()
		return false, ErrorNoHandlers.Error(nil)
	}

	o.lock.Unlock()

	if done, e := o.handleUserEvents(); e != nil {
		return done, e
	} else if done {
		// faked events count as work; still give the system a chance
		// with a zero timeout so readiness is not starved
		r, er := o.handleSystemEvents(0)
		return r || done, er
	}

	return o.handleSystemEvents(timeoutMs)
}
