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
	"errors"

	liberr "github.com/nabbar/golib/errors"
	"golang.org/x/sys/unix"
)

// pollStates waits for readiness over the snapshot and returns the states
// that became ready, with revents filled from the system answer. Error and
// hang-up conditions are delivered as input readiness so the next read
// observes the failure or EOF.
func pollStates(states []handlerState, timeoutMs int) ([]handlerState, liberr.Error) {
	fds := make([]unix.PollFd, 0, len(states))

	for i := range states {
		var ev int16

		if states[i].mask&Input != 0 {
			ev |= unix.POLLIN
		}
		if states[i].mask&Output != 0 {
			ev |= unix.POLLOUT
		}

		fds = append(fds, unix.PollFd{Fd: int32(states[i].fd), Events: ev})
	}

	for {
		n, err := unix.Poll(fds, timeoutMs)

		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return nil, ErrorPoll.Error(err)
		} else if n == 0 {
			return nil, nil
		}

		break
	}

	var ready []handlerState

	for i := range fds {
		var m EventMask

		if fds[i].Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			m |= Input
		}
		if fds[i].Revents&unix.POLLOUT != 0 {
			m |= Output
		}

		if m != 0 {
			hs := states[i]
			hs.revents = m
			ready = append(ready, hs)
		}
	}

	return ready, nil
}
