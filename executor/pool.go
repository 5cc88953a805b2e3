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

package executor

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	liblog "github.com/nabbar/golib/logger"
	"github.com/nabbar/xmlrpc/dispatch"
	libreact "github.com/nabbar/xmlrpc/reactor"
	libvlu "github.com/nabbar/xmlrpc/value"
	"golang.org/x/sync/errgroup"
)

// queueCapacity bounds the pending work queue. Saturation is handled by
// yielding and retrying; with this sizing it is rare.
const queueCapacity = 1024

// defaultDrainWarn is how often Drain logs while work is still in
// flight. Typical requests complete well under a second.
const defaultDrainWarn = 30 * time.Second

// NewPool builds the worker-pool execution policy with the given number
// of workers.
func NewPool(workers uint, log liblog.FuncLog) Factory {
	p := &poolFactory{
		queue: make(chan *poolExecutor, queueCapacity),
		log:   log,
		warn:  defaultDrainWarn,
		grp:   new(errgroup.Group),
	}

	p.cond = sync.NewCond(&p.condMux)

	if workers == 0 {
		workers = 1
	}

	p.addWorkers(workers)

	return p
}

type poolFactory struct {
	queue chan *poolExecutor
	log   liblog.FuncLog
	warn  time.Duration

	condMux sync.Mutex
	cond    *sync.Cond

	pending     atomic.Int64
	outstanding atomic.Int64
	shutdown    atomic.Bool

	// grp joins the worker goroutines on Close
	grp *errgroup.Group
}

func (o *poolFactory) addWorkers(n uint) {
	for i := uint(0); i < n; i++ {
		o.grp.Go(func() error {
			o.workerLoop()
			return nil
		})
	}
}

// workerLoop pops work when available and parks on the condition
// variable otherwise. The predicate re-checks on spurious wakeups and
// prevents lost wakeups between the check and the wait.
func (o *poolFactory) workerLoop() {
	for {
		select {
		case ex := <-o.queue:
			o.pending.Add(-1)
			ex.run()

		default:
			if o.shutdown.Load() {
				return
			}

			o.condMux.Lock()
			for o.pending.Load() == 0 && !o.shutdown.Load() {
				o.cond.Wait()
			}
			o.condMux.Unlock()

			if o.shutdown.Load() {
				return
			}
		}
	}
}

// register enqueues one executor. A full queue yields and retries; the
// pending count and a single wakeup follow the successful enqueue.
func (o *poolFactory) register(ex *poolExecutor) {
	for {
		select {
		case o.queue <- ex:
		default:
			runtime.Gosched()
			continue
		}
		break
	}

	o.pending.Add(1)

	o.condMux.Lock()
	o.cond.Signal()
	o.condMux.Unlock()
}

func (o *poolFactory) Create(m dispatch.Method, ctx dispatch.Data, r Responder) Executor {
	o.outstanding.Add(1)

	return &poolExecutor{
		pool: o,
		meth: m,
		ctx:  ctx,
		resp: r,
	}
}

func (o *poolFactory) CreateReactor() libreact.Reactor {
	return libreact.NewThreaded()
}

// Drain waits for the outstanding count to reach zero, logging a warning
// every interval so an operator sees what shutdown is stuck on.
func (o *poolFactory) Drain() {
	last := time.Now()

	for o.outstanding.Load() > 0 {
		if time.Since(last) >= o.warn {
			logWarning(o.log, "executor pool drain: %d executors still in flight", o.outstanding.Load())
			last = time.Now()
		}

		time.Sleep(time.Millisecond)
	}
}

// Close sets the shutdown flag, broadcasts every parked worker awake,
// joins them, then destroys whatever executors were orphaned in the
// queue.
func (o *poolFactory) Close() {
	o.shutdown.Store(true)

	o.condMux.Lock()
	o.cond.Broadcast()
	o.condMux.Unlock()

	_ = o.grp.Wait()

	for {
		select {
		case ex := <-o.queue:
			o.pending.Add(-1)
			ex.discard()
		default:
			return
		}
	}
}

type poolExecutor struct {
	pool   *poolFactory
	meth   dispatch.Method
	ctx    dispatch.Data
	resp   Responder
	params libvlu.Params
}

// Execute captures the parameters and hands the executor to the pool;
// the reactor goroutine is free to process more requests immediately.
func (o *poolExecutor) Execute(params libvlu.Params) {
	o.params = params
	o.pool.register(o)
}

func (o *poolExecutor) run() {
	defer o.finish()

	o.resp.ScheduleResponse(runMethod(o.meth, o.ctx, o.params))
}

func (o *poolExecutor) discard() {
	o.finish()
}

// finish retires the executor and wakes the server's reactor so the
// scheduled response gets flushed promptly.
func (o *poolExecutor) finish() {
	o.pool.outstanding.Add(-1)

	if o.ctx.Interrupt != nil {
		o.ctx.Interrupt()
	}
}
