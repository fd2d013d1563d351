/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package reactor is the single-threaded event loop that multiplexes
// socket readiness and the timer wheel, as specified in spec.md §4.1 and
// §5: one loop thread, watch/unwatch/run/stop, nothing blocks.
package reactor

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/anyks/awh/logx"
	"github.com/anyks/awh/timerwheel"
)

// Direction is the readiness edge a watch cares about.
type Direction int

const (
	Read Direction = 1 << iota
	Write
)

// Callback is invoked when a watched fd becomes ready in the requested
// direction(s). The argument reports which directions actually fired.
type Callback func(ready Direction)

// WatchID addresses one fd registration, returned by Watch.
type WatchID uint64

type watch struct {
	fd         int
	dir        Direction
	cb         Callback
	generation uint64
}

// Loop is the reactor: one instance drives one OS thread's worth of
// socket polling plus its own timerwheel.Wheel. It is not safe to call
// mutating methods (Watch/Unwatch/Stop) concurrently from multiple
// goroutines while Run is executing except via the documented wake path
// (all such calls simply mutate protected maps and nudge the self-pipe).
type Loop struct {
	mu        sync.Mutex
	watches   map[WatchID]*watch
	nextID    WatchID
	wheel     *timerwheel.Wheel
	log       logx.Logger
	wakeR     int
	wakeW     int
	running   int32
	stopCh    chan struct{}
	softLimit uint64
	headroom  uint64
}

// New creates a Loop, probing the process's fd soft limit via
// golang.org/x/sys/unix.Getrlimit and logging it, per spec.md §4.1's
// "system logs the current soft limit on startup". headroom is the number
// of fds to keep in reserve: Watch fails with ResourceExhausted once
// live watches are within headroom of the soft limit.
func New(log logx.Logger, headroom uint64) (*Loop, error) {
	if log == nil {
		log = logx.Discard()
	}

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return nil, ErrRlimitProbe.Error(err)
	}
	log.WithFields(logx.Fields{"soft_limit": rlim.Cur}).Info("reactor: fd soft limit probed")

	fds, err := selfPipe()
	if err != nil {
		return nil, err
	}

	return &Loop{
		watches:   make(map[WatchID]*watch),
		wheel:     timerwheel.New(),
		log:       log,
		wakeR:     fds[0],
		wakeW:     fds[1],
		stopCh:    make(chan struct{}),
		softLimit: rlim.Cur,
		headroom:  headroom,
	}, nil
}

func selfPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK); err != nil {
		return fds, err
	}
	return fds, nil
}

// Watch registers fd for the given direction(s); cb fires once per Run
// turn in which the fd is ready, until Unwatch is called.
func (l *Loop) Watch(fd int, dir Direction, cb Callback) (WatchID, error) {
	if fd < 0 {
		return 0, ErrInvalidFD.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if uint64(len(l.watches))+l.headroom >= l.softLimit {
		return 0, ErrResourceExhausted.Error()
	}

	id := l.nextID
	l.nextID++
	l.watches[id] = &watch{fd: fd, dir: dir, cb: cb}

	l.wake()
	return id, nil
}

// Unwatch removes a watch. Idempotent: unwatching an unknown or already
// removed id is a no-op, and is safe to call from inside a firing
// callback.
func (l *Loop) Unwatch(id WatchID) {
	l.mu.Lock()
	delete(l.watches, id)
	l.mu.Unlock()
	l.wake()
}

// Timeout schedules a one-shot callback on the reactor's timer wheel.
func (l *Loop) Timeout(delay time.Duration, fn timerwheel.Func) timerwheel.ID {
	return l.wheel.Timeout(delay, fn)
}

// Interval schedules a repeating callback on the reactor's timer wheel.
func (l *Loop) Interval(delay time.Duration, fn timerwheel.Func) timerwheel.ID {
	return l.wheel.Interval(delay, fn)
}

// Clear cancels a timer previously returned by Timeout or Interval.
func (l *Loop) Clear(id timerwheel.ID) {
	l.wheel.Clear(id)
}

// wake nudges a blocked unix.Poll call so a Watch/Unwatch issued from
// another goroutine is picked up on the next turn instead of waiting out
// the poll timeout.
func (l *Loop) wake() {
	if l.wakeW < 0 {
		return
	}
	_, _ = unix.Write(l.wakeW, []byte{0})
}

// Run drives the loop until Stop is called. Each turn polls every
// registered fd plus the self-pipe with a fixed 250 ms timeout, dispatches
// ready fds, then loops. Timers scheduled through Timeout/Interval are not
// dispatched here: the wheel fires them from its own Go timers, outside
// Run's turns. Run returns nil once Stop has fully drained the turn in
// flight.
func (l *Loop) Run() error {
	if !atomic.CompareAndSwapInt32(&l.running, 0, 1) {
		return ErrClosed.Error()
	}
	defer atomic.StoreInt32(&l.running, 0)

	for {
		select {
		case <-l.stopCh:
			return nil
		default:
		}

		l.mu.Lock()
		pfds := make([]unix.PollFd, 0, len(l.watches)+1)
		pfds = append(pfds, unix.PollFd{Fd: int32(l.wakeR), Events: unix.POLLIN})
		ids := make([]WatchID, 0, len(l.watches))
		for id, w := range l.watches {
			var ev int16
			if w.dir&Read != 0 {
				ev |= unix.POLLIN
			}
			if w.dir&Write != 0 {
				ev |= unix.POLLOUT
			}
			pfds = append(pfds, unix.PollFd{Fd: int32(w.fd), Events: ev})
			ids = append(ids, id)
		}
		l.mu.Unlock()

		n, err := unix.Poll(pfds, 250)
		if err != nil && err != unix.EINTR {
			l.log.Warn("reactor: poll error: ", err)
			continue
		}
		if n <= 0 {
			continue
		}

		if pfds[0].Revents != 0 {
			var drain [64]byte
			_, _ = unix.Read(l.wakeR, drain[:])
		}

		for i, id := range ids {
			pf := pfds[i+1]
			if pf.Revents == 0 {
				continue
			}

			l.mu.Lock()
			w, ok := l.watches[id]
			l.mu.Unlock()
			if !ok {
				continue
			}

			var ready Direction
			if pf.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
				ready |= Read
			}
			if pf.Revents&unix.POLLOUT != 0 {
				ready |= Write
			}
			if ready != 0 && w.cb != nil {
				w.cb(ready)
			}
		}
	}
}

// Stop halts the loop. Per spec.md §4.1, Stop drains callbacks already
// dispatched this turn before Run returns — Run observes stopCh only
// between turns, never mid-dispatch.
func (l *Loop) Stop() {
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
	l.wake()
	l.wheel.Stop()
}

// Len reports the number of live fd watches. Diagnostics/tests only.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.watches)
}
