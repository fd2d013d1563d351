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

package timerwheel_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/timerwheel"
)

var _ = Describe("Wheel", func() {
	It("fires a one-shot timeout exactly once", func() {
		w := timerwheel.New()
		defer w.Stop()

		var n int32
		w.Timeout(10*time.Millisecond, func() {
			atomic.AddInt32(&n, 1)
		})

		Eventually(func() int32 { return atomic.LoadInt32(&n) }, time.Second).Should(Equal(int32(1)))
		Consistently(func() int32 { return atomic.LoadInt32(&n) }, 50*time.Millisecond).Should(Equal(int32(1)))
	})

	It("fires an interval repeatedly until cleared", func() {
		w := timerwheel.New()
		defer w.Stop()

		var n int32
		id := w.Interval(10*time.Millisecond, func() {
			atomic.AddInt32(&n, 1)
		})

		Eventually(func() int32 { return atomic.LoadInt32(&n) }, time.Second).Should(BeNumerically(">=", 3))
		w.Clear(id)

		count := atomic.LoadInt32(&n)
		Consistently(func() int32 { return atomic.LoadInt32(&n) }, 50*time.Millisecond).Should(Equal(count))
	})

	It("Clear is idempotent and safe on unknown ids", func() {
		w := timerwheel.New()
		defer w.Stop()

		id := w.Timeout(time.Hour, func() {})
		w.Clear(id)
		Expect(func() { w.Clear(id) }).ToNot(Panic())
		Expect(func() { w.Clear(timerwheel.ID(9999)) }).ToNot(Panic())
	})

	It("a cleared one-shot never fires", func() {
		w := timerwheel.New()
		defer w.Stop()

		var n int32
		id := w.Timeout(20*time.Millisecond, func() {
			atomic.AddInt32(&n, 1)
		})
		w.Clear(id)

		Consistently(func() int32 { return atomic.LoadInt32(&n) }, 60*time.Millisecond).Should(Equal(int32(0)))
	})

	It("Len reflects live registrations", func() {
		w := timerwheel.New()
		defer w.Stop()

		Expect(w.Len()).To(Equal(0))
		id1 := w.Timeout(time.Hour, func() {})
		id2 := w.Interval(time.Hour, func() {})
		Expect(w.Len()).To(Equal(2))

		w.Clear(id1)
		w.Clear(id2)
		Expect(w.Len()).To(Equal(0))
	})

	It("Stop cancels every pending timer", func() {
		w := timerwheel.New()

		var n int32
		w.Timeout(10*time.Millisecond, func() { atomic.AddInt32(&n, 1) })
		w.Interval(10*time.Millisecond, func() { atomic.AddInt32(&n, 1) })
		w.Stop()

		Consistently(func() int32 { return atomic.LoadInt32(&n) }, 60*time.Millisecond).Should(Equal(int32(0)))
	})
})
