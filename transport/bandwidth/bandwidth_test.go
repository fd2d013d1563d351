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

package bandwidth_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/size"
	"github.com/anyks/awh/transport/bandwidth"
)

var _ = Describe("Limiter", func() {
	It("allows everything when unlimited", func() {
		l := bandwidth.New(0)
		Expect(l.Allow(1 << 20, time.Now())).To(Equal(1 << 20))
	})

	It("caps throughput within a one-second window", func() {
		l := bandwidth.New(100 * size.Byte)
		now := time.Now()

		Expect(l.Allow(60, now)).To(Equal(60))
		Expect(l.Allow(60, now)).To(Equal(40))
		Expect(l.Allow(10, now)).To(Equal(0))
	})

	It("resets the budget once the window rolls over", func() {
		l := bandwidth.New(100 * size.Byte)
		t0 := time.Now()

		Expect(l.Allow(100, t0)).To(Equal(100))
		Expect(l.Allow(1, t0)).To(Equal(0))

		t1 := t0.Add(2 * time.Second)
		Expect(l.Allow(50, t1)).To(Equal(50))
	})

	It("reports remaining budget in the current window", func() {
		l := bandwidth.New(100 * size.Byte)
		t0 := time.Now()

		Expect(l.Remaining(t0)).To(Equal(size.Size(100)))
		l.Allow(30, t0)
		Expect(l.Remaining(t0)).To(Equal(size.Size(70)))
	})
})
