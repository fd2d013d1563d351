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

package broker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/broker"
)

var _ = Describe("Broker", func() {
	It("assigns distinct monotonic ids", func() {
		b1 := broker.New(3, broker.ClientToServer, 1)
		b2 := broker.New(4, broker.ClientToServer, 1)
		Expect(b2.ID()).To(BeNumerically(">", b1.ID()))
	})

	It("starts in INIT phase with a valid fd", func() {
		b := broker.New(3, broker.ClientToServer, 1)
		Expect(b.Phase()).To(Equal(broker.Init))
		Expect(b.FD()).To(Equal(3))
	})

	It("walks the happy-path transition table", func() {
		b := broker.New(3, broker.ClientToServer, 1)
		Expect(b.Transition(broker.Connecting)).To(Succeed())
		Expect(b.Transition(broker.ProxyHandshake)).To(Succeed())
		Expect(b.Transition(broker.AppReady)).To(Succeed())
		Expect(b.Transition(broker.AppActive)).To(Succeed())
		Expect(b.Transition(broker.AppReady)).To(Succeed())
		Expect(b.Transition(broker.Closing)).To(Succeed())
		Expect(b.Transition(broker.Closed)).To(Succeed())
	})

	It("allows the no-proxy shortcut CONNECTING -> APP_READY", func() {
		b := broker.New(3, broker.ClientToServer, 1)
		Expect(b.Transition(broker.Connecting)).To(Succeed())
		Expect(b.Transition(broker.AppReady)).To(Succeed())
	})

	It("rejects an illegal transition", func() {
		b := broker.New(3, broker.ClientToServer, 1)
		err := b.Transition(broker.AppActive)
		Expect(err).To(HaveOccurred())
		Expect(b.Phase()).To(Equal(broker.Init))
	})

	It("fd becomes invalid exactly once CLOSED is reached", func() {
		b := broker.New(3, broker.ClientToServer, 1)
		Expect(b.FD()).To(Equal(3))
		Expect(b.Transition(broker.Connecting)).To(Succeed())
		Expect(b.Transition(broker.Closed)).To(Succeed())
		Expect(b.FD()).To(Equal(-1))
	})

	It("resets retry counters and buffers on proxy switchover", func() {
		b := broker.New(3, broker.ClientToServer, 1)
		b.Retry = broker.Retry{Current: 2, Limit: 5}
		b.Write.Add([]byte("connect handshake bytes"))

		Expect(b.Transition(broker.Connecting)).To(Succeed())
		Expect(b.Transition(broker.ProxyHandshake)).To(Succeed())
		Expect(b.Transition(broker.AppReady)).To(Succeed())

		Expect(b.Retry.Current).To(Equal(0))
		Expect(b.Write.Len()).To(Equal(uint64(0)))
	})

	It("Close forces CLOSED from any phase", func() {
		b := broker.New(3, broker.ClientToServer, 1)
		Expect(b.Transition(broker.Connecting)).To(Succeed())
		b.Close()
		Expect(b.Phase()).To(Equal(broker.Closed))
		Expect(b.FD()).To(Equal(-1))
	})
})
