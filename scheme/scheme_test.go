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

package scheme_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/broker"
	"github.com/anyks/awh/scheme"
)

var _ = Describe("Registry", func() {
	It("tracks a broker and returns fresh Options in PhaseConnecting", func() {
		reg := scheme.NewRegistry()
		b := broker.New(3, broker.ClientToServer, 1)

		opt, err := reg.Track(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(opt.Kind).To(Equal(scheme.PhaseConnecting))
		Expect(reg.Len()).To(Equal(1))

		gotB, gotOpt, err := reg.Get(b.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(gotB).To(BeIdenticalTo(b))
		Expect(gotOpt).To(BeIdenticalTo(opt))
	})

	It("rejects tracking the same broker id twice", func() {
		reg := scheme.NewRegistry()
		b := broker.New(3, broker.ClientToServer, 1)
		_, err := reg.Track(b)
		Expect(err).NotTo(HaveOccurred())
		_, err = reg.Track(b)
		Expect(err).To(HaveOccurred())
	})

	It("Untrack removes the broker and its Options", func() {
		reg := scheme.NewRegistry()
		b := broker.New(3, broker.ClientToServer, 1)
		_, _ = reg.Track(b)
		reg.Untrack(b.ID())

		_, _, err := reg.Get(b.ID())
		Expect(err).To(HaveOccurred())
		Expect(reg.Len()).To(Equal(0))
	})

	It("Get on an unknown id reports ErrUnknownBroker", func() {
		reg := scheme.NewRegistry()
		_, _, err := reg.Get(broker.ID(999))
		Expect(err).To(HaveOccurred())
	})

	It("Each visits every tracked pair", func() {
		reg := scheme.NewRegistry()
		b1 := broker.New(3, broker.ClientToServer, 1)
		b2 := broker.New(4, broker.ClientToServer, 1)
		_, _ = reg.Track(b1)
		_, _ = reg.Track(b2)

		seen := 0
		reg.Each(func(b *broker.Broker, o *scheme.Options) {
			seen++
			Expect(o).NotTo(BeNil())
		})
		Expect(seen).To(Equal(2))
	})
})

var _ = Describe("ErrorKind", func() {
	It("stringifies every taxonomy member", func() {
		Expect(scheme.TransportError.String()).To(Equal("TransportError"))
		Expect(scheme.ResourceExhausted.String()).To(Equal("ResourceExhausted"))
	})
})

var _ = Describe("NoopEvents", func() {
	It("satisfies ServerEvents and defaults OnAccept to true", func() {
		var ev scheme.ServerEvents = scheme.NoopEvents{}
		Expect(ev.OnAccept("1.2.3.4", "")).To(BeTrue())
	})
})
