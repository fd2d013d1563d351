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

package errors_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/client"
	liberr "github.com/anyks/awh/errors"
	"github.com/anyks/awh/reactor"
	"github.com/anyks/awh/server"
)

var _ = Describe("CodeError", func() {
	Describe("per-package code blocks", func() {
		It("assigns reactor codes starting at MinPkgReactor", func() {
			Expect(reactor.ErrResourceExhausted.Uint16()).To(Equal(uint16(liberr.MinPkgReactor)))
			Expect(reactor.ErrClosed.Uint16()).To(Equal(uint16(liberr.MinPkgReactor + 1)))
		})

		It("assigns client codes starting at MinPkgClient", func() {
			Expect(client.ErrRetriesExhausted.Uint16()).To(Equal(uint16(liberr.MinPkgClient)))
		})

		It("keeps every package block below the next package's floor", func() {
			Expect(uint16(liberr.MinPkgReactor)).To(BeNumerically("<", uint16(liberr.MinPkgTimer)))
			Expect(uint16(liberr.MinPkgClient)).To(BeNumerically("<", uint16(liberr.MinPkgServer)))
			Expect(uint16(liberr.MinPkgServer)).To(BeNumerically("<", uint16(liberr.MinAvailable)))
		})
	})

	Describe("Uint16/Int", func() {
		It("round-trips through ParseCodeError and NewCodeError", func() {
			code := liberr.ParseCodeError(int64(server.ErrAdmissionRejected.Uint16()))
			Expect(code).To(Equal(server.ErrAdmissionRejected))

			code = liberr.NewCodeError(server.ErrAdmissionRejected.Uint16())
			Expect(code.Int()).To(Equal(int(server.ErrAdmissionRejected)))
		})
	})

	Describe("Message", func() {
		It("resolves the message a package registered in its init()", func() {
			Expect(reactor.ErrRlimitProbe.Message()).To(Equal("reactor: could not probe fd soft limit"))
			Expect(client.ErrNotConnected.Message()).To(Equal("client: broker is not in an application-ready phase"))
		})

		It("falls back to the unknown-error message for a code nobody registered", func() {
			Expect(liberr.CodeError(liberr.MinAvailable).Message()).To(Equal(liberr.UnknownMessage))
		})
	})

	Describe("Error", func() {
		It("builds an Error carrying the registered message and no parent", func() {
			err := server.ErrMaxConnections.Error()
			Expect(err.GetCode()).To(Equal(server.ErrMaxConnections))
			Expect(err.StringError()).To(Equal("server: max_connections reached"))
			Expect(err.HasParent()).To(BeFalse())
		})

		It("attaches the underlying cause as a parent", func() {
			cause := errors.New("dial tcp: connection refused")
			err := client.ErrProxyRejected.Error(cause)
			Expect(err.HasParent()).To(BeTrue())
			Expect(err.ContainsString("connection refused")).To(BeTrue())
		})
	})

	Describe("IfError", func() {
		It("returns nil when no cause occurred", func() {
			Expect(reactor.ErrInvalidFD.IfError(nil)).To(BeNil())
		})

		It("wraps the cause when one occurred", func() {
			err := reactor.ErrInvalidFD.IfError(errors.New("fd -1"))
			Expect(err).NotTo(BeNil())
			Expect(err.IsCode(reactor.ErrInvalidFD)).To(BeTrue())
		})
	})

	Describe("ExistInMapMessage", func() {
		It("is true for every code a package registered", func() {
			Expect(liberr.ExistInMapMessage(server.ErrListenFailed)).To(BeTrue())
		})
	})
})
