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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/broker"
	liberr "github.com/anyks/awh/errors"
	"github.com/anyks/awh/socks5"
)

var _ = Describe("Trace and code/message patterns", func() {
	Describe("GetTrace", func() {
		It("captures a file#line trace at the CodeError.Error() call site", func() {
			err := broker.ErrInvalidState.Error()
			Expect(err.GetTrace()).To(ContainSubstring("#"))
		})

		It("NewErrorTrace accepts an explicit file and line instead of capturing one", func() {
			err := liberr.NewErrorTrace(int(socks5.ErrBadVersion), "socks5: protocol version must be 5", "socks5/greeting.go", 42)
			Expect(err.GetTrace()).To(Equal("socks5/greeting.go#42"))
		})

		It("returns an empty trace when neither a file nor a function is known", func() {
			err := liberr.NewErrorTrace(int(socks5.ErrBadVersion), "socks5: protocol version must be 5", "", 7)
			Expect(err.GetTrace()).To(BeEmpty())
		})
	})

	Describe("CodeError/CodeErrorTrace formatting", func() {
		It("renders the default code#message pattern", func() {
			err := socks5.ErrNoAcceptableMethod.Error()
			Expect(err.CodeError("")).To(ContainSubstring(err.StringError()))
		})

		It("honors a custom pattern", func() {
			err := socks5.ErrNoAcceptableMethod.Error()
			rendered := err.CodeError("[%d] %s")
			Expect(rendered).To(HavePrefix("["))
		})

		It("CodeErrorTrace appends the trace to the code/message pair", func() {
			err := broker.ErrFDInUse.Error()
			Expect(err.CodeErrorTrace("")).To(ContainSubstring(err.StringError()))
			Expect(err.CodeErrorTrace("")).To(ContainSubstring(err.GetTrace()))
		})
	})

	Describe("NewErrorRecovered", func() {
		It("folds a recovered panic value into the error's parent chain", func() {
			err := liberr.NewErrorRecovered("reactor: recovered from panic in callback", "runtime error: index out of range")
			Expect(err.HasParent()).To(BeTrue())
			Expect(err.ContainsString("index out of range")).To(BeTrue())
		})

		It("carries no parent when nothing was recovered", func() {
			err := liberr.NewErrorRecovered("reactor: recovered from panic in callback", "")
			Expect(err.HasParent()).To(BeFalse())
		})
	})
})
