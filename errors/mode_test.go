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
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/anyks/awh/errors"
	"github.com/anyks/awh/wsproto"
)

var _ = Describe("ErrorMode", func() {
	var original liberr.ErrorMode

	BeforeEach(func() {
		original = liberr.GetModeReturnError()
	})

	AfterEach(func() {
		liberr.SetModeReturnError(original)
	})

	It("Default mode returns just the registered message", func() {
		liberr.SetModeReturnError(liberr.Default)
		err := wsproto.ErrFrameMalformed.Error()
		Expect(err.Error()).To(Equal(err.StringError()))
	})

	It("ErrorReturnCode mode returns the numeric code", func() {
		liberr.SetModeReturnError(liberr.ErrorReturnCode)
		err := wsproto.ErrHandshakeInvalid.Error()
		Expect(err.Error()).To(Equal(fmt.Sprintf("%v", err.Code())))
	})

	It("ErrorReturnCodeError mode returns the code#message pattern", func() {
		liberr.SetModeReturnError(liberr.ErrorReturnCodeError)
		err := wsproto.ErrHandshakeInvalid.Error()
		Expect(err.Error()).To(Equal(err.CodeError("")))
	})

	It("ErrorReturnStringError mode matches StringError", func() {
		liberr.SetModeReturnError(liberr.ErrorReturnStringError)
		err := wsproto.ErrCloseInvalid.Error()
		Expect(err.Error()).To(Equal(err.StringError()))
	})

	It("String renders a human label for each mode", func() {
		Expect(liberr.ErrorReturnCodeError.String()).To(Equal("CodeError"))
		Expect(liberr.Default.String()).To(Equal("default"))
	})
})
