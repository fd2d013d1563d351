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

package scheme

import "github.com/anyks/awh/errors"

const (
	ErrUnknownBroker errors.CodeError = errors.MinPkgScheme + iota
	ErrBrokerAlreadyTracked
	ErrInvalidProxyType
	ErrConfigDecode
	ErrConfigValidation
)

func init() {
	errors.RegisterIdFctMessage(ErrUnknownBroker, func(code errors.CodeError) string {
		switch code {
		case ErrUnknownBroker:
			return "scheme: broker id not tracked by this scheme"
		case ErrBrokerAlreadyTracked:
			return "scheme: broker id already tracked"
		case ErrInvalidProxyType:
			return "scheme: unsupported proxy type"
		case ErrConfigDecode:
			return "scheme: failed to decode configuration document"
		case ErrConfigValidation:
			return "scheme: configuration failed struct validation"
		default:
			return ""
		}
	})
}
