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

package httpmsg

import "github.com/anyks/awh/errors"

const (
	ErrMalformedStartLine errors.CodeError = errors.MinPkgHttpMsg + iota
	ErrMalformedHeader
	ErrUnsupportedVersion
	ErrChunkFraming
	ErrBodyTooLarge
	ErrInvalidHeaderName
)

func init() {
	errors.RegisterIdFctMessage(ErrMalformedStartLine, func(code errors.CodeError) string {
		switch code {
		case ErrMalformedStartLine:
			return "httpmsg: malformed request/status line"
		case ErrMalformedHeader:
			return "httpmsg: malformed header line"
		case ErrUnsupportedVersion:
			return "httpmsg: unsupported HTTP version"
		case ErrChunkFraming:
			return "httpmsg: invalid chunked transfer-encoding framing"
		case ErrBodyTooLarge:
			return "httpmsg: body exceeds configured limit"
		case ErrInvalidHeaderName:
			return "httpmsg: invalid header field name or value"
		default:
			return ""
		}
	})
}
