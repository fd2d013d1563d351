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

package socks5

import "github.com/anyks/awh/errors"

const (
	ErrShortRead errors.CodeError = errors.MinPkgSocks5 + iota
	ErrBadVersion
	ErrNoAcceptableMethod
	ErrAuthFailed
	ErrUnsupportedCommand
	ErrUnsupportedAddrType
	ErrInvalidAddr
	ErrRequestFailed
)

func init() {
	errors.RegisterIdFctMessage(ErrShortRead, func(code errors.CodeError) string {
		switch code {
		case ErrShortRead:
			return "socks5: short read, more bytes needed"
		case ErrBadVersion:
			return "socks5: protocol version must be 5"
		case ErrNoAcceptableMethod:
			return "socks5: no acceptable auth method"
		case ErrAuthFailed:
			return "socks5: username/password rejected"
		case ErrUnsupportedCommand:
			return "socks5: only CONNECT is supported"
		case ErrUnsupportedAddrType:
			return "socks5: unsupported address type"
		case ErrInvalidAddr:
			return "socks5: malformed address"
		case ErrRequestFailed:
			return "socks5: server rejected the request"
		default:
			return ""
		}
	})
}
