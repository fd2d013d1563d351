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

package authn

import "github.com/anyks/awh/errors"

const (
	ErrChallengeMalformed errors.CodeError = errors.MinPkgAuth + iota
	ErrUnsupportedAlgorithm
	ErrAuthRequired
	ErrAuthFailed
	ErrStaleNonce
	ErrReplayedNonceCount
)

func init() {
	errors.RegisterIdFctMessage(ErrChallengeMalformed, func(code errors.CodeError) string {
		switch code {
		case ErrChallengeMalformed:
			return "authn: malformed Authorization/WWW-Authenticate header"
		case ErrUnsupportedAlgorithm:
			return "authn: unsupported digest algorithm"
		case ErrAuthRequired:
			return "authn: credentials required"
		case ErrAuthFailed:
			return "authn: credentials rejected"
		case ErrStaleNonce:
			return "authn: nonce has expired, retry with the fresh challenge"
		case ErrReplayedNonceCount:
			return "authn: nonce-count did not strictly increase"
		default:
			return ""
		}
	})
}
