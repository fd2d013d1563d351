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

// Package authn implements the Basic and Digest HTTP authentication
// engines (§4.5): challenge construction, credential parsing, and the
// Digest HA1/HA2/response computation, on both sides of the connection.
package authn

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// BasicChallenge renders a WWW-Authenticate/Proxy-Authenticate challenge
// for realm.
func BasicChallenge(realm string) string {
	return `Basic realm=` + strconv.Quote(realm)
}

// BasicCredentials renders the Authorization/Proxy-Authorization value for
// user/pass.
func BasicCredentials(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

// ParseBasic decodes an Authorization/Proxy-Authorization header value
// carrying Basic credentials. The scheme token's case is ignored, per
// spec.md §4.5.
func ParseBasic(header string) (user, pass string, err error) {
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return "", "", ErrChallengeMalformed.Error()
	}
	decoded, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
	if derr != nil {
		return "", "", ErrChallengeMalformed.Error(derr)
	}
	user, pass, ok = strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", ErrChallengeMalformed.Error()
	}
	return user, pass, nil
}
