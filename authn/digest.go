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

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

// Algorithm is a Digest `algorithm` token, including the `-sess` variants.
type Algorithm string

const (
	MD5        Algorithm = "MD5"
	MD5Sess    Algorithm = "MD5-sess"
	SHA1       Algorithm = "SHA-1"
	SHA1Sess   Algorithm = "SHA-1-sess"
	SHA256     Algorithm = "SHA-256"
	SHA256Sess Algorithm = "SHA-256-sess"
	SHA512     Algorithm = "SHA-512"
	SHA512Sess Algorithm = "SHA-512-sess"
)

// sessSuffix reports whether alg is a "-sess" variant and the base
// algorithm name it derives from.
func (a Algorithm) sessSuffix() (base Algorithm, sess bool) {
	s := strings.TrimSuffix(string(a), "-sess")
	return Algorithm(s), s != string(a)
}

func hashHex(alg Algorithm, s string) (string, error) {
	switch alg {
	case MD5:
		sum := md5.Sum([]byte(s))
		return hex.EncodeToString(sum[:]), nil
	case SHA1:
		sum := sha1.Sum([]byte(s))
		return hex.EncodeToString(sum[:]), nil
	case SHA256:
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:]), nil
	case SHA512:
		sum := sha512.Sum512([]byte(s))
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", ErrUnsupportedAlgorithm.Error()
	}
}

// ComputeHA1 computes `H(user:realm:pass)`, further hashed with
// `:nonce:cnonce` for `-sess` algorithms, per spec.md §4.5.
func ComputeHA1(alg Algorithm, user, realm, pass, nonce, cnonce string) (string, error) {
	base, sess := alg.sessSuffix()
	ha1, err := hashHex(base, user+":"+realm+":"+pass)
	if err != nil {
		return "", err
	}
	if sess {
		return hashHex(base, ha1+":"+nonce+":"+cnonce)
	}
	return ha1, nil
}

// ComputeHA2 computes `H(method:uri)`. qop="auth-int" request-body hashing
// is not implemented — only "auth" is supported per §8's scenarios.
func ComputeHA2(alg Algorithm, method, uri string) (string, error) {
	base, _ := alg.sessSuffix()
	return hashHex(base, method+":"+uri)
}

// ComputeResponse computes the Digest `response` value:
// `H(HA1:nonce:nc:cnonce:qop:HA2)`.
func ComputeResponse(alg Algorithm, ha1, nonce, nc, cnonce, qop, ha2 string) (string, error) {
	base, _ := alg.sessSuffix()
	return hashHex(base, ha1+":"+nonce+":"+nc+":"+cnonce+":"+qop+":"+ha2)
}

// Params is a parsed Digest Authorization/challenge parameter set.
type Params struct {
	Username  string
	Realm     string
	Nonce     string
	URI       string
	Response  string
	Algorithm Algorithm
	Qop       string
	Nc        string
	Cnonce    string
	Opaque    string
	Stale     bool
}

// DigestChallenge renders a WWW-Authenticate/Proxy-Authenticate Digest
// challenge.
func DigestChallenge(realm, nonce, opaque, qop string, alg Algorithm, stale bool) string {
	parts := []string{
		`Digest realm=` + strconv.Quote(realm),
		`nonce=` + strconv.Quote(nonce),
		`opaque=` + strconv.Quote(opaque),
		`qop=` + strconv.Quote(qop),
		`algorithm=` + string(alg),
	}
	if stale {
		parts = append(parts, "stale=true")
	}
	return strings.Join(parts, ", ")
}

// ParseDigestAuthorization parses an Authorization/Proxy-Authorization
// Digest header into its comma-separated `k="v"` (or bare-token) pairs.
func ParseDigestAuthorization(header string) (Params, error) {
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Digest") {
		return Params{}, ErrChallengeMalformed.Error()
	}

	fields := splitDigestFields(rest)
	p := Params{Algorithm: MD5}
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), `"`)
		switch strings.ToLower(k) {
		case "username":
			p.Username = v
		case "realm":
			p.Realm = v
		case "nonce":
			p.Nonce = v
		case "uri":
			p.URI = v
		case "response":
			p.Response = v
		case "algorithm":
			p.Algorithm = Algorithm(v)
		case "qop":
			p.Qop = v
		case "nc":
			p.Nc = v
		case "cnonce":
			p.Cnonce = v
		case "opaque":
			p.Opaque = v
		}
	}
	if p.Username == "" || p.Nonce == "" || p.Response == "" {
		return Params{}, ErrChallengeMalformed.Error()
	}
	return p, nil
}

// splitDigestFields splits on commas that are not inside a quoted value.
func splitDigestFields(s string) []string {
	var out []string
	inQuotes := false
	start := 0
	for i, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}
