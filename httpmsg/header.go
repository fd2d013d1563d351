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

// Package httpmsg implements the HTTP/1.1 request/response wire codec: the
// start line, header block, and Content-Length/chunked body framing the
// broker's application phase drives once a connection reaches APP_READY.
package httpmsg

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Field is one header line, keeping the wire's original casing while still
// comparing case-insensitively — mirrors urlx.Param's ordered-pair shape.
type Field struct {
	Key   string
	Value string
}

// Header is an ordered header list. Order matters for a codec that is
// meant to be read back byte-for-byte in tests (§8), unlike net/http's
// map-backed Header which loses it.
type Header []Field

// Get returns the first value for key, case-insensitive.
func (h Header) Get(key string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value for key, in wire order.
func (h Header) Values(key string) []string {
	var out []string
	for _, f := range h {
		if strings.EqualFold(f.Key, key) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Set replaces every existing value for key with a single field. It
// validates the field name and value per RFC 7230 token grammar, rejecting
// CR/LF injection and other malformed tokens.
func (h *Header) Set(key, value string) error {
	if !httpguts.ValidHeaderFieldName(key) || !httpguts.ValidHeaderFieldValue(value) {
		return ErrInvalidHeaderName.Error()
	}
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Key, key) {
			out = append(out, f)
		}
	}
	*h = append(out, Field{Key: key, Value: value})
	return nil
}

// Add appends a field without removing any existing value for key.
func (h *Header) Add(key, value string) error {
	if !httpguts.ValidHeaderFieldName(key) || !httpguts.ValidHeaderFieldValue(value) {
		return ErrInvalidHeaderName.Error()
	}
	*h = append(*h, Field{Key: key, Value: value})
	return nil
}

// Del removes every field matching key, case-insensitive.
func (h *Header) Del(key string) {
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Key, key) {
			out = append(out, f)
		}
	}
	*h = out
}

// Clone returns an independent copy.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	copy(out, h)
	return out
}
