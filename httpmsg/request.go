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

import (
	"bufio"
	"io"
	"strings"
)

// Request is an HTTP/1.1 request line plus headers and an already-read
// body. Method/Target/Proto keep the wire's exact tokens rather than
// normalizing case, so a echoed-back request compares byte-for-byte.
type Request struct {
	Method string
	Target string
	Proto  string
	Header Header
	Body   []byte
}

// NewRequest builds a minimal GET-shaped request skeleton; callers set
// Header/Body afterward.
func NewRequest(method, target string) *Request {
	return &Request{Method: method, Target: target, Proto: "HTTP/1.1"}
}

// Close reports whether the request declares Connection: close.
func (r *Request) Close() bool {
	v, ok := r.Header.Get("Connection")
	return ok && strings.EqualFold(strings.TrimSpace(v), "close")
}

// Write renders the request line, headers, and body onto w.
func (r *Request) Write(w io.Writer) error {
	if _, err := io.WriteString(w, r.Method+" "+r.Target+" "+r.Proto+"\r\n"); err != nil {
		return err
	}
	return writeHeaderAndBody(w, r.Header, r.Body)
}

// ReadRequest parses a request line, headers, and body (per Content-Length
// or chunked framing) off r. A request never reads its body until EOF —
// that framing is only valid for a response on a closing connection.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, ErrMalformedStartLine.Error(err)
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, ErrMalformedStartLine.Error()
	}
	if parts[2] != "HTTP/1.1" && parts[2] != "HTTP/1.0" {
		return nil, ErrUnsupportedVersion.Error()
	}

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	body, err := readBody(r, header, false)
	if err != nil {
		return nil, err
	}

	return &Request{Method: parts[0], Target: parts[1], Proto: parts[2], Header: header, Body: body}, nil
}
