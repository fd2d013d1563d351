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
	"net/http"
	"strconv"
	"strings"

	"github.com/anyks/awh/errors"
)

// Response is an HTTP/1.1 status line plus headers and an already-read
// body.
type Response struct {
	Proto  string
	Status int
	Reason string
	Header Header
	Body   []byte
}

// NewResponse builds a minimal response skeleton; callers set
// Header/Body afterward.
func NewResponse(status int, reason string) *Response {
	return &Response{Proto: "HTTP/1.1", Status: status, Reason: reason}
}

// NewErrorResponse renders err as a JSON body via errors.DefaultReturn,
// for surfacing a broker-side failure (a proxy auth rejection, a malformed
// CONNECT request) to the peer as a response instead of just closing.
func NewErrorResponse(status int, err errors.Error) *Response {
	resp := NewResponse(status, http.StatusText(status))

	ret := errors.NewDefaultReturn()
	err.Return(ret)
	body := ret.JSON()

	resp.Header = Header{
		{Key: "Content-Type", Value: "application/json"},
		{Key: "Content-Length", Value: strconv.Itoa(len(body))},
	}
	resp.Body = body
	return resp
}

// Close reports whether the response declares Connection: close.
func (r *Response) Close() bool {
	v, ok := r.Header.Get("Connection")
	return ok && strings.EqualFold(strings.TrimSpace(v), "close")
}

// Write renders the status line, headers, and body onto w.
func (r *Response) Write(w io.Writer) error {
	line := r.Proto + " " + strconv.Itoa(r.Status) + " " + r.Reason + "\r\n"
	if _, err := io.WriteString(w, line); err != nil {
		return err
	}
	return writeHeaderAndBody(w, r.Header, r.Body)
}

// ReadResponse parses a status line, headers, and body off r. When the
// response neither declares Content-Length nor chunked framing, the body is
// read until EOF — valid only when the connection is about to close,
// exactly as RFC 7230 §3.3.3 case 7 permits.
func ReadResponse(r *bufio.Reader) (*Response, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, ErrMalformedStartLine.Error(err)
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, ErrMalformedStartLine.Error()
	}
	if parts[0] != "HTTP/1.1" && parts[0] != "HTTP/1.0" {
		return nil, ErrUnsupportedVersion.Error()
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, ErrMalformedStartLine.Error(err)
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	resp := &Response{Proto: parts[0], Status: status, Reason: reason, Header: header}

	if status/100 == 1 || status == 204 || status == 304 {
		return resp, nil
	}

	body, err := readBody(r, header, resp.Close())
	if err != nil {
		return nil, err
	}
	resp.Body = body
	return resp, nil
}

// readHeader reads header lines until a blank line, preserving wire order.
func readHeader(r *bufio.Reader) (Header, error) {
	var h Header
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, ErrMalformedHeader.Error(err)
		}
		if line == "" {
			return h, nil
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, ErrMalformedHeader.Error()
		}
		h = append(h, Field{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
}

// writeHeaderAndBody renders header followed by a blank line and body,
// choosing chunked or raw framing based on whether Transfer-Encoding:
// chunked is present in header.
func writeHeaderAndBody(w io.Writer, header Header, body []byte) error {
	for _, f := range header {
		if _, err := io.WriteString(w, f.Key+": "+f.Value+"\r\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	if isChunked(header) {
		return writeChunked(w, body)
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}
