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
	"strconv"
	"strings"
)

// MaxBodySize bounds how much a single body (chunked or Content-Length) can
// grow to, guarding against a malicious or buggy peer advertising an
// unbounded length. Callers needing a different ceiling should read the
// body themselves via the lower-level helpers.
const MaxBodySize = 64 << 20

// isChunked reports whether h declares chunked transfer-encoding. Per
// RFC 7230 §3.3.1, chunked is always the last encoding in the list.
func isChunked(h Header) bool {
	v, ok := h.Get("Transfer-Encoding")
	if !ok {
		return false
	}
	parts := strings.Split(v, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	return strings.EqualFold(last, "chunked")
}

// contentLength returns the declared Content-Length, or -1 if absent.
func contentLength(h Header) (int64, error) {
	v, ok := h.Get("Content-Length")
	if !ok {
		return -1, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, ErrMalformedHeader.Error(err)
	}
	return n, nil
}

// readBody consumes the message body from r according to h's framing:
// chunked transfer-encoding, a declared Content-Length, or (absent both)
// read-until-EOF for a response whose connection is closing.
func readBody(r *bufio.Reader, h Header, readUntilClose bool) ([]byte, error) {
	if isChunked(h) {
		return readChunked(r)
	}

	n, err := contentLength(h)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n > 0 {
		if n > MaxBodySize {
			return nil, ErrBodyTooLarge.Error()
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, ErrMalformedHeader.Error(err)
		}
		return buf, nil
	}

	if !readUntilClose {
		return nil, nil
	}
	buf, err := io.ReadAll(io.LimitReader(r, MaxBodySize+1))
	if err != nil {
		return nil, ErrMalformedHeader.Error(err)
	}
	if len(buf) > MaxBodySize {
		return nil, ErrBodyTooLarge.Error()
	}
	return buf, nil
}

// readChunked decodes an RFC 7230 §4.1 chunked body: a sequence of
// `size-in-hex CRLF chunk-data CRLF`, terminated by a zero-size chunk and a
// (possibly empty) trailer section.
func readChunked(r *bufio.Reader) ([]byte, error) {
	var out []byte
	total := 0

	for {
		line, err := readLine(r)
		if err != nil {
			return nil, ErrChunkFraming.Error(err)
		}
		sizeStr := line
		if i := strings.IndexByte(line, ';'); i >= 0 {
			sizeStr = line[:i]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 16, 64)
		if err != nil || size < 0 {
			return nil, ErrChunkFraming.Error(err)
		}
		if size == 0 {
			for {
				trailer, terr := readLine(r)
				if terr != nil {
					return nil, ErrChunkFraming.Error(terr)
				}
				if trailer == "" {
					break
				}
			}
			return out, nil
		}

		total += int(size)
		if total > MaxBodySize {
			return nil, ErrBodyTooLarge.Error()
		}

		chunk := make([]byte, size)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, ErrChunkFraming.Error(err)
		}
		out = append(out, chunk...)

		if _, err := readLine(r); err != nil {
			return nil, ErrChunkFraming.Error(err)
		}
	}
}

// writeChunked renders body as a single chunked-encoding frame followed by
// the terminating zero-size chunk.
func writeChunked(w io.Writer, body []byte) error {
	if len(body) > 0 {
		if _, err := io.WriteString(w, strconv.FormatInt(int64(len(body)), 16)+"\r\n"); err != nil {
			return err
		}
		if _, err := w.Write(body); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "0\r\n\r\n")
	return err
}

// readLine reads a single CRLF- or LF-terminated line, with the terminator
// stripped.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
