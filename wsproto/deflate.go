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

package wsproto

import (
	"bytes"
	"compress/flate"
	"io"
)

// deflateTail is the 4-byte trailer RFC 7692 §7.2.1 requires the sender to
// strip and the receiver to re-append before inflating.
var deflateTail = []byte{0x00, 0x00, 0xff, 0xff}

// DeflateMessage compresses payload with raw DEFLATE for a
// permessage-deflate frame, stripping the trailing sync-flush marker.
func DeflateMessage(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, ErrFrameMalformed.Error(err)
	}
	if _, err := fw.Write(payload); err != nil {
		return nil, ErrFrameMalformed.Error(err)
	}
	if err := fw.Flush(); err != nil {
		return nil, ErrFrameMalformed.Error(err)
	}
	out := buf.Bytes()
	if bytes.HasSuffix(out, deflateTail) {
		out = out[:len(out)-len(deflateTail)]
	}
	return out, nil
}

// InflateMessage reverses DeflateMessage: re-appends the sync-flush
// trailer, then an empty final stored block so the raw DEFLATE reader sees
// a complete stream, and inflates the result.
func InflateMessage(payload []byte) ([]byte, error) {
	finalBlock := []byte{0x01, 0x00, 0x00, 0xff, 0xff}
	fr := flate.NewReader(io.MultiReader(bytes.NewReader(payload), bytes.NewReader(deflateTail), bytes.NewReader(finalBlock)))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, ErrFrameMalformed.Error(err)
	}
	return out, nil
}
