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

package httpmsg_test

import (
	"bufio"
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/httpmsg"
)

var _ = Describe("Header", func() {
	It("looks up case-insensitively", func() {
		h := httpmsg.Header{{Key: "Content-Type", Value: "text/plain"}}
		v, ok := h.Get("content-type")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("text/plain"))
	})

	It("Set replaces, Add appends", func() {
		var h httpmsg.Header
		Expect(h.Set("X-A", "1")).To(Succeed())
		Expect(h.Add("X-A", "2")).To(Succeed())
		Expect(h.Values("x-a")).To(Equal([]string{"1", "2"}))
		Expect(h.Set("X-A", "3")).To(Succeed())
		Expect(h.Values("x-a")).To(Equal([]string{"3"}))
	})

	It("rejects header injection via CRLF", func() {
		var h httpmsg.Header
		err := h.Set("X-A", "value\r\nX-Evil: 1")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Request codec", func() {
	It("round-trips a Content-Length request", func() {
		req := httpmsg.NewRequest("POST", "/upload")
		Expect(req.Header.Set("Host", "example.com")).To(Succeed())
		Expect(req.Header.Set("Content-Length", "5")).To(Succeed())
		req.Body = []byte("hello")

		var buf bytes.Buffer
		Expect(req.Write(&buf)).To(Succeed())

		parsed, err := httpmsg.ReadRequest(bufio.NewReader(&buf))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Method).To(Equal("POST"))
		Expect(parsed.Target).To(Equal("/upload"))
		Expect(parsed.Body).To(Equal([]byte("hello")))
	})

	It("decodes a chunked body", func() {
		raw := "GET / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
		parsed, err := httpmsg.ReadRequest(bufio.NewReader(bytes.NewBufferString(raw)))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Body).To(Equal([]byte("hello world")))
	})

	It("reports Connection: close", func() {
		req := httpmsg.NewRequest("GET", "/")
		Expect(req.Header.Set("Connection", "close")).To(Succeed())
		Expect(req.Close()).To(BeTrue())
	})

	It("rejects an unsupported HTTP version", func() {
		raw := "GET / HTTP/2.0\r\n\r\n"
		_, err := httpmsg.ReadRequest(bufio.NewReader(bytes.NewBufferString(raw)))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Response codec", func() {
	It("round-trips a chunked response", func() {
		resp := httpmsg.NewResponse(200, "OK")
		Expect(resp.Header.Set("Transfer-Encoding", "chunked")).To(Succeed())
		resp.Body = []byte("payload")

		var buf bytes.Buffer
		Expect(resp.Write(&buf)).To(Succeed())

		parsed, err := httpmsg.ReadResponse(bufio.NewReader(&buf))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Status).To(Equal(200))
		Expect(parsed.Body).To(Equal([]byte("payload")))
	})

	It("reads a body to EOF when closing without declared length", func() {
		raw := "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\nthe rest of the stream"
		parsed, err := httpmsg.ReadResponse(bufio.NewReader(bytes.NewBufferString(raw)))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(parsed.Body)).To(Equal("the rest of the stream"))
	})

	It("reports no body for 204 No Content", func() {
		raw := "HTTP/1.1 204 No Content\r\n\r\n"
		parsed, err := httpmsg.ReadResponse(bufio.NewReader(bytes.NewBufferString(raw)))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Body).To(BeEmpty())
	})
})
