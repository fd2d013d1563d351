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

package scheme_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/scheme"
)

const validClientYAML = `
client:
  target: "http://example.com/"
  retry:
    limit: 3
    base_ms: 1000
    max_ms: 30000
`

const validServerYAML = `
server:
  listen: "127.0.0.1:8080"
  max_connections: 64
`

var _ = Describe("Config", func() {
	It("loads and validates a client config", func() {
		cfg, err := scheme.LoadConfig(strings.NewReader(validClientYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Client).NotTo(BeNil())
		Expect(cfg.Client.Target).To(Equal("http://example.com/"))
		Expect(cfg.Validate()).To(BeNil())
	})

	It("loads and validates a server config", func() {
		cfg, err := scheme.LoadConfig(strings.NewReader(validServerYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server).NotTo(BeNil())
		Expect(cfg.Validate()).To(BeNil())
	})

	It("fails validation when neither client nor server is set", func() {
		cfg, err := scheme.LoadConfig(strings.NewReader("{}"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("fails validation when a server's listen address is empty", func() {
		cfg := &scheme.Config{Server: &scheme.ServerConfig{MaxConnections: 1}}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("reports an error for a malformed yaml document", func() {
		_, err := scheme.LoadConfig(strings.NewReader("client: [this is not a map"))
		Expect(err).To(HaveOccurred())
	})
})
