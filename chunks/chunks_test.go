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

package chunks_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/chunks"
)

var _ = Describe("Chunks", func() {
	It("drains in FIFO order", func() {
		c := chunks.New()
		c.Add([]byte("a"))
		c.Add([]byte("b"))
		c.Add([]byte("c"))

		b, ok := c.Get()
		Expect(ok).To(BeTrue())
		Expect(string(b)).To(Equal("a"))

		b, ok = c.Get()
		Expect(ok).To(BeTrue())
		Expect(string(b)).To(Equal("b"))
	})

	It("returns false once drained", func() {
		c := chunks.New()
		_, ok := c.Get()
		Expect(ok).To(BeFalse())
	})

	It("keeps tail-head equal to N-K after N adds and K gets", func() {
		c := chunks.New()
		n := 37
		for i := 0; i < n; i++ {
			c.Add([]byte{byte(i)})
		}

		k := 12
		for i := 0; i < k; i++ {
			_, ok := c.Get()
			Expect(ok).To(BeTrue())
		}

		Expect(c.Len()).To(Equal(uint64(n - k)))
	})

	It("normalizes head/tail back to zero once fully drained", func() {
		c := chunks.New()
		for i := 0; i < 5; i++ {
			c.Add([]byte{byte(i)})
		}
		for i := 0; i < 5; i++ {
			_, _ = c.Get()
		}

		idx := c.Add([]byte("fresh"))
		Expect(idx).To(Equal(uint64(0)))
	})

	It("returns empty while the end flag is set, until it is cleared", func() {
		c := chunks.New()
		c.Add([]byte("only"))
		c.SetEnd(true)

		_, ok := c.Get()
		Expect(ok).To(BeFalse())
		Expect(c.End()).To(BeTrue())

		c.SetEnd(false)
		b, ok := c.Get()
		Expect(ok).To(BeTrue())
		Expect(string(b)).To(Equal("only"))
	})

	It("supports out-of-order staging via AddAt", func() {
		c := chunks.New()
		c.AddAt(2, []byte("third"))
		c.AddAt(0, []byte("first"))
		c.AddAt(1, []byte("second"))

		b, _ := c.Get()
		Expect(string(b)).To(Equal("first"))
		b, _ = c.Get()
		Expect(string(b)).To(Equal("second"))
		b, _ = c.Get()
		Expect(string(b)).To(Equal("third"))
	})

	It("Bytes concatenates and drains every queued chunk", func() {
		c := chunks.New()
		c.Add([]byte("ab"))
		c.Add([]byte("cd"))
		Expect(string(c.Bytes())).To(Equal("abcd"))
		Expect(c.Len()).To(Equal(uint64(0)))
	})

	It("never loses bytes across a randomized add/get interleaving", func() {
		c := chunks.New()
		var produced, consumed []byte

		for i := 0; i < 200; i++ {
			if rand.Intn(3) != 0 || c.Len() == 0 {
				n := byte(rand.Intn(256))
				c.Add([]byte{n})
				produced = append(produced, n)
			} else {
				b, ok := c.Get()
				Expect(ok).To(BeTrue())
				consumed = append(consumed, b...)
			}
		}
		for {
			b, ok := c.Get()
			if !ok {
				break
			}
			consumed = append(consumed, b...)
		}

		Expect(consumed).To(Equal(produced))
	})
})
