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

// Package size carries byte counts for bandwidth budgets and buffer marks:
// a thin, comparable unit so broker options and transport/bandwidth don't
// pass around bare uint64 with no unit attached.
package size

import "fmt"

// Size is a byte count. Zero means "unlimited" wherever it appears as a
// bandwidth budget (see transport/bandwidth), per spec.md §3.
type Size uint64

const (
	Byte     Size = 1
	Kilobyte      = 1024 * Byte
	Megabyte      = 1024 * Kilobyte
	Gigabyte      = 1024 * Megabyte
)

// Bytes returns the size as a plain byte count.
func (s Size) Bytes() uint64 {
	return uint64(s)
}

// String renders a human-readable size, e.g. "4.0 MB".
func (s Size) String() string {
	switch {
	case s >= Gigabyte:
		return fmt.Sprintf("%.1f GB", float64(s)/float64(Gigabyte))
	case s >= Megabyte:
		return fmt.Sprintf("%.1f MB", float64(s)/float64(Megabyte))
	case s >= Kilobyte:
		return fmt.Sprintf("%.1f KB", float64(s)/float64(Kilobyte))
	default:
		return fmt.Sprintf("%d B", uint64(s))
	}
}

// Unlimited reports whether this size represents "no budget configured".
func (s Size) Unlimited() bool {
	return s == 0
}
