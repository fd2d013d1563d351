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

package client

import (
	"bytes"
	"time"

	"github.com/anyks/awh/broker"
	"github.com/anyks/awh/scheme"
	"github.com/anyks/awh/wsproto"
)

// Pinger drives the idle-keepalive half of spec.md §4.7: on a persistence
// interval it sends a WebSocket ping (when the broker upgraded) or simply
// touches PingAt for a plain HTTP keep-alive connection, and flags the
// peer dead once read_timeout has elapsed with no reply.
type Pinger struct {
	Interval    time.Duration
	ReadTimeout time.Duration
}

// NewPinger returns a Pinger with the interval/timeout pair.
func NewPinger(interval, readTimeout time.Duration) *Pinger {
	return &Pinger{Interval: interval, ReadTimeout: readTimeout}
}

// Due reports whether b's Options is due for a ping: PingAt is zero (never
// pinged) or Interval has elapsed since.
func (p *Pinger) Due(opt *scheme.Options, now time.Time) bool {
	if opt.PingAt.IsZero() {
		return true
	}
	return now.Sub(opt.PingAt) >= p.Interval
}

// Send writes a ping frame on WebSocket-upgraded brokers, stamps PingAt,
// and returns the bytes to flush through the broker's write path. For a
// plain (non-WebSocket) broker there is no application-level ping to
// send; PingAt is still stamped so Expired can track liveness off the
// last successful read instead.
func (p *Pinger) Send(b *broker.Broker, opt *scheme.Options, now time.Time) ([]byte, error) {
	opt.PingAt = now

	if opt.App == nil || !opt.App.IsWebSocket {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := wsproto.WriteFrame(&buf, wsproto.Frame{Fin: true, Opcode: wsproto.OpPing}, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Expired reports whether a broker that was due a ping at lastSeen has now
// gone silent past ReadTimeout, meaning the caller should transition it to
// Closing and report scheme.Timeout through its events.
func (p *Pinger) Expired(lastSeen, now time.Time) bool {
	return now.Sub(lastSeen) >= p.ReadTimeout
}
