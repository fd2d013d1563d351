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
	"crypto/rand"
	"encoding/binary"
	"io"
)

// Opcode is the frame's RFC 6455 §5.2 opcode nibble.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

func (o Opcode) isControl() bool { return o >= OpClose }

// Frame is one decoded WebSocket frame.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Payload []byte
}

// WriteFrame renders f onto w. Client-originated frames must be masked per
// RFC 6455 §5.1; server-originated frames must not be.
func WriteFrame(w io.Writer, f Frame, masked bool) error {
	if f.Opcode.isControl() && len(f.Payload) > 125 {
		return ErrControlFrameTooLarge.Error()
	}

	first := byte(0)
	if f.Fin {
		first |= 0x80
	}
	first |= byte(f.Opcode) & 0x0F

	maskBit := byte(0)
	if masked {
		maskBit = 0x80
	}

	var header []byte
	n := len(f.Payload)
	switch {
	case n <= 125:
		header = []byte{first, maskBit | byte(n)}
	case n <= 0xFFFF:
		header = make([]byte, 4)
		header[0], header[1] = first, maskBit|126
		binary.BigEndian.PutUint16(header[2:], uint16(n))
	default:
		header = make([]byte, 10)
		header[0], header[1] = first, maskBit|127
		binary.BigEndian.PutUint64(header[2:], uint64(n))
	}
	if _, err := w.Write(header); err != nil {
		return err
	}

	payload := f.Payload
	if masked {
		key := make([]byte, 4)
		if _, err := rand.Read(key); err != nil {
			return ErrFrameMalformed.Error(err)
		}
		if _, err := w.Write(key); err != nil {
			return err
		}
		payload = maskBytes(key, payload)
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame decodes one frame from r, unmasking the payload if the frame
// declares a mask (always true for client-to-server frames, always false
// for server-to-client ones — callers enforce which is expected for their
// role).
func ReadFrame(r io.Reader) (Frame, error) {
	head := make([]byte, 2)
	if _, err := io.ReadFull(r, head); err != nil {
		return Frame{}, ErrFrameMalformed.Error(err)
	}

	fin := head[0]&0x80 != 0
	opcode := Opcode(head[0] & 0x0F)
	masked := head[1]&0x80 != 0
	length := uint64(head[1] & 0x7F)

	switch length {
	case 126:
		ext := make([]byte, 2)
		if _, err := io.ReadFull(r, ext); err != nil {
			return Frame{}, ErrFrameMalformed.Error(err)
		}
		length = uint64(binary.BigEndian.Uint16(ext))
	case 127:
		ext := make([]byte, 8)
		if _, err := io.ReadFull(r, ext); err != nil {
			return Frame{}, ErrFrameMalformed.Error(err)
		}
		length = binary.BigEndian.Uint64(ext)
	}

	if opcode.isControl() && length > 125 {
		return Frame{}, ErrControlFrameTooLarge.Error()
	}

	var key []byte
	if masked {
		key = make([]byte, 4)
		if _, err := io.ReadFull(r, key); err != nil {
			return Frame{}, ErrFrameMalformed.Error(err)
		}
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, ErrFrameMalformed.Error(err)
		}
	}
	if masked {
		payload = maskBytes(key, payload)
	}

	return Frame{Fin: fin, Opcode: opcode, Payload: payload}, nil
}

// maskBytes XORs data with the 4-byte mask key, cycling it — the same
// operation applies and reverses the mask.
func maskBytes(key, data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%4]
	}
	return out
}
