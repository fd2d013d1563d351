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

package socks5

import "io"

// AuthFunc validates phase 2 credentials. A nil AuthFunc means the server
// offers MethodNoAuth only.
type AuthFunc func(user, pass string) bool

// Request is the parsed CONNECT target from phase 3, returned by Accept
// once the caller still needs to dial it and reply with WriteReply.
type Request struct {
	Command Command
	Target  Addr
}

// Accept drives the server side of phases 1 and 2, then parses the phase 3
// request and returns its target without replying — the caller is expected
// to attempt the outbound connection and then call WriteReply with the outcome
// and the locally bound address.
func Accept(rw io.ReadWriter, auth AuthFunc) (Request, error) {
	head := make([]byte, 2)
	if err := readExact(rw, head); err != nil {
		return Request{}, err
	}
	if head[0] != Version {
		return Request{}, ErrBadVersion.Error()
	}
	n := int(head[1])
	methodBuf := make([]byte, n)
	if err := readExact(rw, methodBuf); err != nil {
		return Request{}, err
	}
	offered := make([]Method, n)
	for i, m := range methodBuf {
		offered[i] = Method(m)
	}

	selected := chooseMethod(offered, auth)
	if _, err := rw.Write(BuildGreetingReply(selected)); err != nil {
		return Request{}, ErrShortRead.Error(err)
	}
	if selected == MethodReject {
		return Request{}, ErrNoAcceptableMethod.Error()
	}

	if selected == MethodUserPass {
		authHead := make([]byte, 2)
		if err := readExact(rw, authHead); err != nil {
			return Request{}, err
		}
		ulen := int(authHead[1])
		userBuf := make([]byte, ulen)
		if err := readExact(rw, userBuf); err != nil {
			return Request{}, err
		}
		plenBuf := make([]byte, 1)
		if err := readExact(rw, plenBuf); err != nil {
			return Request{}, err
		}
		passBuf := make([]byte, int(plenBuf[0]))
		if err := readExact(rw, passBuf); err != nil {
			return Request{}, err
		}

		ok := auth(string(userBuf), string(passBuf))
		if _, err := rw.Write(BuildAuthReply(ok)); err != nil {
			return Request{}, ErrShortRead.Error(err)
		}
		if !ok {
			return Request{}, ErrAuthFailed.Error()
		}
	}

	reqHead := make([]byte, 3)
	if err := readExact(rw, reqHead); err != nil {
		return Request{}, err
	}
	if reqHead[0] != Version {
		return Request{}, ErrBadVersion.Error()
	}
	cmd := Command(reqHead[1])

	target, err := ReadAddr(rw)
	if err != nil {
		return Request{}, err
	}
	if cmd != CmdConnect {
		return Request{Command: cmd, Target: target}, ErrUnsupportedCommand.Error()
	}
	return Request{Command: cmd, Target: target}, nil
}

// chooseMethod picks MethodUserPass when auth is configured and offered,
// else MethodNoAuth when offered, else MethodReject.
func chooseMethod(offered []Method, auth AuthFunc) Method {
	hasNoAuth, hasUserPass := false, false
	for _, m := range offered {
		switch m {
		case MethodNoAuth:
			hasNoAuth = true
		case MethodUserPass:
			hasUserPass = true
		}
	}
	if auth != nil && hasUserPass {
		return MethodUserPass
	}
	if auth == nil && hasNoAuth {
		return MethodNoAuth
	}
	return MethodReject
}

// WriteReply writes the phase 3 server reply: the outcome of the CONNECT
// attempt and the address the server bound locally for the relay.
func WriteReply(w io.Writer, rep Reply, bound Addr) error {
	if _, err := w.Write(BuildReply(rep, bound)); err != nil {
		return ErrShortRead.Error(err)
	}
	return nil
}
