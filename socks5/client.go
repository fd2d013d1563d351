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

// Credentials holds the username/password offered during phase 2, when the
// server selects MethodUserPass.
type Credentials struct {
	User string
	Pass string
}

// Negotiate drives the client side of the three SOCKS5 phases over rw:
// greeting, optional user/pass auth, CONNECT request. It returns the
// BND.ADDR/BND.PORT the server reports bound to the target. creds may be
// nil when no auth is expected; methods lists the auth methods offered in
// phase 1, in preference order.
func Negotiate(rw io.ReadWriter, methods []Method, creds *Credentials, target Addr) (Addr, error) {
	if _, err := rw.Write(BuildGreeting(methods)); err != nil {
		return Addr{}, ErrShortRead.Error(err)
	}

	reply := make([]byte, 2)
	if err := readExact(rw, reply); err != nil {
		return Addr{}, err
	}
	selected, _, err := ParseGreetingReply(reply)
	if err != nil {
		return Addr{}, err
	}

	switch selected {
	case MethodNoAuth:
		// nothing further before the request
	case MethodUserPass:
		if creds == nil {
			return Addr{}, ErrNoAcceptableMethod.Error()
		}
		if _, err = rw.Write(BuildAuth(creds.User, creds.Pass)); err != nil {
			return Addr{}, ErrShortRead.Error(err)
		}
		authReply := make([]byte, 2)
		if err = readExact(rw, authReply); err != nil {
			return Addr{}, err
		}
		ok, _, err := ParseAuthReply(authReply)
		if err != nil {
			return Addr{}, err
		}
		if !ok {
			return Addr{}, ErrAuthFailed.Error()
		}
	default:
		return Addr{}, ErrNoAcceptableMethod.Error()
	}

	if _, err = rw.Write(BuildRequest(CmdConnect, target)); err != nil {
		return Addr{}, ErrShortRead.Error(err)
	}

	head := make([]byte, 3)
	if err = readExact(rw, head); err != nil {
		return Addr{}, err
	}
	if head[0] != Version {
		return Addr{}, ErrBadVersion.Error()
	}
	rep := Reply(head[1])

	bound, err := ReadAddr(rw)
	if err != nil {
		return Addr{}, err
	}
	if rep != RepSucceeded {
		return bound, replyError(rep)
	}
	return bound, nil
}

func replyError(rep Reply) error {
	switch rep {
	case RepCommandNotSupported:
		return ErrUnsupportedCommand.Error()
	case RepAddrTypeNotSupported:
		return ErrUnsupportedAddrType.Error()
	default:
		return ErrRequestFailed.Error()
	}
}
