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

// Package urlx is the endpoint address type shared by client schemes and
// proxy configuration (spec.md §3). The actual URL *grammar* is parsed by
// the standard library's net/url (an out-of-scope external collaborator
// per spec.md §1); this package adds the ordered query params and
// schema-driven default port spec.md requires on top of it.
package urlx

import (
	"net/url"
	"strconv"
	"strings"
)

// Param is one ordered query parameter.
type Param struct {
	Key   string
	Value string
}

// URL is the endpoint address spec.md §3 describes: schema, credentials,
// host/ip/port, path, an ordered param list and a fragment.
type URL struct {
	Schema   string
	User     string
	Pass     string
	Host     string
	IP       string
	Port     int
	Path     string
	Params   []Param
	Fragment string
}

var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
}

// DefaultPort returns the default port for schema, or 0 if unknown.
func DefaultPort(schema string) int {
	return defaultPorts[strings.ToLower(schema)]
}

// Parse builds a URL from raw, defaulting Port to DefaultPort(Schema)
// when the raw URL carries no explicit port.
func Parse(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL.Error(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidURL.Error()
	}

	out := &URL{
		Schema:   strings.ToLower(u.Scheme),
		Host:     u.Hostname(),
		Path:     u.Path,
		Fragment: u.Fragment,
	}

	if u.User != nil {
		out.User = u.User.Username()
		out.Pass, _ = u.User.Password()
	}

	if p := u.Port(); p != "" {
		n, perr := strconv.Atoi(p)
		if perr != nil {
			return nil, ErrInvalidURL.Error(perr)
		}
		out.Port = n
	} else {
		out.Port = DefaultPort(out.Schema)
	}

	out.Params = parseOrderedQuery(u.RawQuery)

	return out, nil
}

// parseOrderedQuery splits a raw query string into ordered key/value
// pairs, preserving the order they appeared on the wire (net/url.Values
// is a map and loses this).
func parseOrderedQuery(raw string) []Param {
	if raw == "" {
		return nil
	}

	var params []Param
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		dk, _ := url.QueryUnescape(k)
		dv, _ := url.QueryUnescape(v)
		params = append(params, Param{Key: dk, Value: dv})
	}
	return params
}

// Get returns the first value for key, and whether it was present.
func (u *URL) Get(key string) (string, bool) {
	for _, p := range u.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Set appends or overwrites the first occurrence of key.
func (u *URL) Set(key, value string) {
	for i := range u.Params {
		if u.Params[i].Key == key {
			u.Params[i].Value = value
			return
		}
	}
	u.Params = append(u.Params, Param{Key: key, Value: value})
}

// HostPort renders "host:port" for dialing.
func (u *URL) HostPort() string {
	return u.Host + ":" + strconv.Itoa(u.Port)
}

// String renders the URL back to its wire form, query params in their
// original order.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(u.Schema)
	b.WriteString("://")
	if u.User != "" {
		b.WriteString(u.User)
		if u.Pass != "" {
			b.WriteString(":")
			b.WriteString(u.Pass)
		}
		b.WriteString("@")
	}
	b.WriteString(u.Host)
	if u.Port != 0 && u.Port != DefaultPort(u.Schema) {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(u.Port))
	}
	b.WriteString(u.Path)
	if len(u.Params) > 0 {
		b.WriteString("?")
		for i, p := range u.Params {
			if i > 0 {
				b.WriteString("&")
			}
			b.WriteString(url.QueryEscape(p.Key))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(p.Value))
		}
	}
	if u.Fragment != "" {
		b.WriteString("#")
		b.WriteString(u.Fragment)
	}
	return b.String()
}
