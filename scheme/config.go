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

// Package scheme's config.go is the one piece of this module that owns no
// runtime behavior of its own (§10.3): a plain, yaml-tagged struct an
// external caller decodes a file into, validated with go-playground's
// validator the way the host library validates its socket/server configs.
// Loading and watching the file is the caller's job, not this package's.
package scheme

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/anyks/awh/errors"
	"github.com/anyks/awh/transport"
)

// TLSConfig is the yaml-facing shape of a transport.TLSBuilder.
type TLSConfig struct {
	Enable     bool   `yaml:"enable"`
	CertFile   string `yaml:"cert_file" validate:"required_with=KeyFile"`
	KeyFile    string `yaml:"key_file" validate:"required_with=CertFile"`
	RootCAFile string `yaml:"root_ca_file"`
	MinVersion uint16 `yaml:"min_version"`
	MaxVersion uint16 `yaml:"max_version"`
}

// RetryConfig is the yaml-facing shape of the client pipeline's backoff
// (§4.7).
type RetryConfig struct {
	Limit int   `yaml:"limit" validate:"min=0"`
	Base  int64 `yaml:"base_ms" validate:"min=0"`
	Max   int64 `yaml:"max_ms" validate:"min=0"`
}

// IdleConfig is the yaml-facing shape of the client pipeline's keepalive
// Pinger.
type IdleConfig struct {
	PingIntervalMS int64 `yaml:"ping_interval_ms" validate:"min=0"`
	ReadTimeoutMS  int64 `yaml:"read_timeout_ms" validate:"min=0"`
}

// ClientConfig describes one outbound scheme (§4.7's client pipeline).
type ClientConfig struct {
	Target     string      `yaml:"target" validate:"required,url"`
	ProxyURL   string      `yaml:"proxy_url" validate:"omitempty,url"`
	ProxyType  string      `yaml:"proxy_type" validate:"omitempty,oneof=http socks5"`
	AuthScheme string      `yaml:"auth_scheme" validate:"omitempty,oneof=none basic digest"`
	AuthUser   string      `yaml:"auth_user"`
	AuthPass   string      `yaml:"auth_pass"`
	Retry      RetryConfig `yaml:"retry"`
	Idle       IdleConfig  `yaml:"idle"`
	TLS        TLSConfig   `yaml:"tls"`
}

// ServerConfig describes one listening scheme (§4.7's accept loop and §12's
// supplemented proxy-mode relay).
type ServerConfig struct {
	Listen         string    `yaml:"listen" validate:"required,hostname_port"`
	MaxConnections int64     `yaml:"max_connections" validate:"required,min=1"`
	ProxyMode      bool      `yaml:"proxy_mode"`
	BasicRealm     string    `yaml:"basic_realm"`
	TLS            TLSConfig `yaml:"tls"`
}

// Config is the top-level document an external caller loads from a file
// (spec.md §1 places owning that file/watcher out of scope); exactly one of
// Client or Server is normally set per scheme instance.
type Config struct {
	Client *ClientConfig `yaml:"client" validate:"required_without=Server"`
	Server *ServerConfig `yaml:"server" validate:"required_without=Client"`
}

// LoadConfig decodes a yaml document from r. It does not validate: call
// Validate on the result once any environment-specific defaults have been
// applied.
func LoadConfig(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return nil, ErrConfigDecode.Error(err)
	}
	return &c, nil
}

// Build assembles a transport.TLSBuilder from t, or nil if t disables TLS.
// An enabled TLSConfig with no cert pair still yields a builder (a
// client-side TLSConfig with only Enable set validates the origin's
// certificate via RootCAFile).
func (t TLSConfig) Build() (*transport.TLSBuilder, error) {
	if !t.Enable {
		return nil, nil
	}
	b := transport.NewTLSBuilder()
	if t.CertFile != "" {
		if err := b.AddCertPair(t.CertFile, t.KeyFile); err != nil {
			return nil, err
		}
	}
	if t.RootCAFile != "" {
		if err := b.AddRootCA(t.RootCAFile); err != nil {
			return nil, err
		}
	}
	if t.MinVersion != 0 || t.MaxVersion != 0 {
		b.SetVersions(t.MinVersion, t.MaxVersion)
	}
	return b, nil
}

// Validate runs struct-tag validation over c, mirroring the host library's
// ServerConfig.Validate pattern: every constraint violation becomes one
// parent error on the returned ErrConfigValidation.
func (c *Config) Validate() errors.Error {
	val := validator.New()
	err := val.Struct(c)
	if err == nil {
		return nil
	}

	if e, ok := err.(*validator.InvalidValidationError); ok {
		return ErrConfigValidation.Error(e)
	}

	out := ErrConfigValidation.Error()
	for _, e := range err.(validator.ValidationErrors) {
		out.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.Namespace(), e.ActualTag()))
	}
	return out
}
