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

// Package logx is the structured-logging seam shared by every component of
// the framework. It wraps logrus so the reactor, brokers and protocol state
// machines can attach stable fields (broker_id, scheme_id, phase, ...)
// without each package depending on logrus directly.
package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a shorthand for a set of structured log fields.
type Fields = logrus.Fields

// Logger is the logging surface passed into reactors, brokers and schemes.
// A nil Logger is valid everywhere in this module and is equivalent to a
// discard logger — components must never panic on a nil Logger.
type Logger interface {
	WithFields(f Fields) Logger
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
}

type wrap struct {
	e *logrus.Entry
}

// New returns a Logger writing to w (os.Stderr if w is nil) at the given
// level. level accepts any logrus.Level name ("debug", "info", "warn", ...).
func New(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return &wrap{e: logrus.NewEntry(l)}
}

// Discard returns a Logger that drops every entry. Useful as a safe default
// when a Scheme is built without an explicit logger.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &wrap{e: logrus.NewEntry(l)}
}

func (w *wrap) WithFields(f Fields) Logger {
	if w == nil || w.e == nil {
		return Discard()
	}
	return &wrap{e: w.e.WithFields(f)}
}

func (w *wrap) Debug(args ...interface{}) {
	if w == nil || w.e == nil {
		return
	}
	w.e.Debug(args...)
}

func (w *wrap) Info(args ...interface{}) {
	if w == nil || w.e == nil {
		return
	}
	w.e.Info(args...)
}

func (w *wrap) Warn(args ...interface{}) {
	if w == nil || w.e == nil {
		return
	}
	w.e.Warn(args...)
}

func (w *wrap) Error(args ...interface{}) {
	if w == nil || w.e == nil {
		return
	}
	w.e.Error(args...)
}
