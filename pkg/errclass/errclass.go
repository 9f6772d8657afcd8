// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errclass sorts filesystem failures into transient and fatal.
//
// The decision is made from structured error values (errno / Win32 codes,
// net.Error timeouts, explicit markers) reached through errors.As/Is. Message
// text is never inspected; it varies with locale and mount type.
package errclass

import (
	"context"
	"net"
	"os"
	"syscall"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Class is the retry class of an error
type Class int

const (
	// Fatal errors are not expected to resolve by waiting: permission,
	// missing path, disk full, invalid name, and anything unrecognized.
	Fatal Class = iota
	// Transient errors come from a connectivity interruption and are retried.
	Transient
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	default:
		return "fatal"
	}
}

// 🔍 Classifier assigns a Class to an error
type Classifier interface {
	Classify(err error) Class
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) Class

func (f ClassifierFunc) Classify(err error) Class { return f(err) }

// Default classifies with Classify.
var Default Classifier = ClassifierFunc(Classify)

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// terminal is implemented by errors that must never be retried again, such as
// an exhausted retry budget.
type terminal interface {
	Terminal() bool
}

// MarkTransient wraps err so Classify reports Transient. FS implementations
// that talk to something other than the OS use it to flag connectivity loss.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// 🎯 Classify reports the retry class of err. A nil error is Fatal so callers
// never loop on it.
func Classify(err error) Class {
	if err == nil {
		return Fatal
	}

	// cancellation is a stop request, never a reason to retry
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}

	// a spent retry budget stays spent even when it wraps a transient error
	var term terminal
	if errors.As(err, &term) && term.Terminal() {
		return Fatal
	}

	var marked *transientError
	if errors.As(err, &marked) {
		return Transient
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return Transient
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if _, ok := transientErrnos[errno]; ok {
			return Transient
		}
		return Fatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}

	return Fatal
}
