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

// Package retry runs filesystem operations under a bounded retry budget.
//
// Only errors the classifier reports as transient are retried. Each call to
// Coordinator.Run starts from a fresh State, so a budget spent on one file is
// never charged to the next.
package retry

import (
	"context"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"github.com/walteh/netmove/pkg/errclass"
	"gitlab.com/tozd/go/errors"
)

// ⏱️ Backoff selects how the inter-attempt delay grows
type Backoff string

const (
	// BackoffFixed waits BaseDelay between every attempt.
	BackoffFixed Backoff = "fixed"
	// BackoffLinear waits BaseDelay multiplied by the retry number.
	BackoffLinear Backoff = "linear"
)

// ErrRetriesExhausted matches any RetriesExhaustedError via errors.Is.
var ErrRetriesExhausted = errors.Base("retries exhausted")

// 📋 Policy bounds a retried operation
type Policy struct {
	// MaxRetries is how many transient failures are retried. An operation that
	// keeps failing transiently is attempted MaxRetries+1 times.
	MaxRetries int
	BaseDelay  time.Duration
	Backoff    Backoff
}

// Delay returns the wait before retry number attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if p.Backoff == BackoffLinear && attempt > 0 {
		return p.BaseDelay * time.Duration(attempt)
	}
	return p.BaseDelay
}

// 📊 State is the per-operation retry bookkeeping
type State struct {
	Attempt    int
	MaxRetries int
	BaseDelay  time.Duration
}

// RetriesExhaustedError is returned once a transient failure outlives the budget.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

func (e *RetriesExhaustedError) Is(target error) bool { return target == ErrRetriesExhausted }

// Terminal marks the error as final for errclass.Classify, whatever it wraps.
func (e *RetriesExhaustedError) Terminal() bool { return true }

// Func is a retried operation.
type Func func(ctx context.Context) error

// NotifyFunc is called before sleeping ahead of a retry.
type NotifyFunc func(ctx context.Context, st State, delay time.Duration, err error)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClassifier replaces errclass.Default.
func WithClassifier(c errclass.Classifier) Option {
	return func(co *Coordinator) { co.classifier = c }
}

// WithNotify registers a hook invoked for every scheduled retry.
func WithNotify(fn NotifyFunc) Option {
	return func(co *Coordinator) { co.notify = fn }
}

// 🔁 Coordinator wraps operations in bounded retry-with-delay
type Coordinator struct {
	policy     Policy
	classifier errclass.Classifier
	notify     NotifyFunc
}

// 🏭 New creates a Coordinator for policy
func New(policy Policy, opts ...Option) *Coordinator {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.Backoff == "" {
		policy.Backoff = BackoffFixed
	}
	c := &Coordinator{
		policy:     policy,
		classifier: errclass.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the coordinator's policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// 🏃 Run executes op until it succeeds, fails fatally, or exhausts the budget.
//
// Fatal errors are returned unchanged after a single attempt. Transient errors
// beyond the budget come back as *RetriesExhaustedError wrapping the last one.
// A cancelled ctx stops the loop before the next attempt or during a sleep.
func (c *Coordinator) Run(ctx context.Context, op Func) error {
	st := State{
		MaxRetries: c.policy.MaxRetries,
		BaseDelay:  c.policy.BaseDelay,
	}

	var (
		lastErr   error
		exhausted bool
	)

	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		st.Attempt++
		if st.Attempt > st.MaxRetries {
			exhausted = true
			return 0, true
		}
		delay := c.policy.Delay(st.Attempt)
		// a cancelled run stops in the sleep, so no retry is announced
		if c.notify != nil && ctx.Err() == nil {
			c.notify(ctx, st, delay, lastErr)
		}
		return delay, false
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if c.classifier.Classify(err) == errclass.Transient {
			lastErr = err
			return goretry.RetryableError(err)
		}
		return err
	})

	if exhausted {
		return &RetriesExhaustedError{Attempts: st.Attempt, Err: lastErr}
	}
	return err
}
