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

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/netmove/pkg/retry"
	"gitlab.com/tozd/go/errors"
)

// Defaults applied before a file or flags are read.
const (
	DefaultMaxRetries = 10
	DefaultRetryDelay = 5.0 // seconds
	DefaultWorkers    = 1
)

// 📚 Config represents the complete configuration
type Config struct {
	Sources     []string `json:"sources" yaml:"sources"`
	Destination string   `json:"destination" yaml:"destination"`
	MaxRetries  int      `json:"max_retries" yaml:"max_retries"`
	RetryDelay  float64  `json:"retry_delay" yaml:"retry_delay"` // seconds
	Backoff     string   `json:"backoff" yaml:"backoff"`
	Workers     int      `json:"workers" yaml:"workers"`
	Exclude     []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	PruneEmpty  bool     `json:"prune_empty,omitempty" yaml:"prune_empty,omitempty"`
	MetricsFile string   `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`

	location string
}

// 🏭 Default returns a config holding every default value
func Default() *Config {
	return &Config{
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Backoff:    string(retry.BackoffFixed),
		Workers:    DefaultWorkers,
	}
}

// Location is the file the config was loaded from, empty for a default config.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate checks every value that is set. Missing sources or destination
// are reported by RequireTargets, since flags may still supply them.
func (cfg *Config) Validate() error {
	if cfg.MaxRetries < 0 {
		return errors.Errorf("max_retries must not be negative, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay < 0 {
		return errors.Errorf("retry_delay must not be negative, got %g", cfg.RetryDelay)
	}
	switch retry.Backoff(cfg.Backoff) {
	case retry.BackoffFixed, retry.BackoffLinear:
	default:
		return errors.Errorf("backoff must be %q or %q, got %q", retry.BackoffFixed, retry.BackoffLinear, cfg.Backoff)
	}
	if cfg.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	for _, p := range cfg.Exclude {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// RequireTargets reports a config that has nothing to move or nowhere to put it.
func (cfg *Config) RequireTargets() error {
	if len(cfg.Sources) == 0 {
		return errors.New("at least one source folder is required")
	}
	if strings.TrimSpace(cfg.Destination) == "" {
		return errors.New("destination is required")
	}
	return nil
}

// ⏱️ RetryPolicy converts the retry settings
func (cfg *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Duration(cfg.RetryDelay * float64(time.Second)),
		Backoff:    retry.Backoff(cfg.Backoff),
	}
}

// resolvePaths makes relative sources and destination relative to dir
func (cfg *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, s := range cfg.Sources {
		cfg.Sources[i] = abs(s)
	}
	cfg.Destination = abs(cfg.Destination)
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%d source(s) -> %s (retries=%d delay=%gs backoff=%s workers=%d)",
		len(cfg.Sources), cfg.Destination, cfg.MaxRetries, cfg.RetryDelay, cfg.Backoff, cfg.Workers)
}
