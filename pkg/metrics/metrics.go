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

// Package metrics counts transfer events with prometheus collectors and can
// export them as a node_exporter textfile.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/walteh/netmove/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📈 Collector is a status.Sink backed by its own prometheus registry
type Collector struct {
	registry *prometheus.Registry

	// FilesTotal counts file-level results by action
	FilesTotal *prometheus.CounterVec
	// BytesMoved counts bytes of files moved individually
	BytesMoved prometheus.Counter
	// RetriesTotal counts scheduled retries of transient failures
	RetriesTotal prometheus.Counter
	// FoldersTotal counts finished folders by outcome
	FoldersTotal *prometheus.CounterVec
	// LastBatch is the unix time the last batch completed
	LastBatch prometheus.Gauge
}

var _ status.Sink = (*Collector)(nil)

// 🏭 New creates a collector registered on a fresh registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netmove_files_total",
				Help: "Total number of files handled, by action",
			},
			[]string{"action"},
		),
		BytesMoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "netmove_bytes_moved_total",
			Help: "Total bytes moved file by file",
		}),
		RetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "netmove_retries_total",
			Help: "Total number of retried operations after a transient error",
		}),
		FoldersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netmove_folders_total",
				Help: "Total number of folders processed, by outcome",
			},
			[]string{"outcome"},
		),
		LastBatch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "netmove_last_batch_timestamp_seconds",
			Help: "Unix time the last batch completed",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// 📣 Emit counts ev
func (c *Collector) Emit(_ context.Context, ev status.Event) {
	switch ev.Phase {
	case status.PhaseFile:
		switch ev.Action {
		case status.ActionMoved:
			c.FilesTotal.WithLabelValues(string(ev.Action)).Inc()
			c.BytesMoved.Add(float64(ev.Bytes))
		case status.ActionDuplicate, status.ActionConflict, status.ActionExcluded, status.ActionFailed:
			c.FilesTotal.WithLabelValues(string(ev.Action)).Inc()
		}
	case status.PhaseRetry:
		c.RetriesTotal.Inc()
	case status.PhaseFolder:
		switch ev.Action {
		case status.ActionComplete, status.ActionFailed, status.ActionSkipped:
			c.FoldersTotal.WithLabelValues(string(ev.Action)).Inc()
		}
	case status.PhaseBatch:
		if ev.Action == status.ActionComplete {
			c.LastBatch.Set(float64(time.Now().Unix()))
		}
	}
}

// 💾 WriteTextfile writes every metric to path in the text exposition format
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
