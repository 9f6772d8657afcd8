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

package batch

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/walteh/netmove/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// Entry pairs a source folder with its outcome.
type Entry struct {
	Source  string
	Outcome transfer.Outcome
}

// 📋 Summary holds one entry per source folder, in input order
type Summary struct {
	Entries  []Entry
	Duration time.Duration
}

// Counts tallies outcomes by kind.
type Counts struct {
	Success int
	Skipped int
	Failed  int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d succeeded, %d skipped, %d failed", c.Success, c.Skipped, c.Failed)
}

func (s *Summary) Counts() Counts {
	var c Counts
	for _, e := range s.Entries {
		switch e.Outcome.Kind {
		case transfer.Success:
			c.Success++
		case transfer.Skipped:
			c.Skipped++
		default:
			c.Failed++
		}
	}
	return c
}

// HasFailures reports whether any folder ended Failed.
func (s *Summary) HasFailures() bool {
	return s.Counts().Failed > 0
}

// Lookup returns the outcome of the first entry for source.
func (s *Summary) Lookup(source string) (transfer.Outcome, bool) {
	for _, e := range s.Entries {
		if e.Source == source {
			return e.Outcome, true
		}
	}
	return transfer.Outcome{}, false
}

// Totals adds up the stats of every folder.
func (s *Summary) Totals() transfer.Stats {
	var t transfer.Stats
	for _, e := range s.Entries {
		st := e.Outcome.Stats
		t.Moved += st.Moved
		t.Duplicates += st.Duplicates
		t.Conflicts += st.Conflicts
		t.Excluded += st.Excluded
		t.Directories += st.Directories
		t.Bytes += st.Bytes
	}
	return t
}

// 📊 Table renders the summary as a text table
func (s *Summary) Table() (string, error) {
	data := pterm.TableData{{"Folder", "Result", "Via", "Moved", "Duplicates", "Conflicts", "Detail"}}
	for _, e := range s.Entries {
		out := e.Outcome
		via := "-"
		if out.Kind != transfer.Skipped {
			via = out.Via.String()
		}
		detail := out.Reason
		if out.Kind == transfer.Success {
			detail = out.Stats.String()
		}
		data = append(data, []string{
			e.Source,
			out.Kind.String(),
			via,
			strconv.Itoa(out.Stats.Moved),
			strconv.Itoa(out.Stats.Duplicates),
			strconv.Itoa(out.Stats.Conflicts),
			detail,
		})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", errors.Errorf("rendering summary table: %w", err)
	}
	return rendered, nil
}
