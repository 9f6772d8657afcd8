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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// hclConfig mirrors Config with optional attributes so unset values keep
// their defaults
type hclConfig struct {
	Sources     []string `hcl:"sources,optional"`
	Destination *string  `hcl:"destination,optional"`
	MaxRetries  *int     `hcl:"max_retries,optional"`
	RetryDelay  *float64 `hcl:"retry_delay,optional"`
	Backoff     *string  `hcl:"backoff,optional"`
	Workers     *int     `hcl:"workers,optional"`
	Exclude     []string `hcl:"exclude,optional"`
	PruneEmpty  *bool    `hcl:"prune_empty,optional"`
	MetricsFile *string  `hcl:"metrics_file,optional"`
}

// loadHCL loads a configuration from HCL data. Expressions may read
// environment variables through the env object, e.g. "${env.HOME}/share".
func loadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := Default()
	if raw.Sources != nil {
		cfg.Sources = raw.Sources
	}
	if raw.Destination != nil {
		cfg.Destination = *raw.Destination
	}
	if raw.MaxRetries != nil {
		cfg.MaxRetries = *raw.MaxRetries
	}
	if raw.RetryDelay != nil {
		cfg.RetryDelay = *raw.RetryDelay
	}
	if raw.Backoff != nil {
		cfg.Backoff = *raw.Backoff
	}
	if raw.Workers != nil {
		cfg.Workers = *raw.Workers
	}
	if raw.Exclude != nil {
		cfg.Exclude = raw.Exclude
	}
	if raw.PruneEmpty != nil {
		cfg.PruneEmpty = *raw.PruneEmpty
	}
	if raw.MetricsFile != nil {
		cfg.MetricsFile = *raw.MetricsFile
	}
	return cfg, nil
}

func envObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vars)
}
