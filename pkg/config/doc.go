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

/*
Package config loads and validates netmove settings.

	            +-------------+
	            |   Config    |
	            | (defaults)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |   HCL   | |   JSON    |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Reads a config file, picking the format from its extension
- Starts from Default() so a file only needs the values it changes
- Resolves relative paths against the file's directory
- Converts retry settings into a retry.Policy

🔍 Example:

	cfg, err := config.LoadConfig(ctx, "netmove.yaml")
	if err != nil {
		return err
	}
	cfg.Sources = append(cfg.Sources, flagSources...)
	if err := cfg.RequireTargets(); err != nil {
		return err
	}
	policy := cfg.RetryPolicy()

HCL files may reference environment variables:

	destination = "${env.HOME}/share"
	max_retries = 3
	exclude     = [".DS_Store", "cache/"]
*/
package config
