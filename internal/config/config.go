// Copyright 2024 The fsyncer Authors.
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

// Package config loads the optional YAML layer both binaries accept
// under --config, mirroring nishisan-dev/n-backup's yaml.v3
// config file layered beneath its CLI flags.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds the long-form names of every fsyncer-server flag (spec
// §6). A zero value for any field means "not set in the file"; flags
// passed on the command line always win over a value loaded here.
type Server struct {
	Path        string         `yaml:"path"`
	Port        int            `yaml:"port"`
	Consistent  bool           `yaml:"consistent"`
	DontCheck   bool           `yaml:"dont_check"`
	AckTimeout  string         `yaml:"ack_timeout"`
	WriteRateHz float64        `yaml:"write_rate_hz"`
	Snapshot    SnapshotConfig `yaml:"snapshot"`
	Debug       bool           `yaml:"debug"`
}

// SnapshotConfig configures the optional S3 upload that SnapshotCoordinator
// performs on CORK (SPEC_FULL.md's DOMAIN STACK table).
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
}

// Client holds the long-form names of every fsyncer-client flag.
type Client struct {
	Sync     bool   `yaml:"sync"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Dest     string `yaml:"dest"`
	CronSpec string `yaml:"digest_recheck_cron"`
	Debug    bool   `yaml:"debug"`
}

// LoadServer reads and parses a server config file. A missing path is not
// an error at this layer; callers pass "" to skip loading entirely.
func LoadServer(path string) (Server, error) {
	var c Server
	if path == "" {
		return c, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, err
	}
	return c, nil
}

// LoadClient reads and parses a client config file.
func LoadClient(path string) (Client, error) {
	var c Client
	if path == "" {
		return c, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, err
	}
	return c, nil
}
