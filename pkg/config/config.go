// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/NVIDIA/presnap/pkg/errors"
)

const (
	// DefaultPath is the configuration file location used when neither the
	// --config flag nor PROXMOX_CONFIG_PATH is set.
	DefaultPath = "/config/proxmox.json"

	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath = "PROXMOX_CONFIG_PATH"
)

// Endpoint describes one hypervisor cluster reachable via its REST API.
type Endpoint struct {
	// URL is the API base URL, e.g. https://pve1.example.com:8006.
	URL string `json:"url" yaml:"url"`

	// APIToken is the full PVE API token (user@realm!tokenid=secret).
	APIToken string `json:"api_token" yaml:"api_token"`

	// Node is the cluster node identifier the API paths are scoped to.
	Node string `json:"node" yaml:"node"`

	// VerifyTLS enables certificate verification for this endpoint.
	// Off by default: self-signed certificates are the norm on PVE nodes.
	VerifyTLS bool `json:"verify_tls" yaml:"verify_tls"`
}

// Config is the parsed endpoint configuration document.
type Config struct {
	// Hosts lists the configured hypervisor endpoints in scan order.
	Hosts []Endpoint `json:"proxmox_hosts" yaml:"proxmox_hosts"`

	// Images optionally maps image references to their locally recorded
	// digests for the advisory freshness check.
	Images map[string]string `json:"images,omitempty" yaml:"images,omitempty"`
}

// Path returns the effective configuration file path: the explicit value if
// non-empty, otherwise PROXMOX_CONFIG_PATH, otherwise DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads, parses, and validates the configuration file at path.
// YAML and JSON are both accepted. All returned errors carry the
// CONFIG_INVALID code.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfig,
			fmt.Sprintf("config file not found: %s", path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid config file syntax", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that at least one endpoint is configured and that every
// endpoint carries the required url, api_token, and node values.
func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return apperrors.New(apperrors.ErrCodeConfig, "'proxmox_hosts' must be a non-empty list")
	}
	for i, h := range c.Hosts {
		var missing []string
		if strings.TrimSpace(h.URL) == "" {
			missing = append(missing, "url")
		}
		if strings.TrimSpace(h.APIToken) == "" {
			missing = append(missing, "api_token")
		}
		if strings.TrimSpace(h.Node) == "" {
			missing = append(missing, "node")
		}
		if len(missing) > 0 {
			return apperrors.Newf(apperrors.ErrCodeConfig,
				"host %d missing required key(s): %s", i, strings.Join(missing, ", "))
		}
	}
	return nil
}
