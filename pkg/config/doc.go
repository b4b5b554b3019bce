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

// Package config loads and validates the presnap endpoint configuration.
//
// The configuration document lists one entry per hypervisor cluster, each
// with the API base URL, an API token, and the node identifier. YAML and
// JSON documents are both accepted:
//
//	proxmox_hosts:
//	  - url: https://pve1.example.com:8006
//	    api_token: deploy@pam!presnap=00000000-0000-0000-0000-000000000000
//	    node: pve1
//	  - url: https://pve2.example.com:8006
//	    api_token: deploy@pam!presnap=11111111-1111-1111-1111-111111111111
//	    node: pve2
//	    verify_tls: true
//	images:
//	  ghcr.io/acme/web:1.4: sha256:8f3c...
//
// The path defaults to /config/proxmox.json and can be overridden with the
// PROXMOX_CONFIG_PATH environment variable or the --config flag. A document
// with zero endpoints is rejected before any network activity begins.
package config
