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

// Package cli implements the command-line interface for the presnap tool.
//
// # Commands
//
// snapshot - take a pre-deployment safety snapshot of the current guest:
//
//	presnap snapshot [--hostname NAME] [--check-images] [--output FILE] [--format json|yaml|table]
//
// Resolves which guest on which hypervisor endpoint carries the given
// hostname (default: this machine's hostname), quiesces bind-mount points
// for containers, takes the snapshot, waits for the asynchronous task, and
// restores the mount points. Intended to run as a pre-deploy hook; a
// non-zero exit blocks the deploy.
//
// check-images - compare recorded image digests against the registries:
//
//	presnap check-images [--output FILE] [--format json|yaml|table]
//
// Advisory only; reports fresh, stale, and unresolvable images from the
// optional images section of the endpoint configuration.
//
// # Global Flags
//
//	--config, -c     endpoint configuration path (default: /config/proxmox.json,
//	                 or the PROXMOX_CONFIG_PATH environment variable)
//	--log-level      log level: debug, info, warn, error (default: info)
//
// Progress is logged as structured JSON to stderr; the machine-readable
// result goes to stdout or the --output file.
package cli
