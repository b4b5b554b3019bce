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

// Package proxmox implements the node-scoped Proxmox VE REST API client.
//
// A Client is bound to exactly one configured endpoint: a base URL, an API
// token, and a node identifier. All paths are relative to
// <url>/api2/json/nodes/<node>/ and every response is unwrapped from the
// PVE {"data": ...} envelope.
//
// Authentication uses the API token header:
//
//	Authorization: PVEAPIToken=user@realm!tokenid=secret
//
// TLS certificate verification is disabled unless the endpoint opts in via
// verify_tls; self-signed certificates are the norm on PVE nodes.
//
// Request failures are returned as TRANSPORT structured errors. Guest agent
// queries are the one exception: an unreachable or silent agent yields
// ErrAgentUnavailable so that callers can treat the hostname as unknown
// rather than the request as failed.
//
// Outbound requests are paced by a client-side rate limiter so that a tight
// polling or discovery loop cannot hammer the node.
package proxmox
