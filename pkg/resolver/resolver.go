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

package resolver

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/NVIDIA/presnap/pkg/errors"
	"github.com/NVIDIA/presnap/pkg/proxmox"
)

// API is the read-only surface of the hypervisor client that resolution
// needs. *proxmox.Client satisfies it.
type API interface {
	ListGuests(ctx context.Context, kind proxmox.GuestKind) ([]proxmox.GuestSummary, error)
	ContainerConfig(ctx context.Context, vmid int) (proxmox.ContainerConfig, error)
	AgentHostname(ctx context.Context, vmid int) (string, error)
}

// Endpoint pairs one configured hypervisor endpoint with its client.
type Endpoint struct {
	// Name identifies the endpoint in logs, typically its URL.
	Name string
	// API is the endpoint's client.
	API API
}

// Match is a resolved guest bound to the endpoint it was found on.
type Match struct {
	// Endpoint the guest was found on.
	Endpoint Endpoint
	// Kind of the matched guest.
	Kind proxmox.GuestKind
	// VMID of the matched guest.
	VMID int
	// Hostname that matched.
	Hostname string
}

// Resolve scans the endpoints in order for a guest whose hostname equals
// targetHostname and returns the first match. Containers are scanned before
// virtual machines within each endpoint, in listing order. Individual
// endpoint or guest query failures are logged and skipped; an exhausted
// scan returns a NOT_FOUND error.
func Resolve(ctx context.Context, endpoints []Endpoint, targetHostname string) (*Match, error) {
	for _, ep := range endpoints {
		slog.Info("searching hypervisor endpoint", "endpoint", ep.Name)

		if m := scanContainers(ctx, ep, targetHostname); m != nil {
			return m, nil
		}
		if m := scanVMs(ctx, ep, targetHostname); m != nil {
			return m, nil
		}
	}

	return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound,
		"hostname not found in any configured hypervisor endpoint",
		map[string]any{"hostname": targetHostname})
}

func scanContainers(ctx context.Context, ep Endpoint, target string) *Match {
	guests, err := ep.API.ListGuests(ctx, proxmox.GuestContainer)
	if err != nil {
		slog.Warn("failed to list containers, skipping endpoint guests",
			"endpoint", ep.Name, "error", err)
		return nil
	}

	for _, g := range guests {
		if g.VMID == 0 {
			continue
		}
		cfg, err := ep.API.ContainerConfig(ctx, int(g.VMID))
		if err != nil {
			slog.Warn("failed to read container config, skipping guest",
				"endpoint", ep.Name, "vmid", int(g.VMID), "error", err)
			continue
		}
		if cfg.Hostname() == target {
			slog.Info("found container guest",
				"endpoint", ep.Name, "vmid", int(g.VMID), "hostname", target)
			return &Match{Endpoint: ep, Kind: proxmox.GuestContainer, VMID: int(g.VMID), Hostname: target}
		}
	}
	return nil
}

func scanVMs(ctx context.Context, ep Endpoint, target string) *Match {
	guests, err := ep.API.ListGuests(ctx, proxmox.GuestVM)
	if err != nil {
		slog.Warn("failed to list virtual machines, skipping endpoint guests",
			"endpoint", ep.Name, "error", err)
		return nil
	}

	for _, g := range guests {
		if g.VMID == 0 {
			continue
		}
		hostname, err := ep.API.AgentHostname(ctx, int(g.VMID))
		if err != nil {
			// Hostname unknown is a distinct outcome from a mismatch: the
			// guest may well be the target, we just cannot tell.
			if errors.Is(err, proxmox.ErrAgentUnavailable) {
				slog.Debug("guest agent hostname unknown, skipping guest",
					"endpoint", ep.Name, "vmid", int(g.VMID))
			} else {
				slog.Warn("failed to query guest agent, skipping guest",
					"endpoint", ep.Name, "vmid", int(g.VMID), "error", err)
			}
			continue
		}
		if hostname == target {
			slog.Info("found virtual machine guest",
				"endpoint", ep.Name, "vmid", int(g.VMID), "hostname", target)
			return &Match{Endpoint: ep, Kind: proxmox.GuestVM, VMID: int(g.VMID), Hostname: target}
		}
	}
	return nil
}
