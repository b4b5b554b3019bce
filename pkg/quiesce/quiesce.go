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

package quiesce

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/presnap/pkg/proxmox"
)

// API is the container configuration surface the quiesce protocol needs.
// *proxmox.Client satisfies it.
type API interface {
	ContainerConfig(ctx context.Context, vmid int) (proxmox.ContainerConfig, error)
	DeleteContainerConfigKey(ctx context.Context, vmid int, key string) error
	SetContainerConfigKey(ctx context.Context, vmid int, key, value string) error
}

// RestoreResult is the outcome of reattaching one mount point.
type RestoreResult struct {
	MountPoint proxmox.MountPoint
	Err        error
}

// State is the guard returned by Detach. It owns the removed mount-point
// entries for the duration of one orchestration call and must be restored
// exactly once before that call returns.
type State struct {
	api      API
	vmid     int
	mounts   []proxmox.MountPoint
	restored bool
}

// Detach captures the container's mount-point entries verbatim and removes
// them from its configuration, one update call per entry, in discovered
// order. A container without mount points yields an empty State and no
// configuration changes.
func Detach(ctx context.Context, api API, vmid int) (*State, error) {
	cfg, err := api.ContainerConfig(ctx, vmid)
	if err != nil {
		return nil, err
	}

	mounts := cfg.MountPoints()
	st := &State{api: api, vmid: vmid, mounts: mounts}
	if len(mounts) == 0 {
		return st, nil
	}

	slog.Info("temporarily removing mount points", "vmid", vmid, "count", len(mounts))
	for _, mp := range mounts {
		slog.Info("removing mount point", "vmid", vmid, "key", mp.Key)
		if err := api.DeleteContainerConfigKey(ctx, vmid, mp.Key); err != nil {
			// Entries already removed stay captured in the state so the
			// caller's deferred restore reattaches them.
			return st, err
		}
	}
	return st, nil
}

// Empty reports whether the guard holds no mount points.
func (s *State) Empty() bool {
	return s == nil || len(s.mounts) == 0
}

// MountPoints returns the captured entries in removal order.
func (s *State) MountPoints() []proxmox.MountPoint {
	if s == nil {
		return nil
	}
	return s.mounts
}

// Restore writes every captured mount point back to the container's
// configuration and releases the guard. Each write is an independent
// idempotent upsert: one failure is reported and logged but does not stop
// the remaining entries. Calling Restore on an empty or already-restored
// state is a no-op.
func (s *State) Restore(ctx context.Context) []RestoreResult {
	if s.Empty() || s.restored {
		return nil
	}
	s.restored = true

	slog.Info("restoring mount points", "vmid", s.vmid, "count", len(s.mounts))
	results := make([]RestoreResult, 0, len(s.mounts))
	for _, mp := range s.mounts {
		slog.Info("restoring mount point", "vmid", s.vmid, "key", mp.Key)
		err := s.api.SetContainerConfigKey(ctx, s.vmid, mp.Key, mp.Value)
		if err != nil {
			slog.Warn("failed to restore mount point",
				"vmid", s.vmid, "key", mp.Key, "error", err)
		}
		results = append(results, RestoreResult{MountPoint: mp, Err: err})
	}
	return results
}
