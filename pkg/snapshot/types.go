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

package snapshot

import (
	"time"

	"github.com/NVIDIA/presnap/pkg/proxmox"
)

// NamePrefix is the fixed prefix of every pre-deployment snapshot name.
const NamePrefix = "pre_deploy_"

// nameTimestampLayout renders the one-second-resolution snapshot name
// suffix (day, month, year, hour, minute, second).
const nameTimestampLayout = "02_01_2006_15_04_05"

// Guest identifies the resolved target of a snapshot run.
type Guest struct {
	// Kind of the guest.
	Kind proxmox.GuestKind `json:"kind" yaml:"kind"`
	// VMID is the numeric guest identifier.
	VMID int `json:"vmid" yaml:"vmid"`
	// Hostname the guest was resolved by.
	Hostname string `json:"hostname" yaml:"hostname"`
	// Endpoint names the hypervisor endpoint the guest lives on.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Result records one completed or attempted snapshot run.
type Result struct {
	// RunID correlates log records of one orchestration run.
	RunID string `json:"run_id" yaml:"run_id"`
	// Guest that was snapshotted.
	Guest Guest `json:"guest" yaml:"guest"`
	// SnapshotName is the generated snapshot name.
	SnapshotName string `json:"snapshot_name,omitempty" yaml:"snapshot_name,omitempty"`
	// UPID is the asynchronous task identifier returned by the hypervisor.
	UPID string `json:"upid,omitempty" yaml:"upid,omitempty"`
	// MountPoints is the number of mount points quiesced around the snapshot.
	MountPoints int `json:"mount_points" yaml:"mount_points"`
	// RestoreFailures counts mount points that could not be reattached.
	RestoreFailures int `json:"restore_failures" yaml:"restore_failures"`
	// StartedAt is the run start time.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	// Duration is the total run duration.
	Duration time.Duration `json:"duration" yaml:"duration"`
}
