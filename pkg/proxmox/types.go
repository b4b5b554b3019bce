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

package proxmox

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// GuestKind identifies the managed guest type. The values double as the
// API path segments for the respective guest resources.
type GuestKind string

const (
	// GuestContainer is an LXC container guest.
	GuestContainer GuestKind = "lxc"
	// GuestVM is a QEMU virtual machine guest.
	GuestVM GuestKind = "qemu"
)

// Valid reports whether the kind is one of the supported guest types.
func (k GuestKind) Valid() bool {
	return k == GuestContainer || k == GuestVM
}

// VMID is a numeric guest identifier. PVE versions disagree on whether the
// list endpoints encode it as a JSON number or a string, so both decode.
type VMID int

// UnmarshalJSON implements json.Unmarshaler.
func (v *VMID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid vmid %s: %w", string(data), err)
	}
	*v = VMID(n)
	return nil
}

// GuestSummary is one entry of a guest list response.
type GuestSummary struct {
	VMID   VMID   `json:"vmid"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// mountPointKey matches container mount-point configuration keys (mp0..mpN).
var mountPointKey = regexp.MustCompile(`^mp(\d+)$`)

// MountPoint is one container mount-point entry: the configuration key and
// the exact raw value as returned by the API. The value is never
// reinterpreted so that restoration is a byte-faithful round trip.
type MountPoint struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ContainerConfig holds a container's configuration entries. String values
// are stored unquoted; all other value types keep their raw JSON text.
type ContainerConfig map[string]string

// UnmarshalJSON implements json.Unmarshaler, preserving non-string values
// verbatim as their raw JSON text.
func (c *ContainerConfig) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ContainerConfig, len(raw))
	for k, v := range raw {
		var s string
		if len(v) > 0 && v[0] == '"' {
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("invalid config value for %s: %w", k, err)
			}
		} else {
			s = string(v)
		}
		out[k] = s
	}
	*c = out
	return nil
}

// Hostname returns the container's configured hostname, if any.
func (c ContainerConfig) Hostname() string {
	return c["hostname"]
}

// MountPoints returns the configuration entries that bind external storage,
// ordered by mount-point index.
func (c ContainerConfig) MountPoints() []MountPoint {
	type indexed struct {
		mp  MountPoint
		idx int
	}
	var found []indexed
	for k, v := range c {
		m := mountPointKey.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, indexed{mp: MountPoint{Key: k, Value: v}, idx: idx})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].idx < found[j].idx })

	out := make([]MountPoint, 0, len(found))
	for _, f := range found {
		out = append(out, f.mp)
	}
	return out
}

// SnapshotRequest describes a point-in-time snapshot to create.
type SnapshotRequest struct {
	// Name is the snapshot name (PVE snapname).
	Name string
	// Description is the human-readable snapshot description.
	Description string
}

// Task status and exit values reported by the tasks endpoint.
const (
	// TaskStatusStopped is the terminal task status.
	TaskStatusStopped = "stopped"
	// TaskExitOK is the exit status of a successful task.
	TaskExitOK = "OK"
)

// TaskStatus is the polled state of an asynchronous hypervisor task.
type TaskStatus struct {
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus"`
}

// Stopped reports whether the task reached its terminal state.
func (t TaskStatus) Stopped() bool {
	return t.Status == TaskStatusStopped
}

// Succeeded reports whether the task stopped with an OK exit status.
func (t TaskStatus) Succeeded() bool {
	return t.Stopped() && t.ExitStatus == TaskExitOK
}
