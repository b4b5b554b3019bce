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

package snapshot_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/presnap/pkg/config"
	"github.com/NVIDIA/presnap/pkg/proxmox"
	"github.com/NVIDIA/presnap/pkg/resolver"
	"github.com/NVIDIA/presnap/pkg/snapshot"
	"github.com/NVIDIA/presnap/pkg/task"
)

// fakeHypervisor is an in-memory stand-in for one hypervisor endpoint,
// speaking just enough of the REST API for a full snapshot run.
type fakeHypervisor struct {
	mu sync.Mutex

	node    string
	configs map[int]map[string]string

	failSnapshot bool
	snapshots    []string
}

func (h *fakeHypervisor) handler(t *testing.T) http.Handler {
	t.Helper()
	writeData := func(w http.ResponseWriter, v any) {
		if err := json.NewEncoder(w).Encode(map[string]any{"data": v}); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}

	mux := http.NewServeMux()
	prefix := "/api2/json/nodes/" + h.node

	mux.HandleFunc(prefix+"/lxc", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		guests := make([]map[string]any, 0, len(h.configs))
		for vmid := range h.configs {
			guests = append(guests, map[string]any{"vmid": vmid, "status": "running"})
		}
		writeData(w, guests)
	})

	mux.HandleFunc(prefix+"/qemu", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []any{})
	})

	mux.HandleFunc(prefix+"/lxc/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, prefix+"/lxc/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			http.Error(w, "unexpected path", http.StatusNotFound)
			return
		}
		var vmid int
		if _, err := fmt.Sscanf(parts[0], "%d", &vmid); err != nil {
			http.Error(w, "bad vmid", http.StatusBadRequest)
			return
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		cfg, ok := h.configs[vmid]
		if !ok {
			http.Error(w, "no such container", http.StatusNotFound)
			return
		}

		switch {
		case parts[1] == "config" && r.Method == http.MethodGet:
			writeData(w, cfg)
		case parts[1] == "config" && r.Method == http.MethodPut:
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			if key := r.Form.Get("delete"); key != "" {
				delete(cfg, key)
			} else {
				for key, vals := range r.Form {
					cfg[key] = vals[0]
				}
			}
			writeData(w, nil)
		case parts[1] == "snapshot" && r.Method == http.MethodPost:
			if h.failSnapshot {
				http.Error(w, "storage does not support snapshots", http.StatusInternalServerError)
				return
			}
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			h.snapshots = append(h.snapshots, r.Form.Get("snapname"))
			writeData(w, fmt.Sprintf("UPID:%s:000A:lxc%d:snapshot:root@pam:", h.node, vmid))
		default:
			http.Error(w, "not implemented", http.StatusNotImplemented)
		}
	})

	mux.HandleFunc(prefix+"/tasks/", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]string{"status": "stopped", "exitstatus": "OK"})
	})

	return mux
}

func runPipeline(t *testing.T, h *fakeHypervisor, hostname string) (*snapshot.Result, error) {
	t.Helper()
	srv := httptest.NewServer(h.handler(t))
	t.Cleanup(srv.Close)

	client := proxmox.New(config.Endpoint{
		URL:      srv.URL,
		APIToken: "deploy@pam!presnap=secret",
		Node:     h.node,
	})

	match, err := resolver.Resolve(t.Context(),
		[]resolver.Endpoint{{Name: srv.URL, API: client}}, hostname)
	if err != nil {
		return nil, err
	}

	waiter := task.NewWaiter(client, 5*time.Millisecond, time.Second)
	orch := snapshot.New(client, waiter, snapshot.WithStack("webapp"))

	return orch.Run(t.Context(), snapshot.Guest{
		Kind:     match.Kind,
		VMID:     match.VMID,
		Hostname: match.Hostname,
		Endpoint: match.Endpoint.Name,
	})
}

func TestEndToEndContainerWithoutMounts(t *testing.T) {
	h := &fakeHypervisor{
		node: "pve1",
		configs: map[int]map[string]string{
			101: {"hostname": "plain01", "rootfs": "local-lvm:vm-101-disk-0,size=8G"},
		},
	}

	res, err := runPipeline(t, h, "plain01")
	require.NoError(t, err)

	assert.Equal(t, 101, res.Guest.VMID)
	assert.Equal(t, proxmox.GuestContainer, res.Guest.Kind)
	assert.Equal(t, 0, res.MountPoints)
	assert.True(t, strings.HasPrefix(res.SnapshotName, snapshot.NamePrefix))
	require.Len(t, h.snapshots, 1)
	assert.Equal(t, res.SnapshotName, h.snapshots[0])
}

func TestEndToEndContainerWithMounts(t *testing.T) {
	mp0 := "local-lvm:vm-102-disk-1,mp=/data,size=32G"
	h := &fakeHypervisor{
		node: "pve1",
		configs: map[int]map[string]string{
			102: {"hostname": "data01", "mp0": mp0},
		},
	}

	res, err := runPipeline(t, h, "data01")
	require.NoError(t, err)

	assert.Equal(t, 1, res.MountPoints)
	assert.Equal(t, 0, res.RestoreFailures)

	// The mount point is back, byte for byte, after the run.
	assert.Equal(t, mp0, h.configs[102]["mp0"])
}

func TestEndToEndSnapshotFailureRestoresMounts(t *testing.T) {
	mp0 := "local-lvm:vm-102-disk-1,mp=/data,size=32G"
	h := &fakeHypervisor{
		node: "pve1",
		configs: map[int]map[string]string{
			102: {"hostname": "data01", "mp0": mp0},
		},
		failSnapshot: true,
	}

	res, err := runPipeline(t, h, "data01")
	require.Error(t, err)

	// Failure is reported, and the mount point was still reattached.
	assert.Equal(t, 1, res.MountPoints)
	assert.Equal(t, 0, res.RestoreFailures)
	assert.Equal(t, mp0, h.configs[102]["mp0"])
	assert.Empty(t, h.snapshots)
}

func TestEndToEndUnknownHostname(t *testing.T) {
	h := &fakeHypervisor{
		node:    "pve1",
		configs: map[int]map[string]string{101: {"hostname": "plain01"}},
	}

	_, err := runPipeline(t, h, "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}
