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
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/presnap/pkg/config"
	apperrors "github.com/NVIDIA/presnap/pkg/errors"
)

// newTestClient points a Client at an httptest server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.Endpoint{
		URL:      srv.URL,
		APIToken: "deploy@pam!presnap=secret",
		Node:     "pve1",
	})
}

func TestRequestShape(t *testing.T) {
	var gotPath, gotAuth, gotContentType, gotBody string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm.Encode()
		fmt.Fprint(w, `{"data":"UPID:pve1:0001:vzsnapshot:101:root@pam:"}`)
	}))

	upid, err := c.CreateSnapshot(t.Context(), GuestContainer, 101, SnapshotRequest{
		Name:        "pre_deploy_01_02_2026_10_11_12",
		Description: "Pre-deployment of stack web",
	})
	require.NoError(t, err)

	assert.Equal(t, "UPID:pve1:0001:vzsnapshot:101:root@pam:", upid)
	assert.Equal(t, "/api2/json/nodes/pve1/lxc/101/snapshot", gotPath)
	assert.Equal(t, "PVEAPIToken=deploy@pam!presnap=secret", gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Contains(t, gotBody, "snapname=pre_deploy_01_02_2026_10_11_12")
	assert.NotContains(t, gotBody, "vmstate", "container snapshots must not send vmstate")
}

func TestCreateSnapshotVMDisablesMemoryState(t *testing.T) {
	var gotVMState string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotVMState = r.PostForm.Get("vmstate")
		fmt.Fprint(w, `{"data":"UPID:pve1:0002:qmsnapshot:205:root@pam:"}`)
	}))

	_, err := c.CreateSnapshot(t.Context(), GuestVM, 205, SnapshotRequest{Name: "s", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "0", gotVMState)
}

func TestCreateSnapshotMissingUPID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":null}`)
	}))

	_, err := c.CreateSnapshot(t.Context(), GuestContainer, 101, SnapshotRequest{Name: "s"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransport))
	assert.Contains(t, err.Error(), "UPID")
}

func TestListGuests(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api2/json/nodes/pve1/lxc":
			// string vmid, as some PVE versions encode it
			fmt.Fprint(w, `{"data":[{"vmid":"101","name":"web01","status":"running"},{"vmid":102,"name":"db01","status":"running"}]}`)
		case "/api2/json/nodes/pve1/qemu":
			fmt.Fprint(w, `{"data":[{"vmid":205,"name":"vm05","status":"running"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))

	lxc, err := c.ListGuests(t.Context(), GuestContainer)
	require.NoError(t, err)
	require.Len(t, lxc, 2)
	assert.Equal(t, VMID(101), lxc[0].VMID)
	assert.Equal(t, VMID(102), lxc[1].VMID)

	qemu, err := c.ListGuests(t.Context(), GuestVM)
	require.NoError(t, err)
	require.Len(t, qemu, 1)
	assert.Equal(t, VMID(205), qemu[0].VMID)

	_, err = c.ListGuests(t.Context(), GuestKind("vz"))
	require.Error(t, err)
}

func TestContainerConfig(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api2/json/nodes/pve1/lxc/101/config", r.URL.Path)
		fmt.Fprint(w, `{"data":{"hostname":"web01","memory":2048,"mp0":"local-lvm:vm-101-disk-1,mp=/data,size=32G"}}`)
	}))

	cfg, err := c.ContainerConfig(t.Context(), 101)
	require.NoError(t, err)
	assert.Equal(t, "web01", cfg.Hostname())
	assert.Equal(t, "local-lvm:vm-101-disk-1,mp=/data,size=32G", cfg["mp0"])
}

func TestAgentHostname(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api2/json/nodes/pve1/qemu/205/agent/get-host-name", r.URL.Path)
			fmt.Fprint(w, `{"data":{"result":{"host-name":"vm05"}}}`)
		}))

		hostname, err := c.AgentHostname(t.Context(), 205)
		require.NoError(t, err)
		assert.Equal(t, "vm05", hostname)
	})

	t.Run("agent not running", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "QEMU guest agent is not running", http.StatusInternalServerError)
		}))

		_, err := c.AgentHostname(t.Context(), 205)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAgentUnavailable),
			"agent failure must map to ErrAgentUnavailable, got %v", err)
	})

	t.Run("empty hostname", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"data":{"result":{}}}`)
		}))

		_, err := c.AgentHostname(t.Context(), 205)
		assert.True(t, errors.Is(err, ErrAgentUnavailable))
	})
}

func TestConfigKeyMutation(t *testing.T) {
	var puts []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, r.ParseForm())
		puts = append(puts, r.PostForm.Encode())
		fmt.Fprint(w, `{"data":null}`)
	}))

	require.NoError(t, c.DeleteContainerConfigKey(t.Context(), 101, "mp0"))
	require.NoError(t, c.SetContainerConfigKey(t.Context(), 101, "mp0", "local-lvm:vm-101-disk-1,mp=/data,size=32G"))

	require.Len(t, puts, 2)
	assert.Equal(t, "delete=mp0", puts[0])
	assert.Equal(t, "mp0=local-lvm%3Avm-101-disk-1%2Cmp%3D%2Fdata%2Csize%3D32G", puts[1])
}

func TestTaskStatusRequest(t *testing.T) {
	upid := "UPID:pve1:0001:vzsnapshot:101:root@pam:"
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"status":"stopped","exitstatus":"OK"}}`)
	}))

	st, err := c.TaskStatus(t.Context(), upid)
	require.NoError(t, err)
	assert.True(t, st.Succeeded())
}

func TestTransportErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "authentication failure", http.StatusUnauthorized)
		}))

		_, err := c.ListGuests(t.Context(), GuestContainer)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransport))
		assert.Contains(t, err.Error(), "HTTP 401")
	})

	t.Run("invalid json", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html>not json</html>`)
		}))

		_, err := c.ListGuests(t.Context(), GuestContainer)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransport))
	})

	t.Run("connection refused", func(t *testing.T) {
		c := New(config.Endpoint{URL: "https://127.0.0.1:1", APIToken: "t", Node: "pve1"})
		_, err := c.ListGuests(t.Context(), GuestContainer)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransport))
	})
}
