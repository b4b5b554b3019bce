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

package task

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/NVIDIA/presnap/pkg/errors"
	"github.com/NVIDIA/presnap/pkg/proxmox"
)

// scriptedAPI returns a fixed sequence of statuses, then repeats the last.
type scriptedAPI struct {
	statuses []proxmox.TaskStatus
	err      error
	calls    int
}

func (s *scriptedAPI) TaskStatus(_ context.Context, _ string) (proxmox.TaskStatus, error) {
	s.calls++
	if s.err != nil {
		return proxmox.TaskStatus{}, s.err
	}
	i := s.calls - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return s.statuses[i], nil
}

const testUPID = "UPID:pve1:0001:vzsnapshot:101:root@pam:"

func TestWaitSuccess(t *testing.T) {
	api := &scriptedAPI{statuses: []proxmox.TaskStatus{
		{Status: "running"},
		{Status: "running"},
		{Status: "stopped", ExitStatus: "OK"},
	}}
	w := NewWaiter(api, time.Millisecond, time.Second)

	if err := w.Wait(t.Context(), testUPID); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if api.calls != 3 {
		t.Errorf("TaskStatus called %d times, want 3", api.calls)
	}
}

func TestWaitTaskFailed(t *testing.T) {
	api := &scriptedAPI{statuses: []proxmox.TaskStatus{
		{Status: "stopped", ExitStatus: "snapshot feature is not available"},
	}}
	w := NewWaiter(api, time.Millisecond, time.Second)

	err := w.Wait(t.Context(), testUPID)
	if !apperrors.IsCode(err, apperrors.ErrCodeTaskFailed) {
		t.Fatalf("Wait() error = %v, want TASK_FAILED", err)
	}
	if api.calls != 1 {
		t.Errorf("a stopped task must not be polled again, calls = %d", api.calls)
	}
}

func TestWaitTimeout(t *testing.T) {
	api := &scriptedAPI{statuses: []proxmox.TaskStatus{{Status: "running"}}}
	interval := 2 * time.Millisecond
	timeout := 20 * time.Millisecond
	w := NewWaiter(api, interval, timeout)

	err := w.Wait(t.Context(), testUPID)
	if !apperrors.IsCode(err, apperrors.ErrCodeTimeout) {
		t.Fatalf("Wait() error = %v, want TIMEOUT", err)
	}

	// Poll count is bounded by timeout/interval plus the initial check.
	maxPolls := int(timeout/interval) + 2
	if api.calls > maxPolls {
		t.Errorf("TaskStatus called %d times, want at most %d", api.calls, maxPolls)
	}
	if api.calls < 2 {
		t.Errorf("expected at least 2 polls before timing out, got %d", api.calls)
	}
}

func TestWaitTransportErrorFatal(t *testing.T) {
	api := &scriptedAPI{err: apperrors.Wrap(apperrors.ErrCodeTransport, "request failed", errors.New("eof"))}
	w := NewWaiter(api, time.Millisecond, time.Second)

	err := w.Wait(t.Context(), testUPID)
	if !apperrors.IsCode(err, apperrors.ErrCodeTransport) {
		t.Fatalf("Wait() error = %v, want TRANSPORT", err)
	}
	if api.calls != 1 {
		t.Errorf("polling must stop on a transport failure, calls = %d", api.calls)
	}
}

func TestWaitContextCanceled(t *testing.T) {
	api := &scriptedAPI{statuses: []proxmox.TaskStatus{{Status: "running"}}}
	w := NewWaiter(api, 50*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := w.Wait(ctx, testUPID)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled in chain", err)
	}
}
