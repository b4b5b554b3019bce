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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/NVIDIA/presnap/pkg/defaults"
	"github.com/NVIDIA/presnap/pkg/proxmox"
	"github.com/NVIDIA/presnap/pkg/quiesce"
)

// API is the hypervisor client surface the orchestrator needs.
// *proxmox.Client satisfies it.
type API interface {
	quiesce.API
	CreateSnapshot(ctx context.Context, kind proxmox.GuestKind, vmid int, req proxmox.SnapshotRequest) (string, error)
}

// TaskWaiter blocks until an asynchronous task finishes or fails.
// *task.Waiter satisfies it.
type TaskWaiter interface {
	Wait(ctx context.Context, upid string) error
}

// Orchestrator runs the pre-deployment snapshot protocol against one guest.
type Orchestrator struct {
	api    API
	waiter TaskWaiter
	clock  clock.Clock
	stack  string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithStack overrides the deploying stack's name used in the snapshot
// description. Defaults to the current working directory base.
func WithStack(stack string) Option {
	return func(o *Orchestrator) {
		o.stack = stack
	}
}

// New creates an Orchestrator.
func New(api API, waiter TaskWaiter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:    api,
		waiter: waiter,
		clock:  clock.New(),
		stack:  stackFromWorkingDir(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// stackFromWorkingDir derives the deploying stack's name from the current
// working directory, the convention used by compose-style deployments.
func stackFromWorkingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return filepath.Base(wd)
}

// Run executes the snapshot state machine for the guest. On the container
// path the mount-point restore transition is guaranteed to execute once
// quiesce has run, regardless of the outcome of the snapshot or the task
// wait. The returned Result is populated as far as the run progressed.
func (o *Orchestrator) Run(ctx context.Context, g Guest) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Guest:     g,
		StartedAt: o.clock.Now(),
	}
	log := slog.With("run_id", res.RunID, "kind", string(g.Kind), "vmid", g.VMID)
	log.Info("starting pre-deployment snapshot", "hostname", g.Hostname)

	err := o.run(ctx, g, res, log)

	res.Duration = o.clock.Since(res.StartedAt)
	if err != nil {
		observeRun(outcomeError, res)
		log.Error("snapshot run failed", "error", err, "duration", res.Duration.String())
		return res, err
	}
	observeRun(outcomeSuccess, res)
	log.Info("snapshot completed successfully",
		"snapshot", res.SnapshotName, "duration", res.Duration.String())
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, g Guest, res *Result, log *slog.Logger) error {
	if g.Kind == proxmox.GuestContainer {
		return o.runContainer(ctx, g, res, log)
	}
	return o.snapshotAndWait(ctx, g, res, log)
}

func (o *Orchestrator) runContainer(ctx context.Context, g Guest, res *Result, log *slog.Logger) error {
	st, detachErr := quiesce.Detach(ctx, o.api, g.VMID)
	if st != nil {
		res.MountPoints = len(st.MountPoints())
	}

	// Reattachment is owed as soon as any mount point was removed, even
	// when the snapshot or the task wait fails. Runs on its own context so
	// a canceled run context cannot skip it.
	defer func() {
		if st.Empty() {
			return
		}
		restoreCtx, cancel := context.WithTimeout(context.Background(), defaults.RestoreTimeout)
		defer cancel()

		for _, r := range st.Restore(restoreCtx) {
			if r.Err != nil {
				res.RestoreFailures++
			}
		}
		if res.RestoreFailures > 0 {
			log.Warn("some mount points could not be restored",
				"failed", res.RestoreFailures, "total", res.MountPoints)
		}
	}()

	if detachErr != nil {
		return detachErr
	}

	return o.snapshotAndWait(ctx, g, res, log)
}

func (o *Orchestrator) snapshotAndWait(ctx context.Context, g Guest, res *Result, log *slog.Logger) error {
	req := o.buildRequest()
	res.SnapshotName = req.Name

	log.Info("creating snapshot", "snapshot", req.Name)
	upid, err := o.api.CreateSnapshot(ctx, g.Kind, g.VMID, req)
	if err != nil {
		return err
	}
	res.UPID = upid

	return o.waiter.Wait(ctx, upid)
}

// buildRequest generates the snapshot name and description. The name uses
// one-second timestamp resolution with no further disambiguation.
func (o *Orchestrator) buildRequest() proxmox.SnapshotRequest {
	now := o.clock.Now()
	return proxmox.SnapshotRequest{
		Name: NamePrefix + now.Format(nameTimestampLayout),
		Description: fmt.Sprintf("Pre-deployment of stack %s at %s",
			o.stack, now.Format(time.RFC1123)),
	}
}
