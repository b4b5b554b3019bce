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
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	apperrors "github.com/NVIDIA/presnap/pkg/errors"
	"github.com/NVIDIA/presnap/pkg/proxmox"
)

// API is the task status surface of the hypervisor client.
// *proxmox.Client satisfies it.
type API interface {
	TaskStatus(ctx context.Context, upid string) (proxmox.TaskStatus, error)
}

// Waiter polls an asynchronous task until it stops or a deadline elapses.
type Waiter struct {
	api      API
	interval time.Duration
	timeout  time.Duration
	clock    clock.Clock
}

// Option customizes a Waiter.
type Option func(*Waiter)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(w *Waiter) {
		w.clock = c
	}
}

// NewWaiter creates a Waiter polling at the given interval with the given
// wall-clock timeout.
func NewWaiter(api API, interval, timeout time.Duration, opts ...Option) *Waiter {
	w := &Waiter{
		api:      api,
		interval: interval,
		timeout:  timeout,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait blocks until the task identified by upid stops, the timeout elapses,
// or ctx is canceled. A task that stops with a non-OK exit status yields a
// TASK_FAILED error; an elapsed deadline yields TIMEOUT. Transport failures
// while polling are fatal.
func (w *Waiter) Wait(ctx context.Context, upid string) error {
	slog.Info("waiting for task", "upid", upid, "timeout", w.timeout.String())

	start := w.clock.Now()
	ticker := w.clock.Ticker(w.interval)
	defer ticker.Stop()

	for {
		st, err := w.api.TaskStatus(ctx, upid)
		if err != nil {
			return err
		}

		if st.Stopped() {
			if st.Succeeded() {
				slog.Info("task completed successfully", "upid", upid)
				return nil
			}
			return apperrors.NewWithContext(apperrors.ErrCodeTaskFailed,
				"task failed with status: "+st.ExitStatus,
				map[string]any{"upid": upid})
		}

		if w.clock.Since(start) >= w.timeout {
			return apperrors.NewWithContext(apperrors.ErrCodeTimeout,
				"task timed out after "+w.timeout.String(),
				map[string]any{"upid": upid})
		}

		select {
		case <-ctx.Done():
			return apperrors.Wrap(apperrors.ErrCodeTimeout, "task wait canceled", ctx.Err())
		case <-ticker.C:
		}
	}
}
