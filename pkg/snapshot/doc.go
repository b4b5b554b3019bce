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

// Package snapshot drives the end-to-end pre-deployment snapshot protocol.
//
// For a container guest the orchestration runs
//
//	Inspect -> (mounts present? Quiesce) -> CreateSnapshot -> WaitTask ->
//	(mounts present? Restore) -> Done
//
// with the Restore transition guaranteed once Quiesce has run, on every
// exit path, via a deferred guard with its own background context. For a
// virtual machine it runs CreateSnapshot -> WaitTask -> Done; memory-state
// capture is always disabled to bound snapshot latency during the deploy
// window.
//
// Snapshot names are a fixed prefix plus a one-second-resolution timestamp.
// Rapid successive invocations can therefore collide on the name; this is a
// known limitation, callers serialize deploys per guest.
//
// Any CreateSnapshot or WaitTask failure is fatal to the run, but never
// reported before the cleanup obligation has completed. A failed or
// partially-completed snapshot is never reported as success.
package snapshot
