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

// Package quiesce detaches a container's mount points around a snapshot and
// guarantees their reattachment.
//
// Snapshotting a container with externally-mounted storage is refused by
// the hypervisor, so the mount-point entries are removed from the
// container's configuration first and written back afterward. Detach
// returns a State guard capturing each removed entry verbatim; the caller
// must arrange (typically via defer) for State.Restore to run on every exit
// path once the guard is non-empty. Restore is idempotent: a second call is
// a no-op.
//
// Restoration failures are deliberately non-fatal per entry: aborting
// midway would leave more mount points detached than pressing on does. Each
// failed entry is reported in the returned outcomes and logged as a
// warning.
package quiesce
