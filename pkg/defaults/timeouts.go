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

package defaults

import "time"

// Hypervisor task polling.
const (
	// TaskPollInterval is the delay between asynchronous task status checks.
	TaskPollInterval = 2 * time.Second

	// TaskTimeout is the wall-clock limit for an asynchronous task to reach
	// a terminal state before the run fails.
	TaskTimeout = 120 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout bounds a single hypervisor API request.
	HTTPClientTimeout = 30 * time.Second

	// RegistryTimeout bounds a single image registry digest resolution.
	RegistryTimeout = 15 * time.Second
)

// Cleanup timeouts.
const (
	// RestoreTimeout bounds mount-point restoration after a snapshot
	// attempt. Restoration runs on its own context so that it still
	// executes when the run context is already canceled.
	RestoreTimeout = 60 * time.Second
)
