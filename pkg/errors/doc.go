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

// Package errors provides structured error types shared across presnap.
//
// Errors carry an ErrorCode classifying the failure: CONFIG_INVALID aborts a
// run before any network activity, TRANSPORT marks individual API request
// failures, NOT_FOUND marks a failed hostname resolution, and TASK_FAILED /
// TIMEOUT mark asynchronous hypervisor task failures. CodeOf and IsCode
// support programmatic handling without string matching:
//
//	if apperrors.IsCode(err, apperrors.ErrCodeTimeout) {
//	    // the task wait deadline elapsed
//	}
package errors
