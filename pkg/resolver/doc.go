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

// Package resolver locates the managed guest whose hostname matches the
// machine a deploy is running on.
//
// Resolution scans the configured endpoints in order. Within each endpoint,
// containers are checked before virtual machines, in the order the
// hypervisor lists them; the first exact hostname match wins. A container's
// hostname comes from its persisted configuration; a virtual machine's
// hostname comes from a guest agent query that may be unavailable, in which
// case the hostname is treated as unknown (not an error, not a mismatch)
// and the scan continues.
//
// Transport failures against one endpoint or one guest are logged and
// tolerated so that partial cluster unavailability does not abort
// resolution against the remaining endpoints. Only a full scan with no
// match fails, with a NOT_FOUND error.
package resolver
