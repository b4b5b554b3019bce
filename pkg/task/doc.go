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

// Package task waits for asynchronous hypervisor tasks to finish.
//
// A Waiter polls the task status endpoint at a fixed interval until the
// task reaches its terminal state or a wall-clock deadline elapses. The
// wait never spins faster than the interval, and the poll count is bounded
// by the timeout/interval ratio. A stuck task is abandoned, not canceled:
// no cancellation request is issued to the hypervisor.
//
// The Waiter accepts a context so that an external cancellation signal can
// be threaded through without changing the fatal-timeout contract.
package task
