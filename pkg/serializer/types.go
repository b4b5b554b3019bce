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

// Package serializer writes run results and reports to a file or stdout.
//
// Three formats are supported:
//   - JSON: machine-readable, indented
//   - YAML: human-readable configuration format
//   - Table: flattened key/value view for quick inspection
//
// Usage:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatJSON, path)
//	defer serializer.CloseQuietly(w)
//	if err := w.Serialize(ctx, result); err != nil {
//		return err
//	}
package serializer

import "context"

// Serializer writes one result document in a configured format.
type Serializer interface {
	Serialize(ctx context.Context, result any) error
}

// Closer is an optional interface for Serializers holding resources,
// such as an open output file.
type Closer interface {
	Close() error
}

// CloseQuietly closes s when it implements Closer, ignoring the error.
// Intended for deferred cleanup on output writers.
func CloseQuietly(s Serializer) {
	if c, ok := s.(Closer); ok {
		_ = c.Close()
	}
}
