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

package serializer

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type testResult struct {
	Snapshot string `json:"snapshot" yaml:"snapshot"`
	Mounts   int    `json:"mounts" yaml:"mounts"`
}

func TestWriterSerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)

	in := testResult{Snapshot: "pre_deploy_01_02_2026_10_11_12", Mounts: 2}
	if err := w.Serialize(t.Context(), in); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var out testResult
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestWriterSerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)

	in := testResult{Snapshot: "pre_deploy_01_02_2026_10_11_12", Mounts: 2}
	if err := w.Serialize(t.Context(), in); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var out testResult
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestWriterSerializeTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	in := testResult{Snapshot: "pre_deploy_01_02_2026_10_11_12", Mounts: 2}
	if err := w.Serialize(t.Context(), in); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"FIELD", "Snapshot", "pre_deploy_01_02_2026_10_11_12", "Mounts"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestWriterUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)

	if err := w.Serialize(t.Context(), testResult{Snapshot: "s"}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	var out testResult
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Errorf("fallback output is not JSON: %v", err)
	}
}

func TestNewFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	w := NewFileWriterOrStdout(FormatJSON, path)

	if err := w.Serialize(t.Context(), testResult{Snapshot: "s", Mounts: 1}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	CloseQuietly(w)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	var out testResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Errorf("file content is not JSON: %v", err)
	}
}

func TestNewFileWriterOrStdoutEmptyPathFallsBack(t *testing.T) {
	w := NewFileWriterOrStdout(FormatYAML, "  ")
	if _, ok := w.(*Writer); !ok {
		t.Fatalf("expected *Writer, got %T", w)
	}
	// No file handle to close.
	CloseQuietly(w)
}

func TestSupportedFormats(t *testing.T) {
	got := SupportedFormats()
	if len(got) != 3 {
		t.Fatalf("SupportedFormats() = %v, want 3 entries", got)
	}
	for _, f := range got {
		if Format(f).IsUnknown() {
			t.Errorf("format %q reported unknown", f)
		}
	}
}
