// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"files_processed": 2, "collection": "cra_chunks"}

	if err := JSONTo(&buf, data); err != nil {
		t.Fatalf("JSONTo failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "  \"collection\"") {
		t.Errorf("expected indented output, got %q", out)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["collection"] != "cra_chunks" {
		t.Errorf("collection = %v", decoded["collection"])
	}
}

func TestJSONCompactTo(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONCompactTo(&buf, map[string]int{"n": 1}); err != nil {
		t.Fatalf("JSONCompactTo failed: %v", err)
	}

	// Compact output is a single line.
	if got := strings.Count(strings.TrimRight(buf.String(), "\n"), "\n"); got != 0 {
		t.Errorf("expected single-line output, got %q", buf.String())
	}
}

func TestJSONTo_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONTo(&buf, make(chan int)); err == nil {
		t.Error("expected error for unencodable type")
	}
}

func TestJSONErrorTo(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONErrorTo(&buf, fmt.Errorf("failed to clone repository")); err != nil {
		t.Fatalf("JSONErrorTo failed: %v", err)
	}

	var decoded ErrorJSON
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Error != "failed to clone repository" {
		t.Errorf("Error = %q", decoded.Error)
	}
}
