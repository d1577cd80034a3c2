/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uarc/asm"
	"github.com/uarc/asm/config"
)

func TestOutputName_DefaultsToOsegWhenMissing(t *testing.T) {
	outputs := outputNames{"explicit.bin"}

	if got, want := outputName(0, outputs), "explicit.bin"; got != want {
		t.Fatalf("outputName(0, ...) = %q, want %q", got, want)
	}
	if got, want := outputName(1, outputs), "oseg1"; got != want {
		t.Fatalf("outputName(1, ...) = %q, want %q", got, want)
	}
	if got, want := outputName(2, outputs), "oseg2"; got != want {
		t.Fatalf("outputName(2, ...) = %q, want %q", got, want)
	}
}

const threeSegmentConfigJSON = `{
	"segment_widths": [1, 1, 1],
	"split_whitespace": true,
	"tag_create": {"regex": "^:(\\w+)$"},
	"rules": [
		{
			"regex": "^(\\d+)$",
			"segment_values": [[0], [0], [0]],
			"captures": [
				{"type": "number", "base": 10, "feedbacks": [{"segment": 0, "index": 0}]}
			]
		}
	]
}`

// TestWriteOutputs_WritesOneFilePerSegmentEvenWithoutAnyNames exercises
// spec.md §6: one output file is written per segment regardless of how
// many (if any) -o names were supplied, with missing names defaulting to
// "oseg<i>". Before the fix, ranging over `outputs` meant zero -o flags
// produced zero files.
func TestWriteOutputs_WritesOneFilePerSegmentEvenWithoutAnyNames(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(threeSegmentConfigJSON), 0o644); err != nil {
		t.Fatalf("failed to write fixture config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load fixture config: %v", err)
	}

	p := asm.NewParser(cfg)
	if err := p.Parse(strings.NewReader("1\n")); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := p.Link(); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir into temp dir: %v", err)
	}
	defer os.Chdir(wd)

	if err := writeOutputs(p, asm.LittleEndian, len(cfg.SegmentWidths), nil); err != nil {
		t.Fatalf("writeOutputs failed: %v", err)
	}

	for _, want := range []string{"oseg0", "oseg1", "oseg2"} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("expected default-named output %q to exist: %v", want, err)
		}
	}
}

// TestWriteOutputs_AppliesExplicitNamesPositionally exercises the case
// where fewer -o names are given than segments: the given names apply to
// the first segments in order, and the rest still get default names.
func TestWriteOutputs_AppliesExplicitNamesPositionally(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(threeSegmentConfigJSON), 0o644); err != nil {
		t.Fatalf("failed to write fixture config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load fixture config: %v", err)
	}

	p := asm.NewParser(cfg)
	if err := p.Parse(strings.NewReader("1\n")); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := p.Link(); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir into temp dir: %v", err)
	}
	defer os.Chdir(wd)

	outputs := outputNames{"first.bin"}
	if err := writeOutputs(p, asm.LittleEndian, len(cfg.SegmentWidths), outputs); err != nil {
		t.Fatalf("writeOutputs failed: %v", err)
	}

	for _, want := range []string{"first.bin", "oseg1", "oseg2"} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("expected output %q to exist: %v", want, err)
		}
	}
}
