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

package asm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uarc/asm/config"
)

// mustConfig decodes and validates jsonSrc into a Config, failing the test
// on any error. Every asm test builds its fixtures this way rather than
// constructing config.Config literals by hand, so the same JSON shape a
// real caller would author exercises the parser under test.
func mustConfig(t *testing.T, jsonSrc string) *config.Config {
	t.Helper()
	path := writeTempJSON(t, jsonSrc)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load fixture config: %v", err)
	}
	return cfg
}

func writeTempJSON(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture config: %v", err)
	}
	return path
}

// parseAll feeds each line as a separate Parse call, mirroring how a CLI
// would stream one input file per call to Parser.Parse.
func parseAll(t *testing.T, p *Parser, lines ...string) error {
	t.Helper()
	for _, line := range lines {
		if err := p.Parse(strings.NewReader(line + "\n")); err != nil {
			return err
		}
	}
	return nil
}
