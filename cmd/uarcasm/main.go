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

// Command uarcasm is the CLI front end for the assembler (spec.md §6).
// It is deliberately thin: load a Config, feed every input file to one
// Parser in order, link once, and write one output file per segment
// (named by -o where given, "oseg<i>" otherwise). The engine itself (package asm) never imports this
// package or log.Fatalf's — this binary is the one place a fatal error
// becomes a process exit.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/uarc/asm"
	"github.com/uarc/asm/config"
	"github.com/uarc/asm/store"
)

// outputNames collects a repeatable -o/--outputs flag, spec.md §6's
// "name per segment, in segment order" convention.
type outputNames []string

func (o *outputNames) String() string {
	return fmt.Sprint(*o)
}

func (o *outputNames) Set(value string) error {
	*o = append(*o, value)
	return nil
}

func main() {
	var (
		configPath  string
		formatName  string
		outputs     outputNames
		debugDBPath string
		interactive bool
	)

	flag.StringVar(&configPath, "c", "", "path to the JSON config file")
	flag.StringVar(&configPath, "config", "", "path to the JSON config file")
	flag.StringVar(&formatName, "f", "little-endian", "output format: little-endian, big-endian, or hex-list")
	flag.StringVar(&formatName, "format", "little-endian", "output format: little-endian, big-endian, or hex-list")
	flag.Var(&outputs, "o", "output file name; repeat once per segment, in segment order")
	flag.Var(&outputs, "outputs", "output file name; repeat once per segment, in segment order")
	flag.StringVar(&debugDBPath, "debug-db", "", "optional path to a sqlite file recording this run's final state")
	flag.BoolVar(&interactive, "i", false, "start an interactive debug REPL instead of assembling")
	flag.Parse()

	if interactive {
		runREPL()
		return
	}

	if configPath == "" {
		log.Fatalf("uarcasm: -c/--config is required")
	}

	format, err := asm.ParseOutputFormat(formatName)
	if err != nil {
		log.Fatalf("uarcasm: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("uarcasm: %v", err)
	}

	if len(outputs) > len(cfg.SegmentWidths) {
		log.Fatalf("uarcasm: %v", &asm.Error{Kind: asm.ErrTooManyOutputs, Msg: fmt.Sprintf("got %d output names for %d segments", len(outputs), len(cfg.SegmentWidths))})
	}

	p := asm.NewParser(cfg)

	for _, path := range flag.Args() {
		if err := parseFile(p, path); err != nil {
			log.Fatalf("uarcasm: %v", err)
		}
	}

	if err := p.Link(); err != nil {
		log.Fatalf("uarcasm: %v", err)
	}

	if err := writeOutputs(p, format, len(cfg.SegmentWidths), outputs); err != nil {
		log.Fatalf("uarcasm: %v", err)
	}

	if debugDBPath != "" {
		if err := recordDebugRun(debugDBPath, p); err != nil {
			log.Fatalf("uarcasm: %v", err)
		}
	}
}

func parseFile(p *asm.Parser, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &asm.Error{Kind: asm.ErrInputUnreadable, Msg: fmt.Sprintf("failed to open %q: %v", path, err)}
	}
	defer f.Close()
	return p.Parse(f)
}

// writeOutputs writes exactly one file per segment: the i-th -o name when
// one was given, otherwise the spec's default "oseg<i>" (spec.md §6).
func writeOutputs(p *asm.Parser, format asm.OutputFormat, segmentCount int, outputs outputNames) error {
	for segment := 0; segment < segmentCount; segment++ {
		if err := writeOutput(p, format, segment, outputName(segment, outputs)); err != nil {
			return err
		}
	}
	return nil
}

func outputName(segment int, outputs outputNames) string {
	if segment < len(outputs) {
		return outputs[segment]
	}
	return fmt.Sprintf("oseg%d", segment)
}

func writeOutput(p *asm.Parser, format asm.OutputFormat, segment int, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return &asm.Error{Kind: asm.ErrOutputUnwritable, Msg: fmt.Sprintf("failed to create %q: %v", name, err)}
	}
	defer f.Close()
	return p.WriteSegment(f, format, segment)
}

func recordDebugRun(dbPath string, p *asm.Parser) error {
	ddb, err := store.NewDebugDB(dbPath)
	if err != nil {
		return err
	}
	defer ddb.Close()
	return ddb.RecordRun(fmt.Sprintf("run_%d", os.Getpid()), p)
}
