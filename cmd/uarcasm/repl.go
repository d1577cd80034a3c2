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
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/uarc/asm"
	"github.com/uarc/asm/config"
)

// runREPL drives an interactive debug session against a single Parser:
// load a config, feed it lines of source one at a time, and inspect the
// resulting emission state before or after linking. Grounded in the
// teacher's fixclient Repl: a chzyer/readline prompt loop with a
// PrefixCompleter, dispatching on the first whitespace-separated token
// of each line.
func runREPL() {
	completer := readline.NewPrefixCompleter(
		readline.PcItem(":load"),
		readline.PcItem(":segments"),
		readline.PcItem(":tags"),
		readline.PcItem(":link"),
		readline.PcItem(":dump",
			readline.PcItem("little-endian"),
			readline.PcItem("big-endian"),
			readline.PcItem("hex-list"),
		),
		readline.PcItem(":quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "uarcasm> ",
		HistoryFile:     "/tmp/uarcasm_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start readline: %v\n", err)
		return
	}
	defer rl.Close()

	var p *asm.Parser

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case ":load":
			p = replLoad(parts)
		case ":segments":
			replSegments(p)
		case ":tags":
			replTags(p)
		case ":link":
			replLink(p)
		case ":dump":
			replDump(p, parts)
		case ":quit":
			return
		default:
			replFeedLine(p, line)
		}
	}
}

func replLoad(parts []string) *asm.Parser {
	if len(parts) < 3 {
		fmt.Println("Usage: :load <config.json> <source-file>")
		return nil
	}
	cfg, err := config.Load(parts[1])
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return nil
	}
	p := asm.NewParser(cfg)

	f, err := os.Open(parts[2])
	if err != nil {
		fmt.Printf("failed to open source file: %v\n", err)
		return nil
	}
	defer f.Close()

	if err := p.Parse(f); err != nil {
		fmt.Printf("parse error: %v\n", err)
		return nil
	}
	fmt.Printf("loaded %s with %s (%d segments)\n", parts[2], parts[1], p.SegmentCount())
	return p
}

func replFeedLine(p *asm.Parser, line string) {
	if p == nil {
		fmt.Println("no parser loaded; use :load first")
		return
	}
	if err := p.Parse(strings.NewReader(line + "\n")); err != nil {
		fmt.Printf("parse error: %v\n", err)
	}
}

func replSegments(p *asm.Parser) {
	if p == nil {
		fmt.Println("no parser loaded; use :load first")
		return
	}
	for i := 0; i < p.SegmentCount(); i++ {
		fmt.Printf("segment %d: %d words\n", i, p.SegmentLen(i))
	}
}

func replTags(p *asm.Parser) {
	if p == nil {
		fmt.Println("no parser loaded; use :load first")
		return
	}
	for _, name := range p.TagNames() {
		positions, _ := p.Tag(name)
		fmt.Printf("%s -> %v\n", name, positions)
	}
	for _, t := range p.PlusTags() {
		fmt.Printf("%s -> %v\n", strings.Repeat("+", t.RunLength), t.Positions)
	}
	for _, t := range p.MinusTags() {
		fmt.Printf("%s -> %v\n", strings.Repeat("-", t.RunLength), t.Positions)
	}
}

func replLink(p *asm.Parser) {
	if p == nil {
		fmt.Println("no parser loaded; use :load first")
		return
	}
	if err := p.Link(); err != nil {
		fmt.Printf("link error: %v\n", err)
		return
	}
	fmt.Println("linked")
}

func replDump(p *asm.Parser, parts []string) {
	if p == nil {
		fmt.Println("no parser loaded; use :load first")
		return
	}
	if len(parts) < 3 {
		fmt.Println("Usage: :dump <little-endian|big-endian|hex-list> <segment>")
		return
	}
	format, err := asm.ParseOutputFormat(parts[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	segment, err := strconv.Atoi(parts[2])
	if err != nil {
		fmt.Printf("invalid segment index %q\n", parts[2])
		return
	}
	if err := p.WriteSegment(os.Stdout, format, segment); err != nil {
		fmt.Printf("dump error: %v\n", err)
	}
}
