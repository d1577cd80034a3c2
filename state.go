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

// Package asm is the assembly engine proper: the rule-matching
// lexer/parser, the multi-segment emission model, tag resolution with
// forward and relative references, and the link pass that patches
// unresolved positional values into already-emitted words.
//
// Unlike the teacher package this one is grounded on, asm has exactly one
// writer and no concurrent readers — spec.md §5 requires emission order to
// be strictly sequential because tag and replacement semantics are
// positional. There is deliberately no sync.RWMutex here; see DESIGN.md.
package asm

import "github.com/uarc/asm/config"

// anonTag is one entry in the plus_tags or minus_tags directional
// sequence: how many +/- characters made up the tag, and the per-segment
// length vector captured at the moment it was created.
type anonTag struct {
	runLength int
	positions []int
}

// replacement is a deferred patch created when a Tag capture fires.
// Replacements are resolved exactly once, in insertion order, by Link.
type replacement struct {
	line       int
	shift      int32
	addSegment int
	index      int
	tag        string
	posSegment int
	posOffset  int64
}

// Parser owns one assembly run's emission state: the growing per-segment
// word arrays, the named-tag map, the two directional anonymous-tag
// sequences, and the pending replacement list. A Parser is fed some
// number of input buffers in order via Parse, then linked exactly once
// via Link, then may only be serialized.
type Parser struct {
	cfg *config.Config

	segments [][]uint64
	tags     map[string][]int
	plusTags []anonTag
	minusTags []anonTag

	replacements []replacement

	linked bool
}

// NewParser allocates a Parser bound to cfg. cfg must already be
// Validate()'d — Load does this automatically.
func NewParser(cfg *config.Config) *Parser {
	return &Parser{
		cfg:      cfg,
		segments: make([][]uint64, len(cfg.SegmentWidths)),
		tags:     make(map[string][]int),
	}
}

// SegmentCount reports the fixed number of output streams, S.
func (p *Parser) SegmentCount() int {
	return len(p.segments)
}

// SegmentLen reports the current word count of one segment. Safe to call
// at any point in the Parser's lifecycle; segment lengths are
// non-decreasing for the life of a Parser (spec.md §8 "position
// monotonicity").
func (p *Parser) SegmentLen(segment int) int {
	return len(p.segments[segment])
}

// SegmentWord returns one already-emitted word of a segment. Safe to call
// at any point; used by read-only introspection (the debug REPL, the
// optional sqlite sink) rather than by the engine itself.
func (p *Parser) SegmentWord(segment, index int) uint64 {
	return p.segments[segment][index]
}

// Tag returns the position vector recorded for a named tag, and whether
// it exists. Exposed read-only for the debug REPL and the optional
// sqlite sink; the engine itself only ever needs this at link time.
func (p *Parser) Tag(name string) ([]int, bool) {
	v, ok := p.tags[name]
	return v, ok
}

// TagNames returns every currently-defined named tag, for introspection.
func (p *Parser) TagNames() []string {
	names := make([]string, 0, len(p.tags))
	for name := range p.tags {
		names = append(names, name)
	}
	return names
}

// AnonTag is the read-only view of one plus_tags or minus_tags entry:
// how many +/- characters made up the tag, and the per-segment length
// vector captured at the moment it was defined.
type AnonTag struct {
	RunLength int
	Positions []int
}

// PlusTags returns every currently-defined forward-scanned ("+"-run)
// anonymous tag, in definition order. Exposed read-only for the debug
// REPL and the optional sqlite sink, mirroring TagNames/Tag.
func (p *Parser) PlusTags() []AnonTag {
	return exportAnonTags(p.plusTags)
}

// MinusTags returns every currently-defined backward-scanned ("-"-run)
// anonymous tag, in definition order.
func (p *Parser) MinusTags() []AnonTag {
	return exportAnonTags(p.minusTags)
}

func exportAnonTags(tags []anonTag) []AnonTag {
	out := make([]AnonTag, len(tags))
	for i, t := range tags {
		out[i] = AnonTag{RunLength: t.runLength, Positions: t.positions}
	}
	return out
}

func currentPositions(segments [][]uint64) []int {
	positions := make([]int, len(segments))
	for i, seg := range segments {
		positions[i] = len(seg)
	}
	return positions
}
