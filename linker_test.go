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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const jumpConfig = `{
	"segment_widths": [4],
	"split_whitespace": true,
	"tag_create": {"regex": "^:(\\w+)$"},
	"rules": [
		{
			"regex": "^JMP:(\\w+)$",
			"segment_values": [[0]],
			"captures": [
				{"type": "tag", "feedbacks": [{"from_segment": 0, "add_segment": 0, "add_index": 0}]}
			]
		},
		{
			"regex": "^NOP$",
			"segment_values": [[0]],
			"captures": []
		}
	]
}`

// TestLink_ForwardNamedTagReference exercises spec.md §4.4/§4.6: a tag
// referenced before it is defined still resolves correctly at link time,
// because resolution happens against the final tag table, not in emission
// order.
func TestLink_ForwardNamedTagReference(t *testing.T) {
	cfg := mustConfig(t, jumpConfig)
	p := NewParser(cfg)

	require.NoError(t, parseAll(t, p, "JMP:target", ":target"))
	require.NoError(t, p.Link())

	require.Len(t, p.segments[0], 1)
	require.Equal(t, uint64(1), p.segments[0][0], "JMP word should be patched to the tag's position (1)")
}

// TestLink_BackwardNamedTagReference exercises the same path when the tag
// is already defined before the referencing instruction is parsed.
func TestLink_BackwardNamedTagReference(t *testing.T) {
	cfg := mustConfig(t, jumpConfig)
	p := NewParser(cfg)

	require.NoError(t, parseAll(t, p, ":target", "JMP:target"))
	require.NoError(t, p.Link())

	require.Len(t, p.segments[0], 1)
	require.Equal(t, uint64(0), p.segments[0][0], "target was defined at position 0")
}

func TestLink_UndefinedNamedTagIsFatal(t *testing.T) {
	cfg := mustConfig(t, jumpConfig)
	p := NewParser(cfg)

	require.NoError(t, parseAll(t, p, "JMP:nowhere"))
	err := p.Link()

	var asmErr *Error
	require.True(t, errors.As(err, &asmErr))
	require.Equal(t, ErrUndefinedTag, asmErr.Kind)
}

const anonJumpConfig = `{
	"segment_widths": [4],
	"split_whitespace": true,
	"tag_create": {"regex": "^:([+-]+)$"},
	"rules": [
		{
			"regex": "^JMP:([+-]+)$",
			"segment_values": [[0]],
			"captures": [
				{"type": "tag", "feedbacks": [{"from_segment": 0, "add_segment": 0, "add_index": 0}]}
			]
		},
		{
			"regex": "^NOP$",
			"segment_values": [[0]],
			"captures": []
		}
	]
}`

// TestLink_PlusTagResolvesToNearestForwardDefinition exercises spec.md
// §4.6's forward scan: a "+" reference resolves to the nearest ":+"
// definition at or after the referencing instruction's own position.
func TestLink_PlusTagResolvesToNearestForwardDefinition(t *testing.T) {
	cfg := mustConfig(t, anonJumpConfig)
	p := NewParser(cfg)

	// JMP:+ at position 0, a NOP at 1, the "+" tag defined at position 2.
	require.NoError(t, parseAll(t, p, "JMP:+", "NOP", ":+"))
	require.NoError(t, p.Link())

	require.Equal(t, uint64(2), p.segments[0][0])
}

// TestLink_MinusTagResolvesToNearestBackwardDefinition exercises spec.md
// §4.6's reverse scan: a "-" reference resolves to the nearest ":-"
// definition strictly before the referencing instruction's own position.
func TestLink_MinusTagResolvesToNearestBackwardDefinition(t *testing.T) {
	cfg := mustConfig(t, anonJumpConfig)
	p := NewParser(cfg)

	// ":-" defined at position 0 (before anything is emitted), a NOP
	// emits one word at position 0, then JMP:- is emitted at position 1.
	require.NoError(t, parseAll(t, p, ":-", "NOP", "JMP:-"))
	require.NoError(t, p.Link())

	require.Equal(t, uint64(0), p.segments[0][1])
}

// TestLink_MultiplePlusTagsDisambiguateByRunLength exercises spec.md
// §4.5/§4.6: "+" and "++" are distinct anonymous tag sequences, matched
// only against definitions with the same run length — a "++" reference
// must skip past a "+" definition at an earlier position to reach the
// "++" definition that actually matches its run length.
func TestLink_MultiplePlusTagsDisambiguateByRunLength(t *testing.T) {
	cfg := mustConfig(t, anonJumpConfig)
	p := NewParser(cfg)

	require.NoError(t, parseAll(t, p, "JMP:++", ":+", "NOP", ":++"))
	require.NoError(t, p.Link())

	require.Equal(t, uint64(2), p.segments[0][0], "JMP:++ must resolve to the ++ definition, not the + one")
}

// TestLink_AppliesEachReplacementExactlyOnce checks that replacements
// apply exactly once, in insertion order, and Link does not revisit
// already-applied patches: with the tag at position 1, each JMP word must
// hold 1, not a multiple of it.
func TestLink_AppliesEachReplacementExactlyOnce(t *testing.T) {
	cfg := mustConfig(t, jumpConfig)
	p := NewParser(cfg)

	require.NoError(t, parseAll(t, p, "NOP", ":a", "JMP:a", "JMP:a"))
	require.NoError(t, p.Link())

	require.Equal(t, uint64(1), p.segments[0][1])
	require.Equal(t, uint64(1), p.segments[0][2])
}

const relativeJumpConfig = `{
	"segment_widths": [1],
	"split_whitespace": true,
	"tag_create": {"regex": "^:(\\w+)$"},
	"rules": [
		{
			"regex": "^@(\\w+)$",
			"segment_values": [[0]],
			"captures": [
				{"type": "tag", "feedbacks": [{"from_segment": 0, "add_segment": 0, "add_index": 0, "relative": true}]}
			]
		},
		{
			"regex": "^(\\d+)$",
			"segment_values": [[0]],
			"captures": [
				{"type": "number", "base": 10, "feedbacks": [{"segment": 0, "index": 0}]}
			]
		}
	]
}`

// TestLink_RelativeTagAtEmissionStart exercises spec.md §8 scenario 3: a
// relative TagFeedback's pos_offset is computed as offset minus the
// from_segment's length at the moment the replacement is created, not at
// link time. Input "@foo 7 :foo": the replacement is created when
// segment 0 is still empty, so pos_offset = 0 - 0 = 0; the tag lands at
// position 2, so the patched word is 2 + 0 = 2.
func TestLink_RelativeTagAtEmissionStart(t *testing.T) {
	cfg := mustConfig(t, relativeJumpConfig)
	p := NewParser(cfg)

	require.NoError(t, parseAll(t, p, "@foo", "7", ":foo"))
	require.NoError(t, p.Link())

	require.Equal(t, uint64(2), p.segments[0][0])
	require.Equal(t, uint64(7), p.segments[0][1])
}

// TestLink_RelativeTagAfterEmission exercises the second half of spec.md
// §8 scenario 3: with the referencing instruction emitted one word into
// the segment, pos_offset = 0 - 1 = -1, so the patch becomes the distance
// from the reference site to the tag rather than the tag's absolute
// position. Input "7 @foo :foo": positions[0]=2 at link time, patch =
// 2 + (-1) = 1.
func TestLink_RelativeTagAfterEmission(t *testing.T) {
	cfg := mustConfig(t, relativeJumpConfig)
	p := NewParser(cfg)

	require.NoError(t, parseAll(t, p, "7", "@foo", ":foo"))
	require.NoError(t, p.Link())

	require.Equal(t, uint64(7), p.segments[0][0])
	require.Equal(t, uint64(1), p.segments[0][1])
}
