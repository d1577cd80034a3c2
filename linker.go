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

// Link resolves every pending replacement against the final tag state
// and patches the stored word (spec.md §4.4, §4.6). It must be called
// exactly once, after the last call to Parse and before any
// serialization.
func (p *Parser) Link() error {
	for _, r := range p.replacements {
		positions, err := p.resolveReplacementTag(r)
		if err != nil {
			return err
		}

		signed := int64(positions[r.posSegment]) + r.posOffset
		patch := shift(uint64(signed), r.shift)
		p.segments[r.addSegment][r.index] += patch
	}
	p.linked = true
	return nil
}

// resolveReplacementTag finds the position vector a replacement refers
// to: a forward scan of plus_tags, a reverse scan of minus_tags, or a
// direct lookup in the named tag map, exactly as spec.md §4.6 specifies.
func (p *Parser) resolveReplacementTag(r replacement) ([]int, error) {
	switch {
	case isAllRune(r.tag, '+'):
		for _, e := range p.plusTags {
			if e.runLength == len([]rune(r.tag)) && e.positions[r.addSegment] >= r.index {
				return e.positions, nil
			}
		}
		return nil, fatalf(ErrUndefinedTag, r.line, "forward + tag %q was never defined", r.tag)

	case isAllRune(r.tag, '-'):
		for i := len(p.minusTags) - 1; i >= 0; i-- {
			e := p.minusTags[i]
			if e.runLength == len([]rune(r.tag)) && e.positions[r.addSegment] < r.index {
				return e.positions, nil
			}
		}
		return nil, fatalf(ErrUndefinedTag, r.line, "backward - tag %q was never defined", r.tag)

	default:
		positions, ok := p.tags[r.tag]
		if !ok {
			return nil, fatalf(ErrUndefinedTag, r.line, "tag %q used on line %d never defined", r.tag, r.line)
		}
		return positions, nil
	}
}
