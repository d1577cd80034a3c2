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

// HOT PATH: Parse is the entry point for every input buffer fed to a
// Parser. All functions in this file are in the per-token critical path:
// every non-empty token in the source runs through attemptTagCreate then,
// on failure, the full ordered rule list in attemptRules.
package asm

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/uarc/asm/config"
)

// Parse reads bufread line by line, strips comments, splits into tokens
// per cfg.SplitWhitespace, and dispatches each non-empty token. Line
// numbers restart at 1 for each call to Parse — they are scoped to "the
// current buffer", exactly as spec.md §4.1 specifies. Multiple calls
// extend the same emission state; Parse must not be called again after
// Link.
func (p *Parser) Parse(bufread io.Reader) error {
	scanner := bufio.NewScanner(bufread)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()

		// Everything from the first # to end-of-line is a comment.
		prefix := raw
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			prefix = raw[:idx]
		}

		if p.cfg.SplitWhitespace {
			for _, word := range strings.Fields(prefix) {
				if err := p.parseToken(word, line); err != nil {
					return err
				}
			}
		} else {
			if err := p.parseToken(prefix, line); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return wrapf(ErrInputUnreadable, line, err, "failed to read input buffer")
	}
	return nil
}

// parseToken is the fixed-priority token dispatcher of spec.md §4.2:
// tag creation first, then the ordered rule list, then fatal.
func (p *Parser) parseToken(token string, line int) error {
	if token == "" {
		return nil
	}

	matched, err := p.attemptTagCreate(token, line)
	if err != nil {
		return err
	}
	if matched {
		return nil
	}

	matched, err = p.attemptRules(token, line)
	if err != nil {
		return err
	}
	if matched {
		return nil
	}

	return fatalf(ErrUnrecognizedToken, line, "unrecognized token %q", token)
}

// matchWhole runs re against s and returns the submatch slice only if the
// match covers the entire string — spec.md §4.2 requires whole-token
// matching, not a partial/leftmost match.
func matchWhole(re *regexp.Regexp, s string) []string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 || loc[1] != len(s) {
		return nil
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] < 0 {
			groups[i] = ""
			continue
		}
		groups[i] = s[loc[2*i]:loc[2*i+1]]
	}
	return groups
}

func isAllRune(s string, r rune) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != r {
			return false
		}
	}
	return true
}

// attemptTagCreate matches token against the tag-create regex and, on
// success, records a named or directional anonymous tag (spec.md §4.5).
func (p *Parser) attemptTagCreate(token string, line int) (bool, error) {
	groups := matchWhole(p.cfg.TagCreate.Regex, token)
	if groups == nil {
		return false, nil
	}
	name := groups[1]

	switch {
	case isAllRune(name, '+'):
		p.plusTags = append(p.plusTags, anonTag{runLength: len([]rune(name)), positions: currentPositions(p.segments)})
	case isAllRune(name, '-'):
		p.minusTags = append(p.minusTags, anonTag{runLength: len([]rune(name)), positions: currentPositions(p.segments)})
	default:
		if _, exists := p.tags[name]; exists {
			return false, fatalf(ErrDuplicateTag, line, "duplicate tag %q", name)
		}
		p.tags[name] = currentPositions(p.segments)
	}
	return true, nil
}

// attemptRules finds the first rule whose regex matches token whole and
// fires it (spec.md §4.3). Only the first match is tried; match priority
// is rule order.
func (p *Parser) attemptRules(token string, line int) (bool, error) {
	for i := range p.cfg.Rules {
		rule := &p.cfg.Rules[i]
		groups := matchWhole(rule.Regex, token)
		if groups == nil {
			continue
		}
		if err := p.fireRule(rule, groups[1:], line); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// fireRule implements spec.md §4.3 in full: clone the template, apply
// self-references, dispatch every capture group, then commit the
// (possibly now-smaller, due to fills) local template onto the real
// segments.
func (p *Parser) fireRule(rule *config.Rule, captures []string, line int) error {
	local := cloneSegmentValues(rule.SegmentValues)

	for _, sr := range rule.SelfReferences {
		pos := uint64(len(p.segments[sr.FromSegment]))
		local[sr.AddSegment][sr.AddIndex] += shift(pos, sr.Shift)
	}

	for g, capture := range rule.Captures {
		capString := captures[g]
		switch capture.Kind {
		case config.CaptureTag:
			for _, fb := range capture.TagFeedbacks {
				posOffset := fb.Offset
				if fb.Relative {
					posOffset = fb.Offset - int64(len(p.segments[fb.FromSegment]))
				}
				p.replacements = append(p.replacements, replacement{
					line:       line,
					shift:      fb.Shift,
					addSegment: fb.AddSegment,
					index:      len(p.segments[fb.AddSegment]) + fb.AddIndex,
					tag:        capString,
					posSegment: fb.FromSegment,
					posOffset:  posOffset,
				})
			}
		case config.CaptureString:
			for _, c := range capString {
				p.segments[capture.AddSegment] = append(p.segments[capture.AddSegment], uint64(c))
			}
		case config.CaptureNumber:
			if err := p.fireNumberCapture(capture, capString, local, line); err != nil {
				return err
			}
		}
	}

	for i := range local {
		p.segments[i] = append(p.segments[i], local[i]...)
	}
	return nil
}

func cloneSegmentValues(src [][]uint64) [][]uint64 {
	out := make([][]uint64, len(src))
	for i, v := range src {
		out[i] = append([]uint64(nil), v...)
	}
	return out
}

// fireNumberCapture parses capString in capture.Base and applies every
// NumFeedback, either adding into the cloned template (local) or,
// for fill feedbacks, pushing directly onto the real segment and popping
// the template's now-consumed base value (spec.md §4.3 step 3, Number
// capture).
func (p *Parser) fireNumberCapture(capture config.Capture, capString string, local [][]uint64, line int) error {
	parsed, err := strconv.ParseInt(capString, capture.Base, 64)
	if err != nil {
		return wrapf(ErrNumberParseFailure, line, err, "failed to parse %q in base %d", capString, capture.Base)
	}
	val := uint64(parsed)

	for _, fb := range capture.NumFeedbacks {
		v := shift(val, fb.Shift)
		if fb.Negate {
			v = negate(v)
		}

		if !fb.Fill {
			local[fb.Segment][fb.Index] += v
			continue
		}

		n := int64(v) + fb.FillOffset
		if n < 0 {
			return fatalf(ErrNegativeFill, line, "fill amount %d is negative", n)
		}

		base := local[fb.Segment][fb.Index]
		if fb.Align {
			for len(p.segments[fb.Segment]) < int(n) {
				p.segments[fb.Segment] = append(p.segments[fb.Segment], base)
			}
		} else {
			for i := int64(0); i < n; i++ {
				p.segments[fb.Segment] = append(p.segments[fb.Segment], base)
			}
		}
		local[fb.Segment] = local[fb.Segment][:len(local[fb.Segment])-1]
	}
	return nil
}
