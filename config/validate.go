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

package config

import (
	"fmt"
	"regexp"
)

// ValidationError reports a single ConfigInvalid failure (spec.md §7). The
// message always names the offending regex, segment, or index, matching
// the original's panic messages closely enough to stay diagnosable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Validate compiles every regex in the Config and checks every consistency
// rule from original_source's consistency_check: zero-width segments, the
// tag-create regex's single capture group, each rule's segment-value count
// against the segment count, each rule's capture count against its regex's
// capture count, and every self-reference/feedback segment+index bound.
//
// Validate mutates cfg in place (compiling regexes into their Regex
// fields) and must be called exactly once, before the Config is handed to
// a Parser.
func (cfg *Config) Validate() error {
	for _, width := range cfg.SegmentWidths {
		if width <= 0 || width > 8 {
			return invalid("config: segment width %d is out of the 1..=8 range", width)
		}
	}
	numSegments := len(cfg.SegmentWidths)

	tagRegex, err := regexp.Compile(cfg.TagCreate.RegexString)
	if err != nil {
		return invalid("config: failed to parse tag create regex %q: %v", cfg.TagCreate.RegexString, err)
	}
	if tagRegex.NumSubexp() != 1 {
		return invalid("config: the tag create regex %q must have exactly one capture group for the tag", cfg.TagCreate.RegexString)
	}
	cfg.TagCreate.Regex = tagRegex

	for i := range cfg.Rules {
		rule := &cfg.Rules[i]

		if len(rule.SegmentValues) != numSegments {
			return invalid("config: rule %q contains %d segment value lists, expected %d", rule.RegexString, len(rule.SegmentValues), numSegments)
		}

		re, err := regexp.Compile(rule.RegexString)
		if err != nil {
			return invalid("config: failed to parse regex %q: %v", rule.RegexString, err)
		}
		if re.NumSubexp() != len(rule.Captures) {
			return invalid("config: rule %q has %d capture groups but %d capture descriptors", rule.RegexString, re.NumSubexp(), len(rule.Captures))
		}
		rule.Regex = re

		segmentCounts := make([]int, len(rule.SegmentValues))
		for j, vals := range rule.SegmentValues {
			segmentCounts[j] = len(vals)
		}

		for _, sr := range rule.SelfReferences {
			if sr.FromSegment >= numSegments {
				return invalid("config: rule %q self-references invalid segment %d", rule.RegexString, sr.FromSegment)
			}
			if sr.AddSegment >= len(segmentCounts) {
				return invalid("config: rule %q self-reference targets invalid segment %d", rule.RegexString, sr.AddSegment)
			}
			if sr.AddIndex >= segmentCounts[sr.AddSegment] {
				return invalid("config: rule %q self-reference targets invalid index %d of segment %d", rule.RegexString, sr.AddIndex, sr.AddSegment)
			}
		}

		for _, capt := range rule.Captures {
			switch capt.Kind {
			case CaptureTag:
				for _, fb := range capt.TagFeedbacks {
					if fb.FromSegment >= numSegments {
						return invalid("config: rule %q tag feedback reads invalid segment %d", rule.RegexString, fb.FromSegment)
					}
					if fb.AddSegment >= len(segmentCounts) {
						return invalid("config: rule %q tag feedback targets invalid segment %d", rule.RegexString, fb.AddSegment)
					}
					if fb.AddIndex >= segmentCounts[fb.AddSegment] {
						return invalid("config: rule %q tag feedback targets invalid index %d of segment %d", rule.RegexString, fb.AddIndex, fb.AddSegment)
					}
				}
			case CaptureString:
				if capt.AddSegment >= numSegments {
					return invalid("config: rule %q string capture targets invalid segment %d", rule.RegexString, capt.AddSegment)
				}
			case CaptureNumber:
				if capt.Base < 2 || capt.Base > 36 {
					return invalid("config: rule %q number capture has invalid base %d", rule.RegexString, capt.Base)
				}
				for _, fb := range capt.NumFeedbacks {
					if fb.Segment >= len(segmentCounts) {
						return invalid("config: rule %q number feedback targets invalid segment %d", rule.RegexString, fb.Segment)
					}
					if fb.Index >= segmentCounts[fb.Segment] {
						return invalid("config: rule %q number feedback targets invalid index %d of segment %d", rule.RegexString, fb.Index, fb.Segment)
					}
				}
			}
		}
	}

	return nil
}
