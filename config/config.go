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

// Package config holds the immutable, loaded-once description of an
// assembly run: segment widths, the tag-creation regex, and the ordered
// rule list that drives token dispatch. Nothing in this package mutates
// after Load returns a validated Config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the full, validated configuration for one assembler run.
// It is produced once by Load and never modified afterward; the asm
// package only ever reads from it.
type Config struct {
	SegmentWidths   []int         `json:"segment_widths"`
	SplitWhitespace bool          `json:"split_whitespace"`
	TagCreate       TagCreateRule `json:"tag_create"`
	Rules           []Rule        `json:"rules"`
}

// TagCreateRule is the single regex that recognizes a tag-creation token.
// It must have exactly one capture group: the tag name.
type TagCreateRule struct {
	RegexString string `json:"regex"`
	Regex       *regexp.Regexp `json:"-"`
}

// Rule is one entry in the match-priority-ordered rule list. The first
// rule whose regex matches a token whole wins; its captures drive the
// per-segment emission described below.
type Rule struct {
	RegexString    string        `json:"regex"`
	Regex          *regexp.Regexp `json:"-"`
	SegmentValues  [][]uint64    `json:"segment_values"`
	SelfReferences []TagFeedback `json:"self_references"`
	Captures       []Capture     `json:"captures"`
}

// TagFeedback describes where an absolute position (drawn from a tag, or
// from a self-reference's own emission position) lands in a rule's
// template values. The same shape is reused, per spec, for self
// references — where Relative is always ignored.
type TagFeedback struct {
	FromSegment int   `json:"from_segment"`
	Relative    bool  `json:"relative"`
	Shift       int32 `json:"shift"`
	AddSegment  int   `json:"add_segment"`
	AddIndex    int   `json:"add_index"`
	Offset      int64 `json:"offset"`
}

// NumFeedback describes one place a parsed numeric capture is fed back
// into a rule's template values, or used to drive a fill/align run.
type NumFeedback struct {
	Negate     bool  `json:"negate"`
	Shift      int32 `json:"shift"`
	Segment    int   `json:"segment"`
	Index      int   `json:"index"`
	Fill       bool  `json:"fill"`
	FillOffset int64 `json:"fill_offset"`
	Align      bool  `json:"align"`
}

// CaptureKind tags which variant of Capture is populated. Go has no sum
// types, so this is the sum-of-products encoding spec.md §9 asks for: one
// discriminant plus the union of every variant's fields, never a type
// hierarchy.
type CaptureKind int

const (
	CaptureTag CaptureKind = iota
	CaptureString
	CaptureNumber
)

// Capture describes how one regex capture group of a fired Rule is
// dispatched. Exactly one of the per-kind field groups below is
// meaningful, selected by Kind.
type Capture struct {
	Kind CaptureKind

	// CaptureTag
	TagFeedbacks []TagFeedback

	// CaptureString
	AddSegment int

	// CaptureNumber
	Base         int
	NumFeedbacks []NumFeedback
}

func defaultNumFeedback() NumFeedback {
	return NumFeedback{FillOffset: -1}
}

// captureWire is the on-disk shape of a Capture: a "type" discriminator
// plus the union of every variant's JSON fields. Defaults are applied by
// seeding the relevant sub-struct before decoding over it, mirroring the
// #[serde(default = "...")] functions in the original Rust config model.
type captureWire struct {
	Type         string        `json:"type"`
	Feedbacks    []json.RawMessage `json:"feedbacks"`
	AddSegment   int           `json:"add_segment"`
	Base         int           `json:"base"`
}

func (c *Capture) UnmarshalJSON(data []byte) error {
	var wire captureWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("config: failed to parse capture: %w", err)
	}
	switch wire.Type {
	case "tag":
		feedbacks := make([]TagFeedback, 0, len(wire.Feedbacks))
		for _, raw := range wire.Feedbacks {
			var f TagFeedback
			if err := json.Unmarshal(raw, &f); err != nil {
				return fmt.Errorf("config: failed to parse tag feedback: %w", err)
			}
			feedbacks = append(feedbacks, f)
		}
		*c = Capture{Kind: CaptureTag, TagFeedbacks: feedbacks}
	case "string":
		*c = Capture{Kind: CaptureString, AddSegment: wire.AddSegment}
	case "number":
		feedbacks := make([]NumFeedback, 0, len(wire.Feedbacks))
		for _, raw := range wire.Feedbacks {
			f := defaultNumFeedback()
			if err := json.Unmarshal(raw, &f); err != nil {
				return fmt.Errorf("config: failed to parse number feedback: %w", err)
			}
			feedbacks = append(feedbacks, f)
		}
		*c = Capture{Kind: CaptureNumber, Base: wire.Base, NumFeedbacks: feedbacks}
	default:
		return fmt.Errorf("config: unrecognized capture type %q", wire.Type)
	}
	return nil
}

// Load reads a JSON configuration file, compiles every regex it contains,
// and runs Validate before returning it. This is the one concrete
// implementation of the "external config loader" spec.md §1 treats as a
// collaborator outside the assembler core.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to open %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q as JSON: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
