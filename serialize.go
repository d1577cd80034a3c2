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
	"encoding/binary"
	"fmt"
	"io"
)

// OutputFormat selects one of the three byte-level serializations spec.md
// §4.7 describes.
type OutputFormat int

const (
	LittleEndian OutputFormat = iota
	BigEndian
	HexList
)

// hexDigits avoids the allocation fmt.Sprintf("%02X", b) would cost per
// byte on a long segment.
const hexDigits = "0123456789ABCDEF"

// WriteSegment serializes one segment's words to w in the given format.
// The byte width is the one configured for that segment. Call only after
// Link.
//
// Per spec.md §4.7 and its explicit "Open question — big-endian
// truncation" note, little-endian and big-endian truncate from opposite
// ends of the full 8-byte encoding and that asymmetry is intentional:
// LittleEndian keeps bytes [0:w) of the little-endian encoding (low
// bytes); BigEndian keeps bytes [8-w:8) of the big-endian encoding (also
// the low-order bytes of the value, but at the high end of the 8-byte
// buffer). HexList reuses BigEndian's byte order.
func (p *Parser) WriteSegment(w io.Writer, format OutputFormat, segment int) error {
	width := p.widthOf(segment)
	var buf [8]byte

	for _, val := range p.segments[segment] {
		switch format {
		case LittleEndian:
			binary.LittleEndian.PutUint64(buf[:], val)
			if _, err := w.Write(buf[:width]); err != nil {
				return wrapf(ErrOutputUnwritable, 0, err, "failed to write segment %d", segment)
			}
		case BigEndian:
			binary.BigEndian.PutUint64(buf[:], val)
			if _, err := w.Write(buf[8-width:]); err != nil {
				return wrapf(ErrOutputUnwritable, 0, err, "failed to write segment %d", segment)
			}
		case HexList:
			binary.BigEndian.PutUint64(buf[:], val)
			line := hexEncodeLine(buf[8-width:])
			if _, err := w.Write(line); err != nil {
				return wrapf(ErrOutputUnwritable, 0, err, "failed to write segment %d", segment)
			}
		default:
			return fatalf(ErrOutputUnwritable, 0, "unknown output format %d", int(format))
		}
	}
	return nil
}

func hexEncodeLine(bs []byte) []byte {
	out := make([]byte, len(bs)*2+1)
	for i, b := range bs {
		out[2*i] = hexDigits[b>>4]
		out[2*i+1] = hexDigits[b&0x0f]
	}
	out[len(out)-1] = '\n'
	return out
}

func (p *Parser) widthOf(segment int) int {
	return p.cfg.SegmentWidths[segment]
}

func (f OutputFormat) String() string {
	switch f {
	case LittleEndian:
		return "little-endian"
	case BigEndian:
		return "big-endian"
	case HexList:
		return "hex-list"
	default:
		return fmt.Sprintf("OutputFormat(%d)", int(f))
	}
}

// ParseOutputFormat maps the CLI's -f/--format values (spec.md §6) onto
// an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "little-endian":
		return LittleEndian, nil
	case "big-endian":
		return BigEndian, nil
	case "hex-list":
		return HexList, nil
	default:
		return 0, fmt.Errorf("unrecognized output format %q", s)
	}
}
