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

// shift applies spec.md's shift(x, s): a negative s is a logical
// (unsigned) right shift by -s, a non-negative s is a left shift by s.
// Both happen at 64-bit unsigned width with wraparound on overflow, which
// Go's uint64 shift operators give for free.
func shift(x uint64, s int32) uint64 {
	if s < 0 {
		return x >> uint(-s)
	}
	return x << uint(s)
}

// negate returns the unsigned two's-complement negation used by
// NumFeedback.Negate: bitwise-not plus one, wrapping at 64 bits exactly
// like the Rust `!shiftval + 1`.
func negate(x uint64) uint64 {
	return ^x + 1
}
