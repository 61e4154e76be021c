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

// Package codec implements the FIX 4.4 wire codec: framing, checksum,
// sequence-number policy, and tag=value encoding/decoding including
// repeating groups. It is deliberately hand rolled byte-for-byte, the same
// way every production FIX engine (including the one this engine replaces,
// quickfixgo) handles SOH-delimited tag/value wire format; see
// fixclient/parser.go for the raw-scanning style this generalizes from.
package codec

import (
	"errors"
	"fmt"

	"github.com/coinbase-samples/fixengine-go/tag"
)

const soh = 0x01

// beginStringField is the literal wire prefix for every FIX.4.4 frame.
var beginStringField = []byte("8=" + tag.Version + "\x01")

// Sentinel error kinds, wrapped with context via fmt.Errorf("%w: ...").
var (
	ErrIncomplete        = errors.New("codec: incomplete frame, need more data")
	ErrBadBodyLength     = errors.New("codec: malformed or implausible BodyLength")
	ErrBadChecksum       = errors.New("codec: checksum mismatch")
	ErrMalformedChecksum = errors.New("codec: malformed CheckSum field")
	ErrMalformedTag      = errors.New("codec: malformed tag=value pair")
	ErrFirstTagNotMsgType = errors.New("codec: first body tag is not MsgType")
	ErrIncompleteGroup   = errors.New("codec: repeating group entry count mismatch")
	ErrUnmappedGroup     = errors.New("codec: group tag not declared in protocol profile")
	ErrEncoding          = errors.New("codec: encode precondition violated")
)

// maxBodyLength guards against a corrupt or adversarial BodyLength value
// forcing the caller to buffer unbounded memory before the frame completes.
const maxBodyLength = 16 * 1024 * 1024

// GroupSpec describes one repeating group as declared by a protocol
// profile (package fix44): the delimiter tag that marks the start of each
// entry, and the full set of tags (including nested group tags) that may
// legally appear inside one entry. A zero Delimiter means "infer from the
// wire": the first tag encountered after the count field is taken as the
// delimiter, matching the common FIX convention of omitting an explicit
// delimiter declaration for simple groups.
type GroupSpec struct {
	Delimiter tag.Tag
	Members   map[tag.Tag]bool
}

// GroupProfile supplies the per-MsgType repeating-group declarations the
// decoder needs to tell a NoXXX count field apart from an ordinary scalar,
// and to know where one group's entries end and the parent's fields
// resume. package fix44 implements this for the FIX.4.4 dictionary.
type GroupProfile interface {
	GroupSpec(msgType string, groupTag tag.Tag) (GroupSpec, bool)
}

// token is one decoded (tag, value) pair from the wire.
type token struct {
	tag   tag.Tag
	value string
}

// tokenizer scans a body byte slice into tag=value<SOH> tokens, with a
// single-slot pushback so group parsing can return an out-of-group tag to
// its caller once a repeating group's declared entry count is satisfied.
type tokenizer struct {
	data    []byte
	pos     int
	pending *token
}

func newTokenizer(data []byte) *tokenizer {
	return &tokenizer{data: data}
}

func (tk *tokenizer) pushback(t token) {
	tk.pending = &t
}

// next returns the next token, ok=false at end of input, or an error on a
// malformed tag=value pair.
func (tk *tokenizer) next() (token, bool, error) {
	if tk.pending != nil {
		t := *tk.pending
		tk.pending = nil
		return t, true, nil
	}
	if tk.pos >= len(tk.data) {
		return token{}, false, nil
	}

	rest := tk.data[tk.pos:]
	eq := indexByte(rest, '=')
	if eq == -1 {
		return token{}, false, fmt.Errorf("%w: missing '=' at offset %d", ErrMalformedTag, tk.pos)
	}
	n, err := parseUint(rest[:eq])
	if err != nil {
		return token{}, false, fmt.Errorf("%w: non-numeric tag at offset %d: %w", ErrMalformedTag, tk.pos, err)
	}

	valueStart := eq + 1
	sohIdx := indexByte(rest[valueStart:], soh)
	if sohIdx == -1 {
		return token{}, false, fmt.Errorf("%w: unterminated value for tag %d", ErrMalformedTag, n)
	}
	value := string(rest[valueStart : valueStart+sohIdx])
	tk.pos += valueStart + sohIdx + 1
	return token{tag: tag.Tag(n), value: value}, true, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func parseUint(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("empty")
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit byte %q", c)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func checksum(b []byte) int {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}
