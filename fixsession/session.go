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

// Package fixsession holds per-peer identity and sequence-number state:
// the (sender, target) identity pair and the monotonic next_num_out/
// next_num_in counters spec §4.3 describes. A Session is the unit of
// identity the journal keys persisted messages on.
package fixsession

import (
	"fmt"
	"sync"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// Key identifies a session by its comp-id pair, from our side's
// perspective: the identity we present as Sender and the peer we expect as
// Target.
type Key struct {
	SenderCompID string
	TargetCompID string
}

// String renders the key the way the journal uses it as a storage key.
func (k Key) String() string {
	return fmt.Sprintf("%s->%s", k.SenderCompID, k.TargetCompID)
}

// GapResult is the outcome of SetNextNumIn classifying an inbound
// MsgSeqNum against next_num_in, per spec §4.3.
type GapResult int

const (
	// GapNone means MsgSeqNum matched next_num_in; it was consumed and
	// next_num_in advanced.
	GapNone GapResult = iota
	// GapDuplicate means MsgSeqNum was less than next_num_in: either a
	// true duplicate (PossDupFlag=Y, ignore) or a protocol error
	// (disconnect), left for the caller (connection engine) to decide.
	GapDuplicate
	// GapDetected means MsgSeqNum exceeded next_num_in: a resend request
	// must be triggered.
	GapDetected
)

// Session is not safe for unsynchronized concurrent use from outside its
// owning connection goroutine, but guards its counters with a mutex anyway
// since the journal's set_seq_num path and a resend-replay path may touch
// the same Session from adjacent code, matching the defensive style of
// fixclient's mutex-guarded stores.
type Session struct {
	mu sync.Mutex

	key         Key
	nextNumOut  int
	nextNumIn   int
}

// New creates a Session with both counters starting at 1, per spec §3
// ("sequence numbers start at 1").
func New(senderCompID, targetCompID string) *Session {
	return &Session{
		key:        Key{SenderCompID: senderCompID, TargetCompID: targetCompID},
		nextNumOut: 1,
		nextNumIn:  1,
	}
}

// Restore creates a Session with counters loaded from persisted state
// (package journal's create_or_load path).
func Restore(senderCompID, targetCompID string, nextNumOut, nextNumIn int) *Session {
	return &Session{
		key:        Key{SenderCompID: senderCompID, TargetCompID: targetCompID},
		nextNumOut: nextNumOut,
		nextNumIn:  nextNumIn,
	}
}

// Key returns the session's identity.
func (s *Session) Key() Key {
	return s.key
}

// SenderCompID implements codec.Session.
func (s *Session) SenderCompID() string {
	return s.key.SenderCompID
}

// TargetCompID implements codec.Session.
func (s *Session) TargetCompID() string {
	return s.key.TargetCompID
}

// NextNumOut returns the next sequence number that would be allocated,
// without consuming it.
func (s *Session) NextNumOut() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNumOut
}

// NextNumIn returns the next expected inbound sequence number.
func (s *Session) NextNumIn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNumIn
}

// AllocateNextNumOut returns next_num_out then increments it. Implements
// codec.Session.
func (s *Session) AllocateNextNumOut() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextNumOut
	s.nextNumOut++
	return n
}

// SetNextNumIn classifies an inbound message's MsgSeqNum against
// next_num_in per spec §4.3: equal advances and returns GapNone with the
// consumed seq; less returns GapDuplicate (caller decides based on
// PossDupFlag); greater returns GapDetected without mutating state (the
// caller triggers a resend and re-evaluates once the gap closes).
func (s *Session) SetNextNumIn(msg *message.Message) (GapResult, int, error) {
	raw, err := msg.Get(tag.MsgSeqNum)
	if err != nil {
		return GapNone, 0, fmt.Errorf("fixsession: inbound message missing MsgSeqNum: %w", err)
	}
	seq, err := parseSeq(raw)
	if err != nil {
		return GapNone, 0, fmt.Errorf("fixsession: malformed MsgSeqNum %q: %w", raw, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case seq == s.nextNumIn:
		s.nextNumIn++
		return GapNone, seq, nil
	case seq < s.nextNumIn:
		return GapDuplicate, seq, nil
	default:
		return GapDetected, seq, nil
	}
}

// SetSeqNums overwrites both counters directly, used by Logon's
// ResetSeqNumFlag handling and by package journal's set_seq_num. A zero
// value for either leaves that counter untouched.
func (s *Session) SetSeqNums(out, in int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out != 0 {
		s.nextNumOut = out
	}
	if in != 0 {
		s.nextNumIn = in
	}
}

// ValidateCompIds checks identity symmetry: an inbound message's
// SenderCompID must equal our configured TargetCompID, and its
// TargetCompID must equal our configured SenderCompID.
func (s *Session) ValidateCompIds(msgSenderCompID, msgTargetCompID string) error {
	if msgSenderCompID != s.key.TargetCompID {
		return fmt.Errorf("fixsession: unexpected SenderCompID %q, want %q", msgSenderCompID, s.key.TargetCompID)
	}
	if msgTargetCompID != s.key.SenderCompID {
		return fmt.Errorf("fixsession: unexpected TargetCompID %q, want %q", msgTargetCompID, s.key.SenderCompID)
	}
	return nil
}

func parseSeq(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty MsgSeqNum")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit in MsgSeqNum")
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
