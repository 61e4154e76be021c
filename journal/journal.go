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

// Package journal persists encoded FIX frames keyed by (session, direction,
// seq_no), per spec §4.4: the append-only log the connection engine reads
// back from to answer resend requests and writes to before handing an
// outbound frame to transport. SQLiteJournal is the default persistent
// implementation; MemoryJournal backs tests and is usable standalone.
package journal

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/coinbase-samples/fixengine-go/fixsession"
)

// Direction is which side of the wire a persisted message travelled.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// ErrDuplicateSeqNo is a critical error per spec §7: a (session, direction,
// seq_no) primary key collision indicates journal integrity has already
// been violated upstream. Callers should treat this as unrecoverable and
// terminate the session.
var ErrDuplicateSeqNo = errors.New("journal: duplicate (session, direction, seq_no)")

// ErrNotFound is returned by RecoverMsg when no message exists at the
// requested sequence number.
var ErrNotFound = errors.New("journal: message not found")

// Journal is the persistence contract spec §4.4 and §6 describe. All
// operations must serialize writes per (session, direction); see spec §5
// "Shared resources".
type Journal interface {
	// Sessions returns every known session keyed by its (sender, target)
	// identity, loaded with last-seen sequence numbers.
	Sessions() (map[fixsession.Key]*fixsession.Session, error)

	// CreateOrLoad returns the Session for (senderCompID, targetCompID),
	// creating one with both counters at 1 if none is persisted yet.
	CreateOrLoad(senderCompID, targetCompID string) (*fixsession.Session, error)

	// SetSeqNum updates a session's persisted sequence numbers. A zero
	// value for out or in leaves that counter unchanged. Resetting either
	// counter to 1 wipes the session's entire persisted message log, per
	// spec §9 "Resetting sequence numbers is a destructive operation".
	SetSeqNum(sess *fixsession.Session, out, in int) error

	// PersistMsg writes raw (an encoded frame) under the seq_no parsed
	// from its own MsgSeqNum field. A duplicate primary key returns
	// ErrDuplicateSeqNo.
	PersistMsg(raw []byte, sess *fixsession.Session, dir Direction) error

	// RecoverMsg returns the raw bytes persisted at exactly seq, or
	// ErrNotFound.
	RecoverMsg(sess *fixsession.Session, dir Direction, seq int) ([]byte, error)

	// RecoverMessages returns raw bytes for [start, end] in seq order.
	// end == 0 means "through the highest persisted sequence number".
	RecoverMessages(sess *fixsession.Session, dir Direction, start, end int) ([][]byte, error)

	Close() error
}

// FindSeqNo extracts MsgSeqNum (34) from an encoded frame without fully
// decoding it, per spec §4.4. It scans for the SOH-delimited "34=" field
// directly rather than constructing a message.Message, since the journal
// must not depend on the codec to do its job (spec §1 keeps them as
// independent core subsystems).
func FindSeqNo(raw []byte) (int, error) {
	marker := []byte("\x0134=")
	idx := bytes.Index(raw, marker)
	if idx == -1 {
		return 0, fmt.Errorf("journal: no MsgSeqNum field in frame")
	}
	start := idx + len(marker)
	end := bytes.IndexByte(raw[start:], 0x01)
	if end == -1 {
		return 0, fmt.Errorf("journal: unterminated MsgSeqNum field")
	}
	seq, err := strconv.Atoi(string(raw[start : start+end]))
	if err != nil {
		return 0, fmt.Errorf("journal: malformed MsgSeqNum: %w", err)
	}
	return seq, nil
}
