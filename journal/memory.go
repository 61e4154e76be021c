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

package journal

import (
	"fmt"
	"sync"

	"github.com/coinbase-samples/fixengine-go/fixsession"
)

type msgKey struct {
	fixsession.Key
	dir Direction
	seq int
}

// MemoryJournal is a non-persistent Journal implementation: it satisfies
// the full contract (including the duplicate-seq-no and log-wipe
// invariants) for unit tests and for standalone use where durability
// across process restarts isn't required.
type MemoryJournal struct {
	mu       sync.Mutex
	sessions map[fixsession.Key]*fixsession.Session
	messages map[msgKey][]byte
}

// NewMemoryJournal returns an empty MemoryJournal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		sessions: make(map[fixsession.Key]*fixsession.Session),
		messages: make(map[msgKey][]byte),
	}
}

func (j *MemoryJournal) Sessions() (map[fixsession.Key]*fixsession.Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[fixsession.Key]*fixsession.Session, len(j.sessions))
	for k, s := range j.sessions {
		out[k] = s
	}
	return out, nil
}

func (j *MemoryJournal) CreateOrLoad(senderCompID, targetCompID string) (*fixsession.Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := fixsession.Key{SenderCompID: senderCompID, TargetCompID: targetCompID}
	if sess, ok := j.sessions[key]; ok {
		return sess, nil
	}
	sess := fixsession.New(senderCompID, targetCompID)
	j.sessions[key] = sess
	return sess, nil
}

func (j *MemoryJournal) SetSeqNum(sess *fixsession.Session, out, in int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	sess.SetSeqNums(out, in)
	if out == 1 || in == 1 {
		j.wipeLog(sess.Key())
	}
	return nil
}

func (j *MemoryJournal) wipeLog(key fixsession.Key) {
	for k := range j.messages {
		if k.Key == key {
			delete(j.messages, k)
		}
	}
}

func (j *MemoryJournal) PersistMsg(raw []byte, sess *fixsession.Session, dir Direction) error {
	seq, err := FindSeqNo(raw)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	key := msgKey{Key: sess.Key(), dir: dir, seq: seq}
	if _, exists := j.messages[key]; exists {
		return fmt.Errorf("%w: session %s dir %s seq %d", ErrDuplicateSeqNo, sess.Key(), dir, seq)
	}

	stored := make([]byte, len(raw))
	copy(stored, raw)
	j.messages[key] = stored
	return nil
}

func (j *MemoryJournal) RecoverMsg(sess *fixsession.Session, dir Direction, seq int) ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	raw, ok := j.messages[msgKey{Key: sess.Key(), dir: dir, seq: seq}]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (j *MemoryJournal) RecoverMessages(sess *fixsession.Session, dir Direction, start, end int) ([][]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := sess.Key()
	highest := start - 1
	for k := range j.messages {
		if k.Key == key && k.dir == dir && k.seq > highest {
			highest = k.seq
		}
	}
	if end == 0 {
		end = highest
	}

	out := make([][]byte, 0, end-start+1)
	for seq := start; seq <= end; seq++ {
		raw, ok := j.messages[msgKey{Key: key, dir: dir, seq: seq}]
		if !ok {
			continue
		}
		copied := make([]byte, len(raw))
		copy(copied, raw)
		out = append(out, copied)
	}
	return out, nil
}

func (j *MemoryJournal) Close() error {
	return nil
}
