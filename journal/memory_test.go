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
	"bytes"
	"errors"
	"testing"
)

func frameWithSeq(seq int) []byte {
	return []byte(fmtFrame(seq))
}

func fmtFrame(seq int) string {
	return "8=FIX.4.4\x019=20\x0135=0\x0134=" + itoaForTest(seq) + "\x0110=000\x01"
}

func itoaForTest(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestFindSeqNo(t *testing.T) {
	seq, err := FindSeqNo(frameWithSeq(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 42 {
		t.Errorf("expected 42, got %d", seq)
	}
}

func TestMemoryJournal_CreateOrLoad(t *testing.T) {
	j := NewMemoryJournal()
	s1, err := j.CreateOrLoad("ME", "YOU")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := j.CreateOrLoad("ME", "YOU")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s1 != s2 {
		t.Errorf("expected CreateOrLoad to return the same session instance")
	}
}

func TestMemoryJournal_PersistAndRecover(t *testing.T) {
	j := NewMemoryJournal()
	sess, _ := j.CreateOrLoad("ME", "YOU")

	if err := j.PersistMsg(frameWithSeq(1), sess, Outbound); err != nil {
		t.Fatalf("persist: %v", err)
	}

	raw, err := j.RecoverMsg(sess, Outbound, 1)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !bytes.Equal(raw, frameWithSeq(1)) {
		t.Errorf("recovered bytes do not match persisted bytes")
	}
}

func TestMemoryJournal_DuplicateSeqNoRejected(t *testing.T) {
	j := NewMemoryJournal()
	sess, _ := j.CreateOrLoad("ME", "YOU")

	if err := j.PersistMsg(frameWithSeq(1), sess, Outbound); err != nil {
		t.Fatalf("persist: %v", err)
	}
	err := j.PersistMsg(frameWithSeq(1), sess, Outbound)
	if !errors.Is(err, ErrDuplicateSeqNo) {
		t.Errorf("expected ErrDuplicateSeqNo, got %v", err)
	}
}

func TestMemoryJournal_RecoverMessagesRange(t *testing.T) {
	j := NewMemoryJournal()
	sess, _ := j.CreateOrLoad("ME", "YOU")

	for seq := 1; seq <= 5; seq++ {
		if err := j.PersistMsg(frameWithSeq(seq), sess, Outbound); err != nil {
			t.Fatalf("persist %d: %v", seq, err)
		}
	}

	msgs, err := j.RecoverMessages(sess, Outbound, 2, 4)
	if err != nil {
		t.Fatalf("recover messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	all, err := j.RecoverMessages(sess, Outbound, 1, 0)
	if err != nil {
		t.Fatalf("recover messages through highest: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 messages through highest, got %d", len(all))
	}
}

func TestMemoryJournal_SetSeqNumWipesLogOnReset(t *testing.T) {
	j := NewMemoryJournal()
	sess, _ := j.CreateOrLoad("ME", "YOU")
	_ = j.PersistMsg(frameWithSeq(1), sess, Outbound)
	_ = j.PersistMsg(frameWithSeq(2), sess, Outbound)

	if err := j.SetSeqNum(sess, 1, 1); err != nil {
		t.Fatalf("set seq num: %v", err)
	}

	msgs, err := j.RecoverMessages(sess, Outbound, 1, 2)
	if err != nil {
		t.Fatalf("recover messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected log wiped after reset to 1, got %d messages", len(msgs))
	}
	if sess.NextNumOut() != 1 || sess.NextNumIn() != 1 {
		t.Errorf("expected counters reset to 1, got out=%d in=%d", sess.NextNumOut(), sess.NextNumIn())
	}
}
