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

package codec

import (
	"errors"
	"testing"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// fakeSession is a minimal Session for encode tests; fixsession.Session
// satisfies the same interface.
type fakeSession struct {
	sender, target string
	nextOut         int
}

func (s *fakeSession) AllocateNextNumOut() int {
	s.nextOut++
	return s.nextOut
}
func (s *fakeSession) SenderCompID() string { return s.sender }
func (s *fakeSession) TargetCompID() string { return s.target }

// noGroups is a GroupProfile that declares no repeating groups, for tests
// that don't exercise group expansion.
type noGroups struct{}

func (noGroups) GroupSpec(string, tag.Tag) (GroupSpec, bool) { return GroupSpec{}, false }

// mdGroups declares NoMdEntries for MarketDataSnapshot, with MdEntryType as
// the delimiter and MdEntrySize/MdEntryPx as the only other members.
type mdGroups struct{}

func (mdGroups) GroupSpec(msgType string, t tag.Tag) (GroupSpec, bool) {
	if msgType == tag.MsgTypeMarketDataSnapshot && t == tag.NoMdEntries {
		return GroupSpec{
			Delimiter: tag.MdEntryType,
			Members: map[tag.Tag]bool{
				tag.MdEntryType: true,
				tag.MdEntrySize: true,
				tag.MdEntryPx:   true,
			},
		}, true
	}
	return GroupSpec{}, false
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	sess := &fakeSession{sender: "CLIENT", target: "BROKER"}

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)
	_ = msg.Set(tag.OrderQty, "1.5")
	_ = msg.Set(tag.OrdType, tag.OrdTypeLimit)
	_ = msg.Set(tag.Price, "50000")

	wire, err := Encode(msg, sess, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, consumed, raw, err := Decode(wire, noGroups{}, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(wire) {
		t.Errorf("expected to consume all %d bytes, consumed %d", len(wire), consumed)
	}
	if len(raw) != len(wire) {
		t.Errorf("expected raw frame of length %d, got %d", len(wire), len(raw))
	}

	if decoded.MsgType() != tag.MsgTypeNewOrderSingle {
		t.Errorf("expected MsgType D, got %s", decoded.MsgType())
	}
	if v, _ := decoded.Get(tag.ClOrdID); v != "C1" {
		t.Errorf("expected ClOrdID C1, got %s", v)
	}
	if v, _ := decoded.Get(tag.MsgSeqNum); v != "1" {
		t.Errorf("expected MsgSeqNum 1, got %s", v)
	}
	if v, _ := decoded.Get(tag.SenderCompID); v != "CLIENT" {
		t.Errorf("expected SenderCompID CLIENT, got %s", v)
	}
}

func TestEncode_SeqNumAllocatesSequentially(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	for i := 1; i <= 3; i++ {
		msg := message.New(tag.MsgTypeNewOrderSingle)
		_ = msg.Set(tag.ClOrdID, "C")
		wire, err := Encode(msg, sess, false)
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		decoded, _, _, err := Decode(wire, noGroups{}, false)
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		v, _ := decoded.Get(tag.MsgSeqNum)
		if v != string(rune('0'+i)) {
			t.Errorf("message %d: expected seq num %d, got %s", i, i, v)
		}
	}
}

func TestEncode_PresetSeqNumRejectedWithoutRaw(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeNewOrderSingle)
	msg.SetRawSeqNum(42)

	_, err := Encode(msg, sess, false)
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("expected ErrEncoding, got %v", err)
	}
}

func TestEncode_RawSeqNumRejectedForNonAdmin(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeNewOrderSingle)
	msg.SetRawSeqNum(7)

	_, err := Encode(msg, sess, true)
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("expected ErrEncoding, got %v", err)
	}
}

func TestEncode_RawSeqNumUsedForAdmin(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeSequenceReset)
	msg.SetRawSeqNum(100)
	_ = msg.Set(tag.NewSeqNo, "105")
	_ = msg.Set(tag.GapFillFlag, "Y")

	wire, err := Encode(msg, sess, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, _, _, err := Decode(wire, noGroups{}, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, _ := decoded.Get(tag.MsgSeqNum); v != "100" {
		t.Errorf("expected raw MsgSeqNum 100, got %s", v)
	}
	if sess.nextOut != 0 {
		t.Errorf("raw_seq_num path must not advance session counter, got %d", sess.nextOut)
	}
}

func TestDecode_NeedsMoreData(t *testing.T) {
	partial := []byte("8=FIX.4.4\x019=20\x0135=D\x0111=")
	msg, consumed, raw, err := Decode(partial, noGroups{}, false)
	if msg != nil || consumed != 0 || raw != nil || err != nil {
		t.Errorf("expected (nil, 0, nil, nil) for partial frame, got (%v, %d, %v, %v)", msg, consumed, raw, err)
	}
}

func TestDecode_SkipsGarbagePrefix(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeHeartbeat)
	wire, err := Encode(msg, sess, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	garbage := append([]byte("garbage-bytes-before-frame"), wire...)
	decoded, consumed, _, err := Decode(garbage, noGroups{}, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.MsgType() != tag.MsgTypeHeartbeat {
		t.Errorf("expected Heartbeat, got %s", decoded.MsgType())
	}
	if consumed != len(garbage) {
		t.Errorf("expected consumed %d, got %d", len(garbage), consumed)
	}
}

func TestDecode_BadChecksumSkipsWholeFrame(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeHeartbeat)
	wire, err := Encode(msg, sess, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	wire[len(wire)-2] ^= 1 // corrupt one checksum digit

	decoded, consumed, raw, err := Decode(wire, noGroups{}, false)
	if decoded != nil || raw != nil {
		t.Errorf("expected nil message/raw on bad checksum")
	}
	if consumed != len(wire) {
		t.Errorf("expected full frame skipped, got consumed=%d", consumed)
	}
	if !errors.Is(err, ErrBadChecksum) {
		t.Errorf("expected ErrBadChecksum, got %v", err)
	}
}

func TestDecode_BadChecksumSilentModeSwallowsError(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeHeartbeat)
	wire, err := Encode(msg, sess, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	wire[len(wire)-2] ^= 1

	decoded, consumed, raw, err := Decode(wire, noGroups{}, true)
	if decoded != nil || raw != nil || err != nil {
		t.Errorf("expected (nil, n, nil, nil) in silent mode, got (%v, %d, %v, %v)", decoded, consumed, raw, err)
	}
	if consumed != len(wire) {
		t.Errorf("expected full frame skipped, got consumed=%d", consumed)
	}
}

func TestEncodeDecode_RepeatingGroupRoundTrip(t *testing.T) {
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeMarketDataSnapshot)
	_ = msg.Set(tag.Symbol, "BTC-USD")

	e1 := msg.AddGroupEntry(tag.NoMdEntries)
	_ = e1.Set(tag.MdEntryType, tag.MdEntryTypeBid)
	_ = e1.Set(tag.MdEntryPx, "50000")
	_ = e1.Set(tag.MdEntrySize, "2")

	e2 := msg.AddGroupEntry(tag.NoMdEntries)
	_ = e2.Set(tag.MdEntryType, tag.MdEntryTypeOffer)
	_ = e2.Set(tag.MdEntryPx, "50010")
	_ = e2.Set(tag.MdEntrySize, "3")

	wire, err := Encode(msg, sess, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, _, _, err := Decode(wire, mdGroups{}, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	group, err := decoded.GetGroup(tag.NoMdEntries)
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(group) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(group))
	}
	if v, _ := group[0].Get(tag.MdEntryType); v != tag.MdEntryTypeBid {
		t.Errorf("entry 0: expected bid, got %s", v)
	}
	if v, _ := group[1].Get(tag.MdEntryPx); v != "50010" {
		t.Errorf("entry 1: expected px 50010, got %s", v)
	}
}

func TestEncodeDecode_GroupCountMismatchFails(t *testing.T) {
	// Hand-craft a frame claiming 2 entries but only supplying 1.
	sess := &fakeSession{sender: "A", target: "B"}
	msg := message.New(tag.MsgTypeMarketDataSnapshot)
	e := msg.AddGroupEntry(tag.NoMdEntries)
	_ = e.Set(tag.MdEntryType, tag.MdEntryTypeBid)

	wire, err := Encode(msg, sess, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Bump the declared count from 1 to 2 without adding a second entry,
	// then re-stamp BodyLength/CheckSum so the rest of decode gets there.
	corrupted := bytesReplaceFirst(wire, []byte("268=1\x01"), []byte("268=2\x01"))
	corrupted = restamp(corrupted)

	_, consumed, _, err := Decode(corrupted, mdGroups{}, false)
	if err == nil {
		t.Fatalf("expected group count mismatch error")
	}
	if consumed != len(corrupted) {
		t.Errorf("expected full frame consumed on error, got %d", consumed)
	}
}

func bytesReplaceFirst(b, old, repl []byte) []byte {
	idx := -1
	for i := 0; i+len(old) <= len(b); i++ {
		match := true
		for j := range old {
			if b[i+j] != old[j] {
				match = false
				break
			}
		}
		if match {
			idx = i
			break
		}
	}
	if idx == -1 {
		return b
	}
	out := append([]byte{}, b[:idx]...)
	out = append(out, repl...)
	out = append(out, b[idx+len(old):]...)
	return out
}

// restamp recomputes BodyLength and CheckSum for a hand-edited frame so
// only the field under test is invalid.
func restamp(frame []byte) []byte {
	idx := indexOfBeginString(frame)
	bodyStart := idx + len(beginStringField)
	// skip past "9=<old len>\x01"
	sohAt := indexByte(frame[bodyStart:], soh)
	oldBodyStart := bodyStart + sohAt + 1
	checksumAt := len(frame) - 7
	body := frame[oldBodyStart:checksumAt]

	var out []byte
	out = append(out, beginStringField...)
	out = append(out, []byte(itoaField(len(body)))...)
	out = append(out, body...)
	sum := checksum(out)
	out = append(out, []byte(checksumField(sum))...)
	return out
}

func itoaField(n int) string {
	return "9=" + itoa(n) + "\x01"
}

func checksumField(sum int) string {
	s := itoa(sum)
	for len(s) < 3 {
		s = "0" + s
	}
	return "10=" + s + "\x01"
}

func itoa(n int) string {
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
