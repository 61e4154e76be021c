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
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// Session is the subset of fixsession.Session the encoder needs: identity
// for the header fields, and seq-num allocation for the normal (non-raw)
// path. Declared here rather than imported from package fixsession to keep
// codec free of a dependency on the session package.
type Session interface {
	AllocateNextNumOut() int
	SenderCompID() string
	TargetCompID() string
}

// rawSeqNumEligible are the six admin message types for which spec §4.1
// permits the caller to supply MsgSeqNum explicitly (message.SetRawSeqNum)
// instead of allocating the next session sequence number: resends and
// gap-fills replay or skip past sequence numbers that were already spent.
// Reject (3) is deliberately absent: it always takes the next allocated
// number.
var rawSeqNumEligible = map[string]bool{
	tag.MsgTypeLogon:         true,
	tag.MsgTypeLogout:        true,
	tag.MsgTypeResendRequest: true,
	tag.MsgTypeSequenceReset: true,
	tag.MsgTypeHeartbeat:     true,
	tag.MsgTypeTestRequest:   true,
}

// Encode renders msg to wire bytes: BeginString/BodyLength framing,
// SenderCompID/TargetCompID/MsgSeqNum/SendingTime header fields, the body
// in insertion order (with repeating groups expanded count-first), and a
// trailing CheckSum. See spec §4.1 for the exact byte-counting rules.
//
// rawSeqNum selects the sequence-number policy: false always allocates the
// session's next outbound number (and rejects a message with MsgSeqNum
// already set); true is only valid for the six admin message types in
// rawSeqNumEligible and requires the caller to have pre-set MsgSeqNum via
// message.SetRawSeqNum.
func Encode(msg *message.Message, sess Session, rawSeqNum bool) ([]byte, error) {
	msgType := msg.MsgType()

	seqNum, err := resolveSeqNum(msg, sess, msgType, rawSeqNum)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writeField(&body, tag.MsgType, msgType)
	writeField(&body, tag.SenderCompID, sess.SenderCompID())
	writeField(&body, tag.TargetCompID, sess.TargetCompID())
	writeField(&body, tag.MsgSeqNum, strconv.Itoa(seqNum))
	writeField(&body, tag.SendingTime, time.Now().UTC().Format(tag.FixTimeFormat))

	if err := writeContainer(&body, msg.Body()); err != nil {
		return nil, err
	}

	var frame bytes.Buffer
	frame.Write(beginStringField)
	fmt.Fprintf(&frame, "9=%d\x01", body.Len())
	frame.Write(body.Bytes())

	sum := checksum(frame.Bytes())
	fmt.Fprintf(&frame, "10=%03d\x01", sum)

	return frame.Bytes(), nil
}

// EncodeReplay renders msg to wire bytes using seqNum verbatim as
// MsgSeqNum, bypassing both the rawSeqNumEligible restriction and the
// "MsgSeqNum must not be preset" check that Encode enforces. It exists
// solely for spec §4.5's resend-request replay path: an application
// message being resent must carry its *original* sequence number and
// PossDupFlag/OrigSendingTime, something Encode's policy deliberately
// forbids for anything but the six admin types. Callers are responsible
// for setting PossDupFlag and OrigSendingTime on msg before calling this.
func EncodeReplay(msg *message.Message, sess Session, seqNum int) ([]byte, error) {
	var body bytes.Buffer
	writeField(&body, tag.MsgType, msg.MsgType())
	writeField(&body, tag.SenderCompID, sess.SenderCompID())
	writeField(&body, tag.TargetCompID, sess.TargetCompID())
	writeField(&body, tag.MsgSeqNum, strconv.Itoa(seqNum))
	writeField(&body, tag.SendingTime, time.Now().UTC().Format(tag.FixTimeFormat))

	if err := writeContainer(&body, msg.Body()); err != nil {
		return nil, err
	}

	var frame bytes.Buffer
	frame.Write(beginStringField)
	fmt.Fprintf(&frame, "9=%d\x01", body.Len())
	frame.Write(body.Bytes())

	sum := checksum(frame.Bytes())
	fmt.Fprintf(&frame, "10=%03d\x01", sum)

	return frame.Bytes(), nil
}

func resolveSeqNum(msg *message.Message, sess Session, msgType string, rawSeqNum bool) (int, error) {
	eligible := rawSeqNumEligible[msgType]

	if rawSeqNum && !eligible {
		return 0, fmt.Errorf("%w: raw_seq_num not permitted for message type %s", ErrEncoding, msgType)
	}

	if rawSeqNum {
		v, err := msg.Get(tag.MsgSeqNum)
		if err != nil {
			return 0, fmt.Errorf("%w: raw_seq_num requires MsgSeqNum preset via SetRawSeqNum", ErrEncoding)
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, fmt.Errorf("%w: invalid preset MsgSeqNum %q", ErrEncoding, v)
		}
		return n, nil
	}

	if _, err := msg.Get(tag.MsgSeqNum); err == nil {
		return 0, fmt.Errorf("%w: MsgSeqNum must not be preset unless raw_seq_num", ErrEncoding)
	}
	return sess.AllocateNextNumOut(), nil
}

func writeContainer(buf *bytes.Buffer, c *message.Container) error {
	for _, t := range c.Order() {
		if t == tag.MsgSeqNum {
			// Written in the header; SetRawSeqNum stores it in the body.
			continue
		}
		if entries, err := c.GetGroup(t); err == nil {
			fmt.Fprintf(buf, "%d=%d\x01", t, len(entries))
			for _, e := range entries {
				if err := writeContainer(buf, e); err != nil {
					return err
				}
			}
			continue
		}
		v, err := c.Get(t)
		if err != nil {
			return fmt.Errorf("%w: tag %d: %w", ErrEncoding, t, err)
		}
		writeField(buf, t, v)
	}
	return nil
}

func writeField(buf *bytes.Buffer, t tag.Tag, value string) {
	fmt.Fprintf(buf, "%d=%s\x01", t, value)
}
