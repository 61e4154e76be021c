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
	"fmt"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// Decode scans buf for one complete FIX.4.4 frame starting at the first
// occurrence of "8=FIX.4.4\x01", per spec §4.1:
//   - bytes before a valid beginning are skipped;
//   - BodyLength (9=) is read and validated before the body is consumed;
//   - the checksum is verified over every byte from BeginString through
//     the SOH preceding the CheckSum field;
//   - the first body tag must be MsgType, and repeating groups are
//     expanded per profile.
//
// consumed is always measured from buf[0] and tells the caller how many
// leading bytes to drop from its read buffer, regardless of outcome:
//   - (nil, 0, nil, nil): no complete frame yet, buffer more and retry;
//   - (nil, n, nil, err): a malformed frame spanning buf[:n] was dropped;
//     err is non-nil unless silent is true, in which case the same
//     skip-and-resync outcome is reported without an error value;
//   - (msg, n, raw, nil): one complete, checksum-valid frame, raw holding
//     the exact bytes buf[:n] that produced it.
func Decode(buf []byte, profile GroupProfile, silent bool) (*message.Message, int, []byte, error) {
	idx := indexOfBeginString(buf)
	if idx == -1 {
		return nil, 0, nil, nil
	}

	pos := idx + len(beginStringField)
	if pos+2 > len(buf) || buf[pos] != '9' || buf[pos+1] != '=' {
		// Not enough bytes yet to know, or BodyLength isn't next: if we
		// have a substantial tail past the begin-string with no "9=",
		// it's malformed; otherwise wait for more bytes.
		if len(buf)-pos > 16 {
			return failFrame(nil, len(buf), silent, fmt.Errorf("%w: BodyLength field must follow BeginString", ErrBadBodyLength))
		}
		return nil, 0, nil, nil
	}

	lenStart := pos + 2
	sohAt := indexByte(buf[lenStart:], soh)
	if sohAt == -1 {
		return nil, 0, nil, nil
	}
	bodyLen, err := parseUint(buf[lenStart : lenStart+sohAt])
	if err != nil || bodyLen < 0 || bodyLen > maxBodyLength {
		return failFrame(nil, lenStart+sohAt+1, silent, fmt.Errorf("%w: %q", ErrBadBodyLength, string(buf[lenStart:lenStart+sohAt])))
	}
	bodyStart := lenStart + sohAt + 1

	const checksumFieldLen = 7 // "10=" + 3 digits + SOH
	frameEnd := bodyStart + bodyLen + checksumFieldLen
	if frameEnd > len(buf) {
		return nil, 0, nil, nil
	}

	checksumField := buf[bodyStart+bodyLen : frameEnd]
	if checksumField[0] != '1' || checksumField[1] != '0' || checksumField[2] != '=' || checksumField[6] != soh {
		return failFrame(nil, frameEnd, silent, fmt.Errorf("%w: expected 10=DDD<SOH>", ErrMalformedChecksum))
	}
	wantSum, err := parseUint(checksumField[3:6])
	if err != nil {
		return failFrame(nil, frameEnd, silent, fmt.Errorf("%w: %w", ErrMalformedChecksum, err))
	}
	gotSum := checksum(buf[idx : bodyStart+bodyLen])
	if gotSum != wantSum {
		return failFrame(nil, frameEnd, silent, fmt.Errorf("%w: computed %d, wire said %d", ErrBadChecksum, gotSum, wantSum))
	}

	msg, err := decodeBody(buf[bodyStart:bodyStart+bodyLen], profile)
	if err != nil {
		return failFrame(nil, frameEnd, silent, err)
	}

	return msg, frameEnd, buf[idx:frameEnd], nil
}

func failFrame(_ *message.Message, consumed int, silent bool, err error) (*message.Message, int, []byte, error) {
	if silent {
		return nil, consumed, nil, nil
	}
	return nil, consumed, nil, err
}

func indexOfBeginString(buf []byte) int {
	if len(buf) < len(beginStringField) {
		return -1
	}
	for i := 0; i+len(beginStringField) <= len(buf); i++ {
		if string(buf[i:i+len(beginStringField)]) == string(beginStringField) {
			return i
		}
	}
	return -1
}

func decodeBody(body []byte, profile GroupProfile) (*message.Message, error) {
	tk := newTokenizer(body)

	first, ok, err := tk.next()
	if err != nil {
		return nil, err
	}
	if !ok || first.tag != tag.MsgType {
		return nil, ErrFirstTagNotMsgType
	}

	msg := message.New(first.value)

	for {
		t, ok, err := tk.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if spec, isGroup := profile.GroupSpec(first.value, t.tag); isGroup {
			count, err := parseUint([]byte(t.value))
			if err != nil {
				return nil, fmt.Errorf("%w: group %d count %q", ErrIncompleteGroup, t.tag, t.value)
			}
			entries, err := decodeGroup(tk, profile, first.value, spec, count)
			if err != nil {
				return nil, err
			}
			if err := msg.SetGroup(t.tag, entries); err != nil {
				return nil, err
			}
			continue
		}

		msg.SetDecoded(t.tag, t.value)
	}

	return msg, nil
}

// decodeGroup consumes exactly count entries of a repeating group from tk,
// recursing into nested groups declared as members of spec. See spec §4.1:
// "the next tag is the group's delimiter field; each subsequent occurrence
// of the delimiter opens a new entry; entries accept tags until another
// delimiter or an out-of-group tag."
func decodeGroup(tk *tokenizer, profile GroupProfile, msgType string, spec GroupSpec, count int) ([]*message.Container, error) {
	entries := make([]*message.Container, 0, count)
	if count == 0 {
		return entries, nil
	}

	var current *message.Container
	delimiter := spec.Delimiter

	for {
		t, ok, err := tk.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if delimiter == 0 {
			delimiter = t.tag
		}

		if t.tag == delimiter {
			if len(entries) == count {
				tk.pushback(t)
				break
			}
			current = message.NewContainer()
			entries = append(entries, current)
			current.Replace(t.tag, t.value)
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("%w: first group tag was not the delimiter", ErrIncompleteGroup)
		}

		if nestedSpec, isNested := profile.GroupSpec(msgType, t.tag); isNested && spec.Members[t.tag] {
			nestedCount, err := parseUint([]byte(t.value))
			if err != nil {
				return nil, fmt.Errorf("%w: nested group %d count %q", ErrIncompleteGroup, t.tag, t.value)
			}
			nestedEntries, err := decodeGroup(tk, profile, msgType, nestedSpec, nestedCount)
			if err != nil {
				return nil, err
			}
			if err := current.SetGroup(t.tag, nestedEntries); err != nil {
				return nil, err
			}
			continue
		}

		if !spec.Members[t.tag] {
			tk.pushback(t)
			break
		}

		if current.Has(t.tag) {
			current.MarkRepeating(t.tag)
		} else {
			current.Replace(t.tag, t.value)
		}
	}

	if len(entries) != count {
		return nil, fmt.Errorf("%w: expected %d entries, got %d", ErrIncompleteGroup, count, len(entries))
	}
	return entries, nil
}
