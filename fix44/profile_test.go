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

package fix44

import (
	"testing"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

func TestNewProfile_LoadsEmbeddedDictionary(t *testing.T) {
	p, err := NewProfile()
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	if _, ok := p.Schema.Messages[tag.MsgTypeNewOrderSingle]; !ok {
		t.Fatalf("expected NewOrderSingle in dictionary")
	}
}

func TestProfile_GroupSpec_TopLevel(t *testing.T) {
	p, err := NewProfile()
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}

	spec, ok := p.GroupSpec(tag.MsgTypeMarketDataSnapshot, tag.NoMdEntries)
	if !ok {
		t.Fatalf("expected NoMDEntries to be a declared group")
	}
	if spec.Delimiter != tag.MdEntryType {
		t.Errorf("expected delimiter MDEntryType, got %d", spec.Delimiter)
	}
	if !spec.Members[tag.MdEntryPx] {
		t.Errorf("expected MDEntryPx to be a declared member")
	}
}

func TestProfile_GroupSpec_UnknownReturnsFalse(t *testing.T) {
	p, err := NewProfile()
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	if _, ok := p.GroupSpec(tag.MsgTypeNewOrderSingle, tag.NoMdEntries); ok {
		t.Errorf("expected NewOrderSingle to have no NoMDEntries group")
	}
}

func TestValidate_NewOrderSingleAgainstEmbeddedDictionary(t *testing.T) {
	p, err := NewProfile()
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)
	_ = msg.Set(tag.TransactTime, "20260101-00:00:00.000")
	_ = msg.Set(tag.OrderQty, "1")
	_ = msg.Set(tag.OrdType, tag.OrdTypeMarket)
	// The header's required fields (SenderCompID, TargetCompID, MsgSeqNum,
	// SendingTime) are reserved framing tags message.Set won't accept;
	// stand in for what codec.Decode would have populated them with.
	msg.SetFramingField(tag.SenderCompID, "ME")
	msg.SetFramingField(tag.TargetCompID, "YOU")
	msg.SetFramingField(tag.MsgSeqNum, "1")
	msg.SetFramingField(tag.SendingTime, "20260101-00:00:00.000")

	if err := p.Schema.Validate(msg); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

// TestValidate_NewOrderSingleMissingHeaderField confirms spec §4.2 step 2:
// a required header field absent from a decoded message fails validation
// even when every message-level required field is present.
func TestValidate_NewOrderSingleMissingHeaderField(t *testing.T) {
	p, err := NewProfile()
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)
	_ = msg.Set(tag.TransactTime, "20260101-00:00:00.000")
	_ = msg.Set(tag.OrderQty, "1")
	_ = msg.Set(tag.OrdType, tag.OrdTypeMarket)
	msg.SetFramingField(tag.SenderCompID, "ME")
	// TargetCompID, MsgSeqNum, and SendingTime deliberately left unset.

	if err := p.Schema.Validate(msg); err == nil {
		t.Fatal("expected validation error for missing header field")
	}
}

// TestValidate_NewOrderSingleComponentFieldsFlattened confirms Symbol and
// Side, declared on NewOrderSingle only via the OrderInstrumentSide
// component reference, are still enforced as required message fields.
func TestValidate_NewOrderSingleComponentFieldsFlattened(t *testing.T) {
	p, err := NewProfile()
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.TransactTime, "20260101-00:00:00.000")
	_ = msg.Set(tag.OrderQty, "1")
	_ = msg.Set(tag.OrdType, tag.OrdTypeMarket)
	// Symbol and Side, reached only via the Instrument/OrderInstrumentSide
	// components, are deliberately left unset.
	msg.SetFramingField(tag.SenderCompID, "ME")
	msg.SetFramingField(tag.TargetCompID, "YOU")
	msg.SetFramingField(tag.MsgSeqNum, "1")
	msg.SetFramingField(tag.SendingTime, "20260101-00:00:00.000")

	if err := p.Schema.Validate(msg); err == nil {
		t.Fatal("expected validation error for missing component-flattened field")
	}
}
