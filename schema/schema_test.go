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

package schema

import (
	"errors"
	"testing"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

const testDict = `<fix>
<fields>
  <field number="11" name="ClOrdID" type="STRING"/>
  <field number="55" name="Symbol" type="STRING"/>
  <field number="54" name="Side" type="CHAR">
    <value enum="1" description="BUY"/>
    <value enum="2" description="SELL"/>
  </field>
  <field number="38" name="OrderQty" type="QTY"/>
  <field number="267" name="NoMDEntryTypes" type="NUMINGROUP"/>
  <field number="269" name="MDEntryType" type="CHAR">
    <value enum="0" description="BID"/>
    <value enum="1" description="OFFER"/>
  </field>
</fields>
<messages>
  <message name="NewOrderSingle" msgtype="D" msgcat="app">
    <field name="ClOrdID" required="Y"/>
    <field name="Symbol" required="Y"/>
    <field name="Side" required="Y"/>
    <field name="OrderQty" required="N"/>
  </message>
  <message name="MarketDataRequest" msgtype="V" msgcat="app">
    <field name="Symbol" required="Y"/>
    <group name="NoMDEntryTypes" required="Y">
      <field name="MDEntryType" required="Y"/>
    </group>
  </message>
</messages>
</fix>`

func loadTestSchema(t *testing.T) *FIXSchema {
	t.Helper()
	s, err := LoadXML([]byte(testDict))
	if err != nil {
		t.Fatalf("LoadXML: %v", err)
	}
	return s
}

func TestValidate_RequiredFieldsPresent(t *testing.T) {
	s := loadTestSchema(t)

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)

	if err := s.Validate(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	s := loadTestSchema(t)

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")

	err := s.Validate(msg)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Errorf("expected ErrMissingRequiredField, got %v", err)
	}
}

func TestValidate_UnknownTagRejected(t *testing.T) {
	s := loadTestSchema(t)

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)
	_ = msg.Set(tag.Price, "100") // not declared for NewOrderSingle in this trimmed dict

	err := s.Validate(msg)
	if !errors.Is(err, ErrUnknownTag) {
		t.Errorf("expected ErrUnknownTag, got %v", err)
	}
}

func TestValidate_InvalidEnum(t *testing.T) {
	s := loadTestSchema(t)

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, "9") // not a declared Side enum

	err := s.Validate(msg)
	if !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("expected ErrInvalidEnum, got %v", err)
	}
}

func TestValidate_UnknownMessageType(t *testing.T) {
	s := loadTestSchema(t)
	msg := message.New("Z")

	err := s.Validate(msg)
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("expected ErrUnknownMessageType, got %v", err)
	}
}

func TestValidate_GroupRequiredMemberMissing(t *testing.T) {
	s := loadTestSchema(t)

	msg := message.New(tag.MsgTypeMarketDataRequest)
	_ = msg.Set(tag.Symbol, "BTC-USD")
	msg.AddGroupEntry(tag.NoMdEntryTypes) // entry left empty, MDEntryType required

	err := s.Validate(msg)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Errorf("expected ErrMissingRequiredField for group entry, got %v", err)
	}
}

func TestValidate_GroupValid(t *testing.T) {
	s := loadTestSchema(t)

	msg := message.New(tag.MsgTypeMarketDataRequest)
	_ = msg.Set(tag.Symbol, "BTC-USD")
	e := msg.AddGroupEntry(tag.NoMdEntryTypes)
	_ = e.Set(tag.MdEntryType, tag.MdEntryTypeBid)

	if err := s.Validate(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

const testDictWithHeaderAndComponents = `<fix>
<header>
  <field name="SenderCompID" required="Y"/>
  <field name="TargetCompID" required="Y"/>
  <field name="PossDupFlag" required="N"/>
</header>
<components>
  <component name="OrderInstrumentSide">
    <component name="Instrument" required="Y"/>
    <field name="Side" required="Y"/>
  </component>
  <component name="Instrument">
    <field name="Symbol" required="Y"/>
  </component>
</components>
<fields>
  <field number="11" name="ClOrdID" type="STRING"/>
  <field number="49" name="SenderCompID" type="STRING"/>
  <field number="56" name="TargetCompID" type="STRING"/>
  <field number="43" name="PossDupFlag" type="BOOLEAN"/>
  <field number="55" name="Symbol" type="STRING"/>
  <field number="54" name="Side" type="CHAR">
    <value enum="1" description="BUY"/>
    <value enum="2" description="SELL"/>
  </field>
</fields>
<messages>
  <message name="NewOrderSingle" msgtype="D" msgcat="app">
    <field name="ClOrdID" required="Y"/>
    <component name="OrderInstrumentSide" required="Y"/>
  </message>
</messages>
</fix>`

func loadHeaderComponentSchema(t *testing.T) *FIXSchema {
	t.Helper()
	s, err := LoadXML([]byte(testDictWithHeaderAndComponents))
	if err != nil {
		t.Fatalf("LoadXML: %v", err)
	}
	return s
}

// newOrderWithHeader builds a NewOrderSingle with its component-flattened
// body fields plus the header tags a real decode would have populated
// (message.Set rejects those as reserved, so tests stand in for the
// decoder via SetFramingField, same as codec.Decode does).
func newOrderWithHeader(clOrdID, symbol, side string) *message.Message {
	m := message.New(tag.MsgTypeNewOrderSingle)
	_ = m.Set(tag.ClOrdID, clOrdID)
	_ = m.Set(tag.Symbol, symbol)
	_ = m.Set(tag.Side, side)
	m.SetFramingField(tag.SenderCompID, "ME")
	m.SetFramingField(tag.TargetCompID, "YOU")
	return m
}

func TestValidate_HeaderRequiredFieldMissing(t *testing.T) {
	s := loadHeaderComponentSchema(t)

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)
	msg.SetFramingField(tag.SenderCompID, "ME")
	// TargetCompID deliberately left unset.

	err := s.Validate(msg)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Errorf("expected ErrMissingRequiredField for missing header tag, got %v", err)
	}
}

func TestValidate_HeaderRequiredFieldsPresentAndComponentFieldsFlattened(t *testing.T) {
	s := loadHeaderComponentSchema(t)

	msg := newOrderWithHeader("C1", "BTC-USD", tag.SideBuy)

	if err := s.Validate(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ComponentRequiredFieldMissing(t *testing.T) {
	s := loadHeaderComponentSchema(t)

	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	// Side, required by the OrderInstrumentSide component, is left unset.
	msg.SetFramingField(tag.SenderCompID, "ME")
	msg.SetFramingField(tag.TargetCompID, "YOU")

	err := s.Validate(msg)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Errorf("expected ErrMissingRequiredField for component field, got %v", err)
	}
}

func TestValidate_OptionalHeaderFieldNotRequired(t *testing.T) {
	s := loadHeaderComponentSchema(t)

	// PossDupFlag is declared optional on the header; its absence must
	// not trip the required-header-field pass.
	msg := newOrderWithHeader("C1", "BTC-USD", tag.SideBuy)

	if err := s.Validate(msg); err != nil {
		t.Fatalf("unexpected error with optional header field absent: %v", err)
	}
}

func TestLoadXML_ComponentForwardReferenceResolves(t *testing.T) {
	// OrderInstrumentSide is declared before Instrument in
	// testDictWithHeaderAndComponents, so a successful load here confirms
	// component resolution does not depend on declaration order.
	s := loadHeaderComponentSchema(t)

	def, ok := s.Messages[tag.MsgTypeNewOrderSingle]
	if !ok {
		t.Fatal("expected NewOrderSingle to be declared")
	}
	symbolTag, sideTag := tag.Tag(55), tag.Tag(54)
	if !def.Fields.Required[symbolTag] {
		t.Errorf("expected Symbol (via nested Instrument component) to be required")
	}
	if !def.Fields.Required[sideTag] {
		t.Errorf("expected Side (via OrderInstrumentSide component) to be required")
	}
}
