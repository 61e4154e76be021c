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

package fixclient

import (
	"testing"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

func TestParseExecutionReport_ExtractsFields(t *testing.T) {
	msg := message.New(tag.MsgTypeExecutionReport)
	_ = msg.Set(tag.ClOrdID, "clord-1")
	_ = msg.Set(tag.OrderID, "order-1")
	_ = msg.Set(tag.ExecType, tag.ExecTypeFilled)
	_ = msg.Set(tag.OrdStatus, tag.OrdStatusFilled)
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)
	_ = msg.Set(tag.LeavesQty, "0")
	_ = msg.Set(tag.CumQty, "1.5")

	er := ParseExecutionReport(msg)

	if er.ClOrdID != "clord-1" || er.OrderID != "order-1" {
		t.Fatalf("unexpected ids: %+v", er)
	}
	if er.Symbol != "BTC-USD" || er.Side != tag.SideBuy {
		t.Fatalf("unexpected instrument fields: %+v", er)
	}
	if er.CumQty != "1.5" || er.LeavesQty != "0" {
		t.Fatalf("unexpected qty fields: %+v", er)
	}
}

func TestParseExecutionReport_MissingFieldsDefaultEmpty(t *testing.T) {
	msg := message.New(tag.MsgTypeExecutionReport)
	er := ParseExecutionReport(msg)
	if er.ClOrdID != "" || er.Text != "" {
		t.Fatalf("expected empty defaults, got %+v", er)
	}
}

func TestParseQuote_ParsesValidUntilTime(t *testing.T) {
	msg := message.New(tag.MsgTypeQuote)
	_ = msg.Set(tag.QuoteID, "q-1")
	_ = msg.Set(tag.BidPx, "100.5")
	_ = msg.Set(tag.OfferPx, "101.0")
	_ = msg.Set(tag.ValidUntilTime, "20260731-12:00:00.000")

	q := ParseQuote(msg)
	if q.QuoteID != "q-1" {
		t.Fatalf("expected quote id q-1, got %s", q.QuoteID)
	}
	if q.ValidUntilTime.IsZero() {
		t.Fatalf("expected ValidUntilTime to be parsed")
	}
	if q.ValidUntilTime.Year() != 2026 {
		t.Fatalf("expected parsed year 2026, got %d", q.ValidUntilTime.Year())
	}
}

func TestParseQuote_MissingValidUntilTimeStaysZero(t *testing.T) {
	msg := message.New(tag.MsgTypeQuote)
	_ = msg.Set(tag.QuoteID, "q-2")

	q := ParseQuote(msg)
	if !q.ValidUntilTime.IsZero() {
		t.Fatalf("expected zero ValidUntilTime, got %v", q.ValidUntilTime)
	}
}

func TestQuoteStore_AddAndFindByEitherID(t *testing.T) {
	s := NewQuoteStore()
	s.Add(&Quote{QuoteID: "q-1", QuoteReqID: "req-1", Symbol: "BTC-USD"})

	if got := s.Find("q-1"); got == nil || got.Symbol != "BTC-USD" {
		t.Fatalf("expected lookup by QuoteID to succeed, got %+v", got)
	}
	if got := s.Find("req-1"); got == nil || got.QuoteID != "q-1" {
		t.Fatalf("expected lookup by QuoteReqID to succeed, got %+v", got)
	}
	if got := s.Find("missing"); got != nil {
		t.Fatalf("expected nil for unknown id, got %+v", got)
	}
}

func TestQuoteStore_GetReturnsDefensiveCopy(t *testing.T) {
	s := NewQuoteStore()
	s.Add(&Quote{QuoteID: "q-1", Symbol: "BTC-USD"})

	got := s.Get("q-1")
	got.Symbol = "MUTATED"

	again := s.Get("q-1")
	if again.Symbol != "BTC-USD" {
		t.Fatalf("expected stored quote unaffected by caller mutation, got %s", again.Symbol)
	}
}

func TestQuoteStore_AllReturnsEveryQuote(t *testing.T) {
	s := NewQuoteStore()
	s.Add(&Quote{QuoteID: "q-1"})
	s.Add(&Quote{QuoteID: "q-2"})

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(all))
	}
}
