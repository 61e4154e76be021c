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
	"sync"
	"time"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// ExecutionReport is a display-only view of an inbound ExecutionReport
// (35=8). Order book-of-record lives in package order; this struct only
// carries the per-message fields the REPL prints, parsed directly off the
// wire message rather than duplicated order state.
type ExecutionReport struct {
	ClOrdID      string
	OrderID      string
	ExecType     string
	OrdStatus    string
	Symbol       string
	Side         string
	OrderQty     string
	CumQty       string
	LeavesQty    string
	Price        string
	AvgPx        string
	LastPx       string
	LastShares   string
	Commission   string
	OrdRejReason string
	Text         string
}

// ParseExecutionReport extracts the display fields of an ExecutionReport
// message.
func ParseExecutionReport(msg *message.Message) *ExecutionReport {
	return &ExecutionReport{
		ClOrdID:      msg.GetOr(tag.ClOrdID, ""),
		OrderID:      msg.GetOr(tag.OrderID, ""),
		ExecType:     msg.GetOr(tag.ExecType, ""),
		OrdStatus:    msg.GetOr(tag.OrdStatus, ""),
		Symbol:       msg.GetOr(tag.Symbol, ""),
		Side:         msg.GetOr(tag.Side, ""),
		OrderQty:     msg.GetOr(tag.OrderQty, ""),
		CumQty:       msg.GetOr(tag.CumQty, ""),
		LeavesQty:    msg.GetOr(tag.LeavesQty, ""),
		Price:        msg.GetOr(tag.Price, ""),
		AvgPx:        msg.GetOr(tag.AvgPx, ""),
		LastPx:       msg.GetOr(tag.LastPx, ""),
		LastShares:   msg.GetOr(tag.LastShares, ""),
		Commission:   msg.GetOr(tag.Commission, ""),
		OrdRejReason: msg.GetOr(tag.OrdRejReason, ""),
		Text:         msg.GetOr(tag.Text, ""),
	}
}

// OrderCancelReject is a display-only view of an inbound
// OrderCancelReject (35=9).
type OrderCancelReject struct {
	ClOrdID          string
	OrigClOrdID      string
	OrderID          string
	OrdStatus        string
	CxlRejResponseTo string
	CxlRejReason     string
	Text             string
}

// ParseOrderCancelReject extracts the display fields of an
// OrderCancelReject message.
func ParseOrderCancelReject(msg *message.Message) *OrderCancelReject {
	return &OrderCancelReject{
		ClOrdID:          msg.GetOr(tag.ClOrdID, ""),
		OrigClOrdID:      msg.GetOr(tag.OrigClOrdID, ""),
		OrderID:          msg.GetOr(tag.OrderID, ""),
		OrdStatus:        msg.GetOr(tag.OrdStatus, ""),
		CxlRejResponseTo: msg.GetOr(tag.CxlRejResponseTo, ""),
		CxlRejReason:     msg.GetOr(tag.CxlRejReason, ""),
		Text:             msg.GetOr(tag.Text, ""),
	}
}

// Quote is a received RFQ quote (35=S), tracked client-side since the
// spec's order package owns only the single-order lifecycle (§4.6), not
// the quote workflow (spec Non-goals carries this as an ambient RFQ
// extra, see SPEC_FULL.md).
type Quote struct {
	QuoteID        string
	QuoteReqID     string
	Symbol         string
	Account        string
	BidPx          string
	BidSize        string
	OfferPx        string
	OfferSize      string
	ValidUntilTime time.Time
}

// ParseQuote extracts a Quote from an inbound Quote (35=S) message.
func ParseQuote(msg *message.Message) *Quote {
	q := &Quote{
		QuoteID:    msg.GetOr(tag.QuoteID, ""),
		QuoteReqID: msg.GetOr(tag.QuoteReqID, ""),
		Symbol:     msg.GetOr(tag.Symbol, ""),
		Account:    msg.GetOr(tag.Account, ""),
		BidPx:      msg.GetOr(tag.BidPx, ""),
		BidSize:    msg.GetOr(tag.BidSize, ""),
		OfferPx:    msg.GetOr(tag.OfferPx, ""),
		OfferSize:  msg.GetOr(tag.OfferSize, ""),
	}
	if v, err := msg.Get(tag.ValidUntilTime); err == nil {
		if t, err := time.Parse(tag.FixTimeFormat, v); err == nil {
			q.ValidUntilTime = t
		}
	}
	return q
}

// QuoteAck is a rejected RFQ (35=b with a reject reason populated).
type QuoteAck struct {
	QuoteReqID        string
	Symbol            string
	QuoteRejectReason string
	Text              string
}

// ParseQuoteAck extracts a QuoteAck from an inbound
// QuoteAcknowledgement (35=b) message.
func ParseQuoteAck(msg *message.Message) *QuoteAck {
	return &QuoteAck{
		QuoteReqID:        msg.GetOr(tag.QuoteReqID, ""),
		Symbol:            msg.GetOr(tag.Symbol, ""),
		QuoteRejectReason: msg.GetOr(tag.QuoteRejectReason, ""),
		Text:              msg.GetOr(tag.Text, ""),
	}
}

// SessionReject is a session-level Reject (35=3).
type SessionReject struct {
	RefSeqNum           string
	RefMsgType          string
	RefTagID            string
	SessionRejectReason string
	Text                string
}

// ParseSessionReject extracts a SessionReject from an inbound Reject
// (35=3) message.
func ParseSessionReject(msg *message.Message) *SessionReject {
	return &SessionReject{
		RefSeqNum:           msg.GetOr(tag.RefSeqNum, ""),
		RefMsgType:          msg.GetOr(tag.RefMsgType, ""),
		RefTagID:            msg.GetOr(tag.RefTagID, ""),
		SessionRejectReason: msg.GetOr(tag.SessionRejectReason, ""),
		Text:                msg.GetOr(tag.Text, ""),
	}
}

// BusinessReject is a BusinessMessageReject (35=j).
type BusinessReject struct {
	RefSeqNum            string
	RefMsgType           string
	BusinessRejectReason string
	Text                 string
}

// ParseBusinessReject extracts a BusinessReject from an inbound
// BusinessMessageReject (35=j) message.
func ParseBusinessReject(msg *message.Message) *BusinessReject {
	return &BusinessReject{
		RefSeqNum:            msg.GetOr(tag.RefSeqNum, ""),
		RefMsgType:           msg.GetOr(tag.RefMsgType, ""),
		BusinessRejectReason: msg.GetOr(tag.BusinessRejectReason, ""),
		Text:                 msg.GetOr(tag.Text, ""),
	}
}

// QuoteStore is a thread-safe keyed store of received quotes, mirroring
// the teacher's OrderStore quotes map but slimmed to what the RFQ demo
// commands need: lookup by QuoteID or QuoteReqID.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]*Quote // keyed by QuoteID
	byReq  map[string]string // QuoteReqID -> QuoteID
}

// NewQuoteStore returns an empty QuoteStore.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{
		quotes: make(map[string]*Quote),
		byReq:  make(map[string]string),
	}
}

// Add registers q, indexed by both QuoteID and QuoteReqID.
func (s *QuoteStore) Add(q *Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.QuoteID] = q
	if q.QuoteReqID != "" {
		s.byReq[q.QuoteReqID] = q.QuoteID
	}
}

// Get returns a copy of the quote registered under quoteID, or nil.
func (s *QuoteStore) Get(quoteID string) *Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[quoteID]
	if !ok {
		return nil
	}
	cp := *q
	return &cp
}

// GetByReqID resolves a QuoteReqID to its quote, or nil.
func (s *QuoteStore) GetByReqID(quoteReqID string) *Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quoteID, ok := s.byReq[quoteReqID]
	if !ok {
		return nil
	}
	q, ok := s.quotes[quoteID]
	if !ok {
		return nil
	}
	cp := *q
	return &cp
}

// Find resolves either a QuoteID or a QuoteReqID to a quote.
func (s *QuoteStore) Find(id string) *Quote {
	if q := s.Get(id); q != nil {
		return q
	}
	return s.GetByReqID(id)
}

// All returns a defensive copy of every tracked quote.
func (s *QuoteStore) All() []*Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		cp := *q
		out = append(out, &cp)
	}
	return out
}
