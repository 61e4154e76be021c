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

// Package builder assembles outbound application-level FIX messages from
// typed parameter structs. It does not touch header or framing fields
// (BeginString, BodyLength, MsgSeqNum, SendingTime, CheckSum, the comp-id
// pair): those are owned entirely by package codec at Encode time, so a
// builder function only ever has to populate a message.Message's body.
package builder

import (
	"time"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

func setIfNotEmpty(body *message.Message, t tag.Tag, value string) {
	if value != "" {
		_ = body.Set(t, value)
	}
}

func transactTimeNow() string {
	return time.Now().UTC().Format(tag.FixTimeFormat)
}

// --- Market Data Request (V) ---

// BuildMarketDataRequest creates a MarketDataRequest (V) message
// subscribing to mdEntryTypes across symbols.
func BuildMarketDataRequest(mdReqID string, symbols []string, subscriptionRequestType, marketDepth string, mdEntryTypes []string) *message.Message {
	m := message.New(tag.MsgTypeMarketDataRequest)

	_ = m.Set(tag.MdReqId, mdReqID)
	_ = m.Set(tag.SubscriptionRequestType, subscriptionRequestType)
	_ = m.Set(tag.MarketDepth, marketDepth)

	if subscriptionRequestType == tag.SubscriptionRequestTypeSubscribe {
		_ = m.Set(tag.MdUpdateType, tag.MdUpdateTypeIncremental)
	}

	for _, entryType := range mdEntryTypes {
		entry := m.AddGroupEntry(tag.NoMdEntryTypes)
		entry.Replace(tag.MdEntryType, entryType)
	}

	for _, symbol := range symbols {
		entry := m.AddGroupEntry(tag.NoRelatedSym)
		entry.Replace(tag.Symbol, symbol)
	}

	return m
}

// --- New Order Single (D) ---

// NewOrderParams holds the fields of a NewOrderSingle.
type NewOrderParams struct {
	Account        string // Required.
	ClOrdID        string // Required.
	Symbol         string // Required.
	Side           string // tag.SideBuy/SideSell. Required.
	OrdType        string // tag.OrdType*. Required.
	TargetStrategy string // Conditional, execution-venue specific.
	TimeInForce    string // tag.TimeInForce*. Required.
	OrderQty       string // Conditional: size in base units.
	CashOrderQty   string // Conditional: size in quote units.
	Price          string // Conditional: required for limit/stop-limit.
	StopPx         string // Conditional: required for stop/stop-limit.
	ExpireTime     string // Conditional: required for GTD.
	EffectiveTime  string // Conditional.
	MaxShow        string // Optional: iceberg display size.
	ExecInst       string // Conditional.
	PartRate       string // Conditional: participation-rate strategies.
	QuoteID        string // Conditional: RFQ acceptance.
}

// BuildNewOrderSingle creates a NewOrderSingle (D) message.
func BuildNewOrderSingle(p NewOrderParams) *message.Message {
	m := message.New(tag.MsgTypeNewOrderSingle)

	_ = m.Set(tag.Account, p.Account)
	_ = m.Set(tag.ClOrdID, p.ClOrdID)
	_ = m.Set(tag.Symbol, p.Symbol)
	_ = m.Set(tag.Side, p.Side)
	_ = m.Set(tag.OrdType, p.OrdType)
	_ = m.Set(tag.TimeInForce, p.TimeInForce)
	_ = m.Set(tag.TransactTime, transactTimeNow())

	setIfNotEmpty(m, tag.TargetStrategy, p.TargetStrategy)
	setIfNotEmpty(m, tag.OrderQty, p.OrderQty)
	setIfNotEmpty(m, tag.CashOrderQty, p.CashOrderQty)
	setIfNotEmpty(m, tag.Price, p.Price)
	setIfNotEmpty(m, tag.StopPx, p.StopPx)
	setIfNotEmpty(m, tag.ExpireTime, p.ExpireTime)
	setIfNotEmpty(m, tag.EffectiveTime, p.EffectiveTime)
	setIfNotEmpty(m, tag.MaxShow, p.MaxShow)
	setIfNotEmpty(m, tag.ExecInst, p.ExecInst)
	setIfNotEmpty(m, tag.ParticipationRate, p.PartRate)
	setIfNotEmpty(m, tag.QuoteID, p.QuoteID)

	return m
}

// --- Order Cancel Request (F) ---

// CancelOrderParams holds the fields of an OrderCancelRequest.
type CancelOrderParams struct {
	Account      string
	ClOrdID      string
	OrigClOrdID  string
	OrderID      string
	Symbol       string
	Side         string
	OrderQty     string
	CashOrderQty string
}

// BuildOrderCancelRequest creates an OrderCancelRequest (F) message.
func BuildOrderCancelRequest(p CancelOrderParams) *message.Message {
	m := message.New(tag.MsgTypeOrderCancelRequest)

	_ = m.Set(tag.Account, p.Account)
	_ = m.Set(tag.ClOrdID, p.ClOrdID)
	_ = m.Set(tag.OrigClOrdID, p.OrigClOrdID)
	setIfNotEmpty(m, tag.OrderID, p.OrderID)
	_ = m.Set(tag.Symbol, p.Symbol)
	_ = m.Set(tag.Side, p.Side)
	_ = m.Set(tag.TransactTime, transactTimeNow())

	setIfNotEmpty(m, tag.OrderQty, p.OrderQty)
	setIfNotEmpty(m, tag.CashOrderQty, p.CashOrderQty)

	return m
}

// --- Order Cancel/Replace Request (G) ---

// ReplaceOrderParams holds the fields of an OrderCancelReplaceRequest.
type ReplaceOrderParams struct {
	Account      string
	ClOrdID      string
	OrigClOrdID  string
	OrderID      string
	Symbol       string
	Side         string
	OrdType      string
	OrderQty     string
	CashOrderQty string
	Price        string
	StopPx       string
	ExpireTime   string
	MaxShow      string
}

// BuildOrderCancelReplaceRequest creates an OrderCancelReplaceRequest (G)
// message.
func BuildOrderCancelReplaceRequest(p ReplaceOrderParams) *message.Message {
	m := message.New(tag.MsgTypeOrderCancelReplace)

	_ = m.Set(tag.Account, p.Account)
	_ = m.Set(tag.ClOrdID, p.ClOrdID)
	_ = m.Set(tag.OrigClOrdID, p.OrigClOrdID)
	setIfNotEmpty(m, tag.OrderID, p.OrderID)
	_ = m.Set(tag.Symbol, p.Symbol)
	_ = m.Set(tag.Side, p.Side)
	_ = m.Set(tag.OrdType, p.OrdType)
	_ = m.Set(tag.HandlInst, "1")
	_ = m.Set(tag.TransactTime, transactTimeNow())

	setIfNotEmpty(m, tag.OrderQty, p.OrderQty)
	setIfNotEmpty(m, tag.CashOrderQty, p.CashOrderQty)
	setIfNotEmpty(m, tag.Price, p.Price)
	setIfNotEmpty(m, tag.StopPx, p.StopPx)
	setIfNotEmpty(m, tag.ExpireTime, p.ExpireTime)
	setIfNotEmpty(m, tag.MaxShow, p.MaxShow)

	return m
}

// --- Order Status Request (H) ---

// BuildOrderStatusRequest creates an OrderStatusRequest (H) message.
func BuildOrderStatusRequest(orderID, clOrdID, symbol, side string) *message.Message {
	m := message.New(tag.MsgTypeOrderStatusRequest)

	setIfNotEmpty(m, tag.OrderID, orderID)
	setIfNotEmpty(m, tag.ClOrdID, clOrdID)
	setIfNotEmpty(m, tag.Symbol, symbol)
	setIfNotEmpty(m, tag.Side, side)

	return m
}

// --- Quote Request (R) ---

// QuoteRequestParams holds the fields of a QuoteRequest.
type QuoteRequestParams struct {
	QuoteReqID string
	Account    string
	Symbol     string
	Side       string
	OrderQty   string
	Price      string
}

// BuildQuoteRequest creates a QuoteRequest (R) message for RFQ.
func BuildQuoteRequest(p QuoteRequestParams) *message.Message {
	m := message.New(tag.MsgTypeQuoteRequest)

	_ = m.Set(tag.QuoteReqID, p.QuoteReqID)
	_ = m.Set(tag.Account, p.Account)
	_ = m.Set(tag.Symbol, p.Symbol)
	_ = m.Set(tag.Side, p.Side)
	_ = m.Set(tag.OrderQty, p.OrderQty)
	_ = m.Set(tag.OrdType, tag.OrdTypeLimit)
	_ = m.Set(tag.Price, p.Price)
	_ = m.Set(tag.TimeInForce, tag.TimeInForceFOK)

	return m
}

// --- Accept Quote (New Order Single referencing a QuoteID) ---

// AcceptQuoteParams holds the fields needed to accept an RFQ quote.
type AcceptQuoteParams struct {
	Account  string
	ClOrdID  string
	Symbol   string
	Side     string
	QuoteID  string
	OrderQty string
	Price    string
}

// BuildAcceptQuote creates a NewOrderSingle (D) that accepts a
// previously-quoted price, per tag.OrdTypePreviouslyQuoted.
func BuildAcceptQuote(p AcceptQuoteParams) *message.Message {
	m := message.New(tag.MsgTypeNewOrderSingle)

	_ = m.Set(tag.Account, p.Account)
	_ = m.Set(tag.ClOrdID, p.ClOrdID)
	_ = m.Set(tag.Symbol, p.Symbol)
	_ = m.Set(tag.Side, p.Side)
	_ = m.Set(tag.OrdType, tag.OrdTypePreviouslyQuoted)
	_ = m.Set(tag.TimeInForce, tag.TimeInForceFOK)
	_ = m.Set(tag.QuoteID, p.QuoteID)
	_ = m.Set(tag.OrderQty, p.OrderQty)
	_ = m.Set(tag.Price, p.Price)
	_ = m.Set(tag.TransactTime, transactTimeNow())

	return m
}
