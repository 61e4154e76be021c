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

// Package fixclient is a demo market-data-and-order-entry application
// built on top of package connection: it implements connection.Application,
// tracks trades in TradeStore, tracks working orders in order.Manager, and
// drives a readline REPL for manual testing against a running engine.
package fixclient

import (
	"log"
	"strconv"
	"time"

	"github.com/coinbase-samples/fixengine-go/connection"
	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/order"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// Config is the application-layer configuration: the account to attach to
// order entry requests, plus the ring-buffer capacity for TradeStore.
type Config struct {
	Account        string
	TradeStoreSize int
}

// FixApp implements connection.Application, adapting inbound FIX
// messages into TradeStore/order.Manager/QuoteStore updates and terminal
// output, generalized from the teacher's FixApp callback shape.
type FixApp struct {
	connection.NoopApplication

	Config Config

	TradeStore *TradeStore
	Orders     *order.Manager
	Quotes     *QuoteStore

	Engine *connection.Engine

	shouldExit    bool
	lastLogonTime time.Time
}

// NewFixApp constructs a FixApp ready to be handed to connection.New. The
// Engine field must be set by the caller once the Engine itself is
// constructed, since Engine and Application are mutually referential.
func NewFixApp(cfg Config) *FixApp {
	return &FixApp{
		Config:     cfg,
		TradeStore: NewTradeStore(cfg.TradeStoreSize, ""),
		Orders:     order.NewManager(),
		Quotes:     NewQuoteStore(),
	}
}

// OnConnect logs the freshly established transport.
func (a *FixApp) OnConnect() {
	log.Printf("Connected to counterparty")
}

// OnDisconnect logs the torn-down connection.
func (a *FixApp) OnDisconnect() {
	log.Printf("Disconnected")
}

// OnLogon records the logon time and prints a connection banner, per the
// teacher's OnLogon handler.
func (a *FixApp) OnLogon(isHealthy bool) {
	a.lastLogonTime = time.Now()
	if !isHealthy {
		log.Printf("Logon complete, but a resend was triggered to recover a gap")
	}
	a.displayConnectionSuccess()
}

// OnLogout prints the logout's Text(58), if any, mirroring the teacher's
// OnLogout handler.
func (a *FixApp) OnLogout(msg *message.Message) {
	if text := msg.GetOr(tag.Text, ""); text != "" {
		log.Printf("Logged out: %s", text)
	} else {
		log.Printf("Logged out")
	}
}

// ShouldReplay always permits replay of buffered application messages
// with PossDupFlag, the common demo-client choice (spec §4.5's
// alternative is GapFill-coalescing sensitive messages, which this
// application has none of).
func (a *FixApp) ShouldReplay(msg *message.Message) bool {
	return true
}

// OnMessage is the single inbound-message dispatch point: it routes by
// MsgType to the market-data, order-entry, RFQ, and session-reject
// handlers, matching the teacher's FromApp/FromAdmin switch but against
// this engine's decoded message.Message rather than a quickfix.Message.
func (a *FixApp) OnMessage(msg *message.Message) {
	switch msg.MsgType() {
	case tag.MsgTypeMarketDataSnapshot, tag.MsgTypeMarketDataIncremental:
		a.handleMarketDataMessage(msg)
	case tag.MsgTypeMarketDataReject:
		a.handleMarketDataReject(msg)
	case tag.MsgTypeExecutionReport:
		a.handleExecutionReport(msg)
	case tag.MsgTypeOrderCancelReject:
		a.handleOrderCancelReject(msg)
	case tag.MsgTypeQuote:
		a.handleQuote(msg)
	case tag.MsgTypeQuoteAcknowledgement:
		a.handleQuoteAck(msg)
	case tag.MsgTypeReject:
		a.displaySessionReject(ParseSessionReject(msg))
	case tag.MsgTypeBusinessReject:
		a.displayBusinessReject(ParseBusinessReject(msg))
	default:
		log.Printf("Unhandled application message type: %s", msg.MsgType())
	}
}

// handleExecutionReport dispatches the report to order.Manager so the
// tracked Order's state machine advances, then displays it regardless of
// whether it matched a tracked order (an ExecutionReport for an order
// this client didn't place, e.g. a drop-copy, is still worth showing).
func (a *FixApp) handleExecutionReport(msg *message.Message) {
	if _, err := a.Orders.Dispatch(msg); err != nil {
		log.Printf("order dispatch error: %v", err)
	}
	a.displayExecutionReport(ParseExecutionReport(msg))
}

func (a *FixApp) handleOrderCancelReject(msg *message.Message) {
	if _, err := a.Orders.Dispatch(msg); err != nil {
		log.Printf("order dispatch error: %v", err)
	}
	a.displayOrderCancelReject(ParseOrderCancelReject(msg))
}

func (a *FixApp) handleQuote(msg *message.Message) {
	q := ParseQuote(msg)
	a.Quotes.Add(q)
	a.displayQuote(q)
}

func (a *FixApp) handleQuoteAck(msg *message.Message) {
	// QuoteAcknowledgement (35=b) doubles as an ack and an RFQ rejection,
	// per QuoteRejectReason(300) presence.
	if msg.Has(tag.QuoteRejectReason) {
		a.displayQuoteAck(ParseQuoteAck(msg))
	}
}

// handleMarketDataMessage extracts trades from the decoded NoMdEntries
// repeating group (already expanded by package codec per the NoMdEntries
// GroupSpec in fix44/dictionary.xml) and routes to TradeStore, replacing
// the teacher's raw-SOH-scan parser entirely.
func (a *FixApp) handleMarketDataMessage(msg *message.Message) {
	symbol := msg.GetOr(tag.Symbol, "")
	mdReqId := msg.GetOr(tag.MdReqId, "")
	isSnapshot := msg.MsgType() == tag.MsgTypeMarketDataSnapshot

	entries, err := msg.GetGroup(tag.NoMdEntries)
	if err != nil {
		log.Printf("market data message missing NoMdEntries group: %v", err)
		return
	}

	trades := make([]Trade, 0, len(entries))
	for _, entry := range entries {
		trades = append(trades, Trade{
			Symbol:    symbol,
			Price:     entry.GetOr(tag.MdEntryPx, ""),
			Size:      entry.GetOr(tag.MdEntrySize, ""),
			Time:      entry.GetOr(tag.MdEntryTime, ""),
			EntryType: entry.GetOr(tag.MdEntryType, ""),
			Position:  entry.GetOr(tag.MdEntryPositionNo, ""),
		})
	}

	a.TradeStore.AddTrades(symbol, trades, isSnapshot, mdReqId)
	a.displayMarketDataReceived(msg.MsgType(), symbol, mdReqId, strconv.Itoa(len(entries)), "")

	if isSnapshot {
		a.displaySnapshotTrades(trades, symbol)
	} else {
		a.displayIncrementalTrades(trades)
	}
}

func (a *FixApp) handleMarketDataReject(msg *message.Message) {
	mdReqId := msg.GetOr(tag.MdReqId, "")
	rejReason := msg.GetOr(tag.MdReqRejReason, "")
	text := msg.GetOr(tag.Text, "")

	a.displayMarketDataReject(mdReqId, rejReason, getMdRejReasonDesc(rejReason), text)
	a.displayMarketDataRejectHelp(rejReason)
}

func getMdRejReasonDesc(reason string) string {
	switch reason {
	case tag.MdReqRejReasonUnknownSymbol:
		return "Unknown Symbol"
	case tag.MdReqRejReasonDuplicateMdReqId:
		return "Duplicate MdReqId"
	case tag.MdReqRejReasonInsufficientBandwidth:
		return "Insufficient Bandwidth"
	case tag.MdReqRejReasonInsufficientPermission:
		return "Insufficient Permission"
	case tag.MdReqRejReasonUnsupportedMdEntryType:
		return "Unsupported MdEntryType"
	case tag.MdReqRejReasonInvalidMarketDepth:
		return "Invalid Market Depth"
	case tag.MdReqRejReasonUnsupportedMdUpdateType:
		return "Unsupported MdUpdateType"
	case tag.MdReqRejReasonInvalidSubscriptionReqType:
		return "Invalid SubscriptionRequestType"
	case tag.MdReqRejReasonOther:
		return "Other"
	default:
		return reason
	}
}

// ShouldExit reports whether the REPL's exit command has fired.
func (a *FixApp) ShouldExit() bool {
	return a.shouldExit
}
