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

// Package fixclient's TradeStore holds the decoded NoMdEntries rows handed
// to it by FixApp, one bounded history per symbol rather than a single
// shared buffer, since a demo client that subscribes to several symbols
// should not let a noisy one evict a quiet one's history.
package fixclient

import (
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/coinbase-samples/fixengine-go/tag"
)

// Trade is one decoded NoMdEntries row, stamped with the request and
// sequencing context it arrived under.
type Trade struct {
	Timestamp  time.Time
	Symbol     string
	Price      string
	Size       string
	Time       string
	MdReqId    string
	EntryType  string // tag.MdEntryType*
	Position   string // MDEntryPositionNo, set for book levels only
	SeqNum     string // per-row sequence key for AddTrades' duplicate check; empty skips it
	IsSnapshot bool
	IsUpdate   bool
}

// Subscription tracks one outstanding MarketDataRequest by MdReqId.
type Subscription struct {
	Symbol           string
	SubscriptionType string // tag.SubscriptionRequestType*
	MdReqId          string
	Active           bool
	SnapshotReceived bool
	TotalUpdates     int64
	LastUpdate       time.Time
}

// symbolHistory is a single symbol's capacity-bounded trade history plus
// the highest MsgSeqNum applied to it, used to drop rows a session-level
// resend has already delivered once.
type symbolHistory struct {
	trades    []Trade
	highSeqNo int64
}

// TradeStore is the thread-safe market-data side of FixApp: per-symbol
// trade history plus the set of live subscriptions keyed by MdReqId.
type TradeStore struct {
	mu            sync.RWMutex
	history       map[string]*symbolHistory
	subscriptions map[string]*Subscription
	perSymbolCap  int
	totalApplied  int64
}

// NewTradeStore builds a TradeStore capping each symbol's retained history
// at perSymbolCap trades. persistenceFile is accepted for parity with the
// engine's other constructors but unused: this store is purely in-memory,
// rebuilt from a fresh MarketDataRequest snapshot on reconnect.
func NewTradeStore(perSymbolCap int, persistenceFile string) *TradeStore {
	if perSymbolCap <= 0 {
		perSymbolCap = 1
	}
	return &TradeStore{
		history:       make(map[string]*symbolHistory),
		subscriptions: make(map[string]*Subscription),
		perSymbolCap:  perSymbolCap,
	}
}

// AddTrades applies a batch of decoded entries for symbol, either a
// MarketDataSnapshotFullRefresh or a MarketDataIncrementalRefresh's rows.
// Rows whose SeqNum is at or below the symbol's high watermark are
// dropped as already-applied: a PossDupFlag resend of a prior
// incremental refresh must not double-count against TotalUpdates or
// re-append a trade already in history.
func (ts *TradeStore) AddTrades(symbol string, trades []Trade, isSnapshot bool, mdReqId string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if sub, ok := ts.subscriptions[mdReqId]; ok {
		sub.LastUpdate = time.Now()
		if isSnapshot {
			sub.SnapshotReceived = true
		}
	}

	h, ok := ts.history[symbol]
	if !ok {
		h = &symbolHistory{}
		ts.history[symbol] = h
	}

	now := time.Now()
	applied := 0
	for _, trade := range trades {
		if seq, err := strconv.ParseInt(trade.SeqNum, 10, 64); err == nil && seq > 0 {
			if seq <= h.highSeqNo {
				continue
			}
			h.highSeqNo = seq
		}

		trade.Timestamp = now
		trade.Symbol = symbol
		trade.MdReqId = mdReqId
		trade.IsSnapshot = isSnapshot
		trade.IsUpdate = !isSnapshot

		h.trades = append(h.trades, trade)
		applied++
	}

	if over := len(h.trades) - ts.perSymbolCap; over > 0 {
		copy(h.trades, h.trades[over:])
		h.trades = h.trades[:len(h.trades)-over]
	}

	ts.totalApplied += int64(applied)
	if sub, ok := ts.subscriptions[mdReqId]; ok {
		sub.TotalUpdates += int64(applied)
	}
}

// GetRecentTrades returns the most recent up-to-limit trades for symbol,
// oldest first. A nil result means the symbol has no recorded history.
func (ts *TradeStore) GetRecentTrades(symbol string, limit int) []Trade {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	h, ok := ts.history[symbol]
	if !ok || len(h.trades) == 0 {
		return nil
	}

	start := 0
	if limit > 0 && len(h.trades) > limit {
		start = len(h.trades) - limit
	}
	out := make([]Trade, len(h.trades)-start)
	copy(out, h.trades[start:])
	return out
}

// GetAllTrades returns every retained trade across every symbol, ordered
// by arrival timestamp. Unlike GetRecentTrades, this merges histories
// that are each bounded independently, so the result's size is the sum
// of the per-symbol caps in the worst case, not a single global cap.
func (ts *TradeStore) GetAllTrades() []Trade {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	total := 0
	for _, h := range ts.history {
		total += len(h.trades)
	}
	if total == 0 {
		return nil
	}

	out := make([]Trade, 0, total)
	for _, h := range ts.history {
		out = append(out, h.trades...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (ts *TradeStore) AddSubscription(symbol, subscriptionType, mdReqId string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.subscriptions[mdReqId] = &Subscription{
		Symbol:           symbol,
		SubscriptionType: subscriptionType,
		MdReqId:          mdReqId,
		Active:           true,
		LastUpdate:       time.Now(),
	}

	log.Printf("fixclient: subscribed %s reqId=%s (%s)", symbol, mdReqId, getSubscriptionTypeDesc(subscriptionType))
}

// RemoveSubscription removes every subscription on symbol. It does not
// delete the symbol's trade history: a stale subscription shouldn't erase
// data the user may still want to inspect with "orders"-style commands.
func (ts *TradeStore) RemoveSubscription(symbol string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for reqId, sub := range ts.subscriptions {
		if sub.Symbol == symbol {
			delete(ts.subscriptions, reqId)
			log.Printf("fixclient: unsubscribed %s reqId=%s (total updates: %d)", symbol, reqId, sub.TotalUpdates)
		}
	}
}

func (ts *TradeStore) RemoveSubscriptionByReqId(reqId string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	sub, ok := ts.subscriptions[reqId]
	if !ok {
		return
	}
	delete(ts.subscriptions, reqId)
	log.Printf("fixclient: unsubscribed %s reqId=%s", sub.Symbol, reqId)
}

// GetSubscriptionStatus returns a defensive copy of every live
// subscription, keyed by MdReqId.
func (ts *TradeStore) GetSubscriptionStatus() map[string]*Subscription {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	result := make(map[string]*Subscription, len(ts.subscriptions))
	for reqId, sub := range ts.subscriptions {
		copied := *sub
		result[reqId] = &copied
	}
	return result
}

// GetSubscriptionsBySymbol groups the same defensive copies by symbol, for
// callers that want every request outstanding against one instrument
// (a symbol can have both a snapshot and a streaming subscription live
// under distinct MdReqIds at once).
func (ts *TradeStore) GetSubscriptionsBySymbol() map[string][]*Subscription {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	result := make(map[string][]*Subscription)
	for _, sub := range ts.subscriptions {
		copied := *sub
		result[sub.Symbol] = append(result[sub.Symbol], &copied)
	}
	return result
}

func getSubscriptionTypeDesc(subType string) string {
	switch subType {
	case tag.SubscriptionRequestTypeSnapshot:
		return "Snapshot Only"
	case tag.SubscriptionRequestTypeSubscribe:
		return "Snapshot + Updates"
	case tag.SubscriptionRequestTypeUnsubscribe:
		return "Unsubscribe"
	default:
		return "Unknown"
	}
}

// DisplayRealtimeUpdate logs a single-line summary of trade for streaming
// (non-snapshot) mode, dispatching on MDEntryType the way displaySnapshotTrades
// dispatches on it for the snapshot case.
func (ts *TradeStore) DisplayRealtimeUpdate(trade Trade) {
	entryType := trade.EntryType
	if entryType == "" {
		entryType = tag.MdEntryTypeTrade
	}

	switch entryType {
	case tag.MdEntryTypeBid:
		log.Printf("%s bid %s size %s pos %s", trade.Symbol, trade.Price, trade.Size, orDash(trade.Position))
	case tag.MdEntryTypeOffer:
		log.Printf("%s offer %s size %s pos %s", trade.Symbol, trade.Price, trade.Size, orDash(trade.Position))
	case tag.MdEntryTypeTrade:
		log.Printf("%s trade %s size %s", trade.Symbol, trade.Price, trade.Size)
	case tag.MdEntryTypeOpen:
		log.Printf("%s open %s", trade.Symbol, trade.Price)
	case tag.MdEntryTypeClose:
		log.Printf("%s close %s", trade.Symbol, trade.Price)
	case tag.MdEntryTypeHigh:
		log.Printf("%s high %s", trade.Symbol, trade.Price)
	case tag.MdEntryTypeLow:
		log.Printf("%s low %s", trade.Symbol, trade.Price)
	case tag.MdEntryTypeVolume:
		log.Printf("%s volume %s", trade.Symbol, trade.Size)
	default:
		log.Printf("%s [%s] %s size %s", trade.Symbol, entryType, trade.Price, trade.Size)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
