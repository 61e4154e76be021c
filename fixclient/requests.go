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
	"fmt"

	"github.com/google/uuid"

	"github.com/coinbase-samples/fixengine-go/builder"
	"github.com/coinbase-samples/fixengine-go/order"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// MdRequestFlags holds the parsed --flags of an `md` REPL command.
type MdRequestFlags struct {
	Snapshot  bool
	Subscribe bool
	Depth     string
	Trades    bool
	Open      bool
	Close     bool
	High      bool
	Low       bool
	Volume    bool
	Bid       bool
	Offer     bool
}

// entryTypes resolves the selected OHLCV/book flags to MDEntryType(269)
// values, defaulting to trades-only when nothing was selected.
func (f MdRequestFlags) entryTypes() []string {
	var types []string
	if f.Bid {
		types = append(types, tag.MdEntryTypeBid)
	}
	if f.Offer {
		types = append(types, tag.MdEntryTypeOffer)
	}
	if f.Trades {
		types = append(types, tag.MdEntryTypeTrade)
	}
	if f.Open {
		types = append(types, tag.MdEntryTypeOpen)
	}
	if f.Close {
		types = append(types, tag.MdEntryTypeClose)
	}
	if f.High {
		types = append(types, tag.MdEntryTypeHigh)
	}
	if f.Low {
		types = append(types, tag.MdEntryTypeLow)
	}
	if f.Volume {
		types = append(types, tag.MdEntryTypeVolume)
	}
	if len(types) == 0 {
		types = append(types, tag.MdEntryTypeTrade)
	}
	return types
}

// SendMarketDataRequest builds and sends a MarketDataRequest (V) for
// symbol per flags, and registers the subscription in TradeStore so
// later unsubscribe-by-symbol and status commands can find it.
func (a *FixApp) SendMarketDataRequest(symbol string, flags MdRequestFlags) error {
	subType := tag.SubscriptionRequestTypeSnapshot
	if flags.Subscribe {
		subType = tag.SubscriptionRequestTypeSubscribe
	}
	depth := flags.Depth
	if depth == "" {
		depth = "0"
	}

	mdReqID := uuid.NewString()
	msg := builder.BuildMarketDataRequest(mdReqID, []string{symbol}, subType, depth, flags.entryTypes())

	if err := a.Engine.SendMsg(msg); err != nil {
		return fmt.Errorf("fixclient: send market data request: %w", err)
	}

	a.TradeStore.AddSubscription(symbol, subType, mdReqID)
	return nil
}

// SendUnsubscribe tears down a market data subscription, looked up by
// either symbol or MdReqId, and sends the corresponding Unsubscribe
// MarketDataRequest.
func (a *FixApp) SendUnsubscribe(symbolOrReqID string) error {
	subs := a.TradeStore.GetSubscriptionsBySymbol()
	if bySymbol, ok := subs[symbolOrReqID]; ok {
		for _, sub := range bySymbol {
			if err := a.sendUnsubscribeByReqID(symbolOrReqID, sub.MdReqId); err != nil {
				return err
			}
		}
		return nil
	}
	return a.sendUnsubscribeByReqID("", symbolOrReqID)
}

func (a *FixApp) sendUnsubscribeByReqID(symbol, mdReqID string) error {
	msg := builder.BuildMarketDataRequest(mdReqID, []string{symbol}, tag.SubscriptionRequestTypeUnsubscribe, "0", []string{tag.MdEntryTypeTrade})
	if err := a.Engine.SendMsg(msg); err != nil {
		return fmt.Errorf("fixclient: send unsubscribe: %w", err)
	}
	a.TradeStore.RemoveSubscriptionByReqId(mdReqID)
	return nil
}

// OrderRequestFlags holds the parsed --flags of an `order` REPL command.
type OrderRequestFlags struct {
	OrdType     string // tag.OrdType*, defaults to Limit
	TimeInForce string // tag.TimeInForce*, defaults to GTC
	Strategy    string
	PostOnly    bool
	Cash        bool
}

// SendNewOrder builds and sends a NewOrderSingle, registering an
// order.Order under a fresh ClOrdID root in a.Orders.
func (a *FixApp) SendNewOrder(side, symbol, qty, price string, flags OrderRequestFlags) (*order.Order, error) {
	ordType := flags.OrdType
	if ordType == "" {
		ordType = tag.OrdTypeLimit
	}
	tif := flags.TimeInForce
	if tif == "" {
		tif = tag.TimeInForceGTC
	}

	root := uuid.NewString()
	o := order.New(root, symbol, side, ordType, a.Config.Account, price, qty)

	msg, err := o.NewReq()
	if err != nil {
		return nil, fmt.Errorf("fixclient: build new order: %w", err)
	}

	if flags.Cash {
		_ = msg.Set(tag.CashOrderQty, qty)
	}
	if flags.PostOnly {
		_ = msg.Set(tag.ExecInst, tag.ExecInstPostOnly)
	}
	if flags.Strategy != "" {
		_ = msg.Set(tag.TargetStrategy, flags.Strategy)
	}
	_ = msg.Set(tag.TimeInForce, tif)

	if err := a.Engine.SendMsg(msg); err != nil {
		return nil, fmt.Errorf("fixclient: send new order: %w", err)
	}

	a.Orders.Add(root, o)
	return o, nil
}

// findOrder resolves a clOrdId-or-orderId argument to a tracked order, by
// scanning a.Orders.All() for a Snapshot whose ClOrdID or OrderID
// matches, matching the teacher's lookup-by-either-id convenience.
func (a *FixApp) findOrder(ref string) *order.Order {
	for _, o := range a.Orders.All() {
		snap := o.Snapshot()
		if snap.ClOrdID == ref || snap.OrderID == ref {
			return o
		}
	}
	return nil
}

// SendCancel resolves ref to a tracked order and sends its CancelReq.
func (a *FixApp) SendCancel(ref string) error {
	o := a.findOrder(ref)
	if o == nil {
		return fmt.Errorf("fixclient: no tracked order matches %q", ref)
	}
	msg, err := o.CancelReq()
	if err != nil {
		return fmt.Errorf("fixclient: build cancel request: %w", err)
	}
	if err := a.Engine.SendMsg(msg); err != nil {
		return fmt.Errorf("fixclient: send cancel request: %w", err)
	}
	return nil
}

// SendReplace resolves ref to a tracked order and sends its ReplaceReq.
func (a *FixApp) SendReplace(ref, newPrice, newQty string) error {
	o := a.findOrder(ref)
	if o == nil {
		return fmt.Errorf("fixclient: no tracked order matches %q", ref)
	}
	msg, err := o.ReplaceReq(newPrice, newQty)
	if err != nil {
		return fmt.Errorf("fixclient: build replace request: %w", err)
	}
	if err := a.Engine.SendMsg(msg); err != nil {
		return fmt.Errorf("fixclient: send replace request: %w", err)
	}
	return nil
}

// SendOrderStatusRequest resolves ref to a tracked order and requests
// its current status.
func (a *FixApp) SendOrderStatusRequest(ref string) error {
	o := a.findOrder(ref)
	if o == nil {
		return fmt.Errorf("fixclient: no tracked order matches %q", ref)
	}
	snap := o.Snapshot()
	msg := builder.BuildOrderStatusRequest(snap.OrderID, snap.ClOrdID, snap.Symbol, snap.Side)
	if err := a.Engine.SendMsg(msg); err != nil {
		return fmt.Errorf("fixclient: send order status request: %w", err)
	}
	return nil
}

// SendQuoteRequest sends an RFQ for symbol/side/qty, keyed by a fresh
// QuoteReqID the caller can later pass to SendAcceptQuote once a Quote
// arrives.
func (a *FixApp) SendQuoteRequest(side, symbol, qty, price string) (string, error) {
	quoteReqID := uuid.NewString()
	msg := builder.BuildQuoteRequest(builder.QuoteRequestParams{
		QuoteReqID: quoteReqID,
		Account:    a.Config.Account,
		Symbol:     symbol,
		Side:       side,
		OrderQty:   qty,
		Price:      price,
	})
	if err := a.Engine.SendMsg(msg); err != nil {
		return "", fmt.Errorf("fixclient: send quote request: %w", err)
	}
	return quoteReqID, nil
}

// SendAcceptQuote resolves ref (a QuoteID or QuoteReqID) to a received
// Quote and accepts it at the quoted price, registering a new tracked
// order the same way SendNewOrder does.
func (a *FixApp) SendAcceptQuote(ref, side, qty string) (*order.Order, error) {
	q := a.Quotes.Find(ref)
	if q == nil {
		return nil, fmt.Errorf("fixclient: no quote matches %q", ref)
	}

	price := q.OfferPx
	size := q.OfferSize
	if side == tag.SideSell {
		price = q.BidPx
		size = q.BidSize
	}
	if qty == "" {
		qty = size
	}

	root := uuid.NewString()
	o := order.New(root, q.Symbol, side, tag.OrdTypePreviouslyQuoted, a.Config.Account, price, qty)
	msg, err := o.NewReq()
	if err != nil {
		return nil, fmt.Errorf("fixclient: build accept quote: %w", err)
	}
	_ = msg.Set(tag.QuoteID, q.QuoteID)
	_ = msg.Set(tag.Price, price)
	_ = msg.Set(tag.TimeInForce, tag.TimeInForceFOK)

	if err := a.Engine.SendMsg(msg); err != nil {
		return nil, fmt.Errorf("fixclient: send accept quote: %w", err)
	}

	a.Orders.Add(root, o)
	return o, nil
}
