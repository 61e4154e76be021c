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
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coinbase-samples/fixengine-go/connection"
	"github.com/coinbase-samples/fixengine-go/fix44"
	"github.com/coinbase-samples/fixengine-go/fixsession"
	"github.com/coinbase-samples/fixengine-go/journal"
	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// peerApp is a minimal connection.Application recording every application
// message it receives, standing in for the counterparty side of the pipe
// so requests_test can assert on what FixApp actually puts on the wire.
type peerApp struct {
	connection.NoopApplication

	mu         sync.Mutex
	logonCh    chan struct{}
	messages   []*message.Message
	onceLogon  sync.Once
}

func newPeerApp() *peerApp {
	return &peerApp{logonCh: make(chan struct{})}
}

func (p *peerApp) OnLogon(isHealthy bool) {
	p.onceLogon.Do(func() { close(p.logonCh) })
}

func (p *peerApp) OnMessage(msg *message.Message) {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
}

func (p *peerApp) last() *message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.messages) == 0 {
		return nil
	}
	return p.messages[len(p.messages)-1]
}

// newActiveTestApp wires a FixApp to a real Engine over an in-memory
// net.Pipe against a peerApp, blocking until both sides report the
// session active so SendMsg-driven request helpers can be exercised
// end to end.
func newActiveTestApp(t *testing.T) (*FixApp, *peerApp) {
	t.Helper()

	profile, err := fix44.NewProfile()
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}

	connApp, connPeer := net.Pipe()

	sessApp := fixsession.New("ME", "YOU")
	sessPeer := fixsession.New("YOU", "ME")

	app := NewFixApp(Config{Account: "ACCT-1", TradeStoreSize: 50})
	peer := newPeerApp()

	cfgApp := connection.Config{SenderCompID: "ME", TargetCompID: "YOU", HeartBtInt: 30 * time.Second, Role: connection.RoleInitiator}
	cfgPeer := connection.Config{SenderCompID: "YOU", TargetCompID: "ME", HeartBtInt: 30 * time.Second, Role: connection.RoleAcceptor}

	engApp := connection.New(cfgApp, connApp, sessApp, journal.NewMemoryJournal(), profile, app, zerolog.Nop())
	engPeer := connection.New(cfgPeer, connPeer, sessPeer, journal.NewMemoryJournal(), profile, peer, zerolog.Nop())
	app.Engine = engApp

	go engApp.Run()
	go engPeer.Run()

	select {
	case <-peer.logonCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for peer logon")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && engApp.State() != connection.StateActive {
		time.Sleep(5 * time.Millisecond)
	}
	if engApp.State() != connection.StateActive {
		t.Fatalf("expected engine active, got %s", engApp.State())
	}

	t.Cleanup(func() {
		_ = engApp.Disconnect(connection.StateDisconnectedWConnToday, "test done")
	})

	return app, peer
}

func waitForMessage(t *testing.T, peer *peerApp) *message.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msg := peer.last(); msg != nil {
			return msg
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for peer to receive a message")
	return nil
}

func TestSendMarketDataRequest_RegistersSubscriptionAndSends(t *testing.T) {
	app, peer := newActiveTestApp(t)

	if err := app.SendMarketDataRequest("BTC-USD", MdRequestFlags{Subscribe: true, Trades: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := waitForMessage(t, peer)
	if msg.MsgType() != tag.MsgTypeMarketDataRequest {
		t.Fatalf("expected MarketDataRequest, got %s", msg.MsgType())
	}

	subs := app.TradeStore.GetSubscriptionsBySymbol()
	if _, ok := subs["BTC-USD"]; !ok {
		t.Fatalf("expected BTC-USD subscription to be registered")
	}
}

func TestSendNewOrder_TracksOrderAndSetsTimeInForce(t *testing.T) {
	app, peer := newActiveTestApp(t)

	o, err := app.SendNewOrder(tag.SideBuy, "BTC-USD", "1.0", "50000.00", OrderRequestFlags{TimeInForce: tag.TimeInForceIOC})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := waitForMessage(t, peer)
	if msg.MsgType() != tag.MsgTypeNewOrderSingle {
		t.Fatalf("expected NewOrderSingle, got %s", msg.MsgType())
	}
	if tif := msg.GetOr(tag.TimeInForce, ""); tif != tag.TimeInForceIOC {
		t.Fatalf("expected TimeInForce IOC, got %q", tif)
	}

	found := app.findOrder(o.ClOrdID())
	if found == nil {
		t.Fatalf("expected order to be tracked under its ClOrdID")
	}
}

func TestSendAcceptQuote_UsesMatchingSidePriceAndSize(t *testing.T) {
	app, peer := newActiveTestApp(t)

	app.Quotes.Add(&Quote{
		QuoteID: "q-1", QuoteReqID: "req-1", Symbol: "BTC-USD",
		BidPx: "49990.00", BidSize: "2.0",
		OfferPx: "50010.00", OfferSize: "1.0",
	})

	o, err := app.SendAcceptQuote("q-1", tag.SideBuy, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o == nil {
		t.Fatal("expected a tracked order to be returned")
	}

	msg := waitForMessage(t, peer)
	if price := msg.GetOr(tag.Price, ""); price != "50010.00" {
		t.Fatalf("expected accept-quote buy to use offer price 50010.00, got %q", price)
	}
	if qty := msg.GetOr(tag.OrderQty, ""); qty != "1.0" {
		t.Fatalf("expected accept-quote buy to default qty to offer size 1.0, got %q", qty)
	}
	if tif := msg.GetOr(tag.TimeInForce, ""); tif != tag.TimeInForceFOK {
		t.Fatalf("expected FOK on accept-quote order, got %q", tif)
	}
}

func TestSendAcceptQuote_UnknownRefReturnsError(t *testing.T) {
	app, _ := newActiveTestApp(t)

	if _, err := app.SendAcceptQuote("nonexistent", tag.SideBuy, "1.0"); err == nil {
		t.Fatalf("expected error for unknown quote reference")
	}
}
