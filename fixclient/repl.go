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
	"io"
	"log"
	"strings"

	"github.com/chzyer/readline"

	"github.com/coinbase-samples/fixengine-go/tag"
)

// Version is the demo CLI's reported version string.
const Version = "fixengine-go fixclient demo v1.0"

var completer = readline.NewPrefixCompleter(
	readline.PcItem("md"),
	readline.PcItem("unsubscribe"),
	readline.PcItem("status"),
	readline.PcItem("order",
		readline.PcItem("buy"),
		readline.PcItem("sell"),
	),
	readline.PcItem("cancel"),
	readline.PcItem("replace"),
	readline.PcItem("ordstatus"),
	readline.PcItem("orders"),
	readline.PcItem("rfq",
		readline.PcItem("buy"),
		readline.PcItem("sell"),
	),
	readline.PcItem("accept"),
	readline.PcItem("quotes"),
	readline.PcItem("help"),
	readline.PcItem("version"),
	readline.PcItem("exit"),
)

// Repl drives an interactive command loop against a running FixApp,
// generalized from the teacher's Repl(app *FixApp) shape to this
// engine's order/market-data/RFQ command surface.
func Repl(a *FixApp) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fixengine> ",
		HistoryFile:     "/tmp/fixengine-go-history.tmp",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("fixclient: init readline: %w", err)
	}
	defer rl.Close()

	for !a.ShouldExit() {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		a.dispatchCommand(line)
	}
	return nil
}

func (a *FixApp) dispatchCommand(line string) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "help":
		a.displayHelp()
	case "version":
		fmt.Println(Version)
	case "exit", "quit":
		a.shouldExit = true
	case "md":
		a.handleMdCommand(args)
	case "unsubscribe":
		a.handleUnsubscribeCommand(args)
	case "status":
		a.handleStatusCommand()
	case "order":
		a.handleOrderCommand(args)
	case "cancel":
		a.handleCancelCommand(args)
	case "replace":
		a.handleReplaceCommand(args)
	case "ordstatus":
		a.handleOrdStatusCommand(args)
	case "orders":
		a.handleOrdersCommand()
	case "rfq":
		a.handleRfqCommand(args)
	case "accept":
		a.handleAcceptQuoteCommand(args)
	case "quotes":
		a.handleQuotesCommand()
	default:
		log.Printf("Unknown command: %s (type 'help' for a list)", cmd)
	}
}

// --- Market Data ---

func (a *FixApp) handleMdCommand(args []string) {
	if len(args) == 0 {
		log.Printf("usage: md <symbol> [flags...]")
		return
	}
	symbol := args[0]
	flags := parseMdFlags(args[1:])
	if err := a.SendMarketDataRequest(symbol, flags); err != nil {
		log.Printf("%v", err)
	}
}

func parseMdFlags(args []string) MdRequestFlags {
	var f MdRequestFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--snapshot":
			f.Snapshot = true
		case "--subscribe":
			f.Subscribe = true
		case "--depth":
			if i+1 < len(args) {
				i++
				f.Depth = args[i]
			}
		case "--trades":
			f.Trades = true
		case "--o":
			f.Open = true
		case "--c":
			f.Close = true
		case "--h":
			f.High = true
		case "--l":
			f.Low = true
		case "--v":
			f.Volume = true
		case "--bid":
			f.Bid = true
		case "--offer":
			f.Offer = true
		}
	}
	return f
}

func (a *FixApp) handleUnsubscribeCommand(args []string) {
	if len(args) == 0 {
		log.Printf("usage: unsubscribe <symbol|reqId>")
		return
	}
	if err := a.SendUnsubscribe(args[0]); err != nil {
		log.Printf("%v", err)
	}
}

func (a *FixApp) handleStatusCommand() {
	subs := a.TradeStore.GetSubscriptionStatus()
	if len(subs) == 0 {
		fmt.Println("No active subscriptions")
		return
	}
	for reqID, sub := range subs {
		fmt.Printf("  %s: %s (%s), updates=%d, snapshot=%v\n",
			reqID, sub.Symbol, a.getSubscriptionTypeDesc(sub.SubscriptionType), sub.TotalUpdates, sub.SnapshotReceived)
	}
}

// --- Order Entry ---

func (a *FixApp) handleOrderCommand(args []string) {
	if len(args) < 3 {
		log.Printf("usage: order <buy|sell> <symbol> <qty> [price] [flags...]")
		return
	}
	side, err := parseSide(args[0])
	if err != nil {
		log.Printf("%v", err)
		return
	}
	symbol := args[1]
	qty := args[2]

	rest := args[3:]
	price := ""
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "--") {
		price = rest[0]
		rest = rest[1:]
	}

	flags, err := parseOrderFlags(rest)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	o, err := a.SendNewOrder(side, symbol, qty, price, flags)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	log.Printf("Order submitted: ClOrdID=%s", o.ClOrdID())
}

func parseSide(s string) (string, error) {
	switch strings.ToLower(s) {
	case "buy":
		return tag.SideBuy, nil
	case "sell":
		return tag.SideSell, nil
	default:
		return "", fmt.Errorf("fixclient: side must be buy or sell, got %q", s)
	}
}

func parseOrdType(s string) (string, error) {
	switch strings.ToLower(s) {
	case "market":
		return tag.OrdTypeMarket, nil
	case "limit":
		return tag.OrdTypeLimit, nil
	case "stop":
		return tag.OrdTypeStop, nil
	case "stoplimit":
		return tag.OrdTypeStopLimit, nil
	default:
		return "", fmt.Errorf("fixclient: unknown order type %q", s)
	}
}

func parseTif(s string) (string, error) {
	switch strings.ToLower(s) {
	case "gtc":
		return tag.TimeInForceGTC, nil
	case "ioc":
		return tag.TimeInForceIOC, nil
	case "fok":
		return tag.TimeInForceFOK, nil
	case "gtd":
		return tag.TimeInForceGTD, nil
	default:
		return "", fmt.Errorf("fixclient: unknown time in force %q", s)
	}
}

func parseOrderFlags(args []string) (OrderRequestFlags, error) {
	var f OrderRequestFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--type":
			if i+1 >= len(args) {
				return f, fmt.Errorf("fixclient: --type requires a value")
			}
			i++
			ordType, err := parseOrdType(args[i])
			if err != nil {
				return f, err
			}
			f.OrdType = ordType
		case "--tif":
			if i+1 >= len(args) {
				return f, fmt.Errorf("fixclient: --tif requires a value")
			}
			i++
			tif, err := parseTif(args[i])
			if err != nil {
				return f, err
			}
			f.TimeInForce = tif
		case "--strategy":
			if i+1 >= len(args) {
				return f, fmt.Errorf("fixclient: --strategy requires a value")
			}
			i++
			f.Strategy = args[i]
		case "--postonly":
			f.PostOnly = true
		case "--cash":
			f.Cash = true
		}
	}
	return f, nil
}

func (a *FixApp) handleCancelCommand(args []string) {
	if len(args) == 0 {
		log.Printf("usage: cancel <clOrdId|orderId>")
		return
	}
	if err := a.SendCancel(args[0]); err != nil {
		log.Printf("%v", err)
	}
}

func (a *FixApp) handleReplaceCommand(args []string) {
	if len(args) == 0 {
		log.Printf("usage: replace <clOrdId> [--qty Q] [--price P]")
		return
	}
	ref := args[0]
	var newPrice, newQty string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--qty":
			if i+1 < len(rest) {
				i++
				newQty = rest[i]
			}
		case "--price":
			if i+1 < len(rest) {
				i++
				newPrice = rest[i]
			}
		}
	}
	if err := a.SendReplace(ref, newPrice, newQty); err != nil {
		log.Printf("%v", err)
	}
}

func (a *FixApp) handleOrdStatusCommand(args []string) {
	if len(args) == 0 {
		log.Printf("usage: ordstatus <clOrdId|orderId>")
		return
	}
	if err := a.SendOrderStatusRequest(args[0]); err != nil {
		log.Printf("%v", err)
	}
}

func (a *FixApp) handleOrdersCommand() {
	orders := a.Orders.All()
	if len(orders) == 0 {
		fmt.Println("No tracked orders")
		return
	}
	for _, o := range orders {
		snap := o.Snapshot()
		fmt.Printf("  %s: %s %s %s qty=%s price=%s status=%s leaves=%s cum=%s\n",
			snap.ClOrdID, getSideDesc(snap.Side), snap.Symbol, snap.OrdType,
			snap.Qty, snap.Price, getOrdStatusDesc(string(snap.Status)), snap.LeavesQty, snap.CumQty)
	}
}

// --- RFQ ---

func (a *FixApp) handleRfqCommand(args []string) {
	if len(args) < 3 {
		log.Printf("usage: rfq <buy|sell> <symbol> <qty>")
		return
	}
	side, err := parseSide(args[0])
	if err != nil {
		log.Printf("%v", err)
		return
	}
	symbol := args[1]
	qty := args[2]

	quoteReqID, err := a.SendQuoteRequest(side, symbol, qty, "")
	if err != nil {
		log.Printf("%v", err)
		return
	}
	log.Printf("Quote requested: QuoteReqID=%s", quoteReqID)
}

func (a *FixApp) handleAcceptQuoteCommand(args []string) {
	if len(args) < 2 {
		log.Printf("usage: accept <quoteId|quoteReqId> <buy|sell> [qty]")
		return
	}
	ref := args[0]
	side, err := parseSide(args[1])
	if err != nil {
		log.Printf("%v", err)
		return
	}
	qty := ""
	if len(args) > 2 {
		qty = args[2]
	}

	o, err := a.SendAcceptQuote(ref, side, qty)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	log.Printf("Quote accepted: ClOrdID=%s", o.ClOrdID())
}

func (a *FixApp) handleQuotesCommand() {
	quotes := a.Quotes.All()
	if len(quotes) == 0 {
		fmt.Println("No received quotes")
		return
	}
	for _, q := range quotes {
		fmt.Printf("  %s (req=%s): %s bid=%s@%s offer=%s@%s\n",
			q.QuoteID, q.QuoteReqID, q.Symbol, q.BidSize, q.BidPx, q.OfferSize, q.OfferPx)
	}
}
