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
	"log"
	"os"
	"text/tabwriter"

	"github.com/coinbase-samples/fixengine-go/tag"
)

// describe looks up code's human-readable label, falling back to the raw
// wire code itself when nothing matches — every lookup table below is
// intentionally partial, covering only the codes this engine's profile
// actually emits.
func describe(table map[string]string, code string) string {
	if desc, ok := table[code]; ok {
		return desc
	}
	return code
}

var execTypeLabels = map[string]string{
	tag.ExecTypeNew:           "New Order",
	tag.ExecTypePartialFill:   "Partial Fill",
	tag.ExecTypeFilled:        "Filled",
	tag.ExecTypeDone:          "Done",
	tag.ExecTypeCanceled:      "Canceled",
	tag.ExecTypePendingCancel: "Pending Cancel",
	tag.ExecTypeStopped:       "Stopped",
	tag.ExecTypeRejected:      "Rejected",
	tag.ExecTypePendingNew:    "Pending New",
	tag.ExecTypeExpired:       "Expired",
	tag.ExecTypeRestated:      "Restated",
	tag.ExecTypeOrderStatus:   "Order Status",
}

var ordStatusLabels = map[string]string{
	tag.OrdStatusNew:              "New",
	tag.OrdStatusPartiallyFilled:  "Partially Filled",
	tag.OrdStatusFilled:           "Filled",
	tag.OrdStatusDoneForDay:       "Done for Day",
	tag.OrdStatusCanceled:         "Canceled",
	tag.OrdStatusReplaced:         "Replaced",
	tag.OrdStatusPendingCancel:    "Pending Cancel",
	tag.OrdStatusStopped:          "Stopped",
	tag.OrdStatusRejected:         "Rejected",
	tag.OrdStatusSuspended:        "Suspended",
	tag.OrdStatusPendingNew:       "Pending New",
	tag.OrdStatusCalculated:       "Calculated",
	tag.OrdStatusExpired:          "Expired",
	tag.OrdStatusAcceptedBidding:  "Accepted for Bidding",
	tag.OrdStatusPendingReplace:   "Pending Replace",
}

var sideLabels = map[string]string{
	tag.SideBuy:  "Buy",
	tag.SideSell: "Sell",
}

var ordRejReasonLabels = map[string]string{
	tag.OrdRejReasonBrokerOption:   "Broker Option",
	tag.OrdRejReasonUnknownSymbol:  "Unknown Symbol",
	tag.OrdRejReasonExchangeClosed: "Exchange Closed",
	tag.OrdRejReasonExceedsLimit:   "Exceeds Limit",
	tag.OrdRejReasonTooLate:        "Too Late",
	tag.OrdRejReasonUnknownOrder:   "Unknown Order",
	tag.OrdRejReasonDuplicateOrder: "Duplicate Order",
	tag.OrdRejReasonOther:          "Other",
}

var quoteRejectReasonLabels = map[string]string{
	tag.QuoteRejectReasonUnknownSymbol:  "Unknown Symbol",
	tag.QuoteRejectReasonExchangeClosed: "Exchange Closed",
	tag.QuoteRejectReasonExceedsLimit:   "Exceeds Limit",
	tag.QuoteRejectReasonDuplicate:      "Duplicate Quote",
	tag.QuoteRejectReasonInvalidPrice:   "Invalid Price",
	tag.QuoteRejectReasonOther:          "Other",
}

var sessionRejectReasonLabels = map[string]string{
	tag.SessionRejectReasonInvalidTag:          "Invalid Tag",
	tag.SessionRejectReasonRequiredTagMissing:  "Required Tag Missing",
	tag.SessionRejectReasonTagNotDefined:       "Tag Not Defined",
	tag.SessionRejectReasonUndefinedTag:        "Undefined Tag",
	tag.SessionRejectReasonTagWithoutValue:     "Tag Without Value",
	tag.SessionRejectReasonValueOutOfRange:     "Value Out of Range",
	tag.SessionRejectReasonIncorrectDataFormat: "Incorrect Data Format",
	tag.SessionRejectReasonDecryptionProblem:   "Decryption Problem",
	tag.SessionRejectReasonSignatureProblem:    "Signature Problem",
	tag.SessionRejectReasonCompIDProblem:       "CompID Problem",
	tag.SessionRejectReasonSendingTimeAccuracy: "Sending Time Accuracy",
	tag.SessionRejectReasonInvalidMsgType:      "Invalid Msg Type",
}

var businessRejectReasonLabels = map[string]string{
	tag.BusinessRejectReasonOther:                 "Other",
	tag.BusinessRejectReasonUnknownID:              "Unknown ID",
	tag.BusinessRejectReasonUnknownSecurity:        "Unknown Security",
	tag.BusinessRejectReasonUnsupportedMsgType:     "Unsupported Message Type",
	tag.BusinessRejectReasonApplicationNotAvail:    "Application Not Available",
	tag.BusinessRejectReasonCondRequiredMissing:    "Conditionally Required Field Missing",
	tag.BusinessRejectReasonNotAuthorized:          "Not Authorized",
}

var mdEntryTypeLabels = map[string]string{
	tag.MdEntryTypeBid:    "Bid",
	tag.MdEntryTypeOffer:  "Offer",
	tag.MdEntryTypeTrade:  "Trade",
	tag.MdEntryTypeOpen:   "Open",
	tag.MdEntryTypeClose:  "Close",
	tag.MdEntryTypeHigh:   "High",
	tag.MdEntryTypeLow:    "Low",
	tag.MdEntryTypeVolume: "Volume",
}

var marketDataTypeLabels = map[string]string{
	tag.MsgTypeMarketDataSnapshot:    "Snapshot",
	tag.MsgTypeMarketDataIncremental: "Incremental",
}

// mdEntryTypeOrder fixes the display order for displaySnapshotTrades'
// type-grouped sections: book sides first, then trades, then OHLCV, with
// any entry type the profile doesn't name appended last in whatever
// order the map iteration happened to produce.
var mdEntryTypeOrder = []string{
	tag.MdEntryTypeBid, tag.MdEntryTypeOffer, tag.MdEntryTypeTrade,
	tag.MdEntryTypeOpen, tag.MdEntryTypeClose, tag.MdEntryTypeHigh,
	tag.MdEntryTypeLow, tag.MdEntryTypeVolume,
}

func (a *FixApp) displayHelp() {
	fmt.Print(`Commands:
  --- Market Data ---
  md <symbol> [flags...]        - Market data request
  unsubscribe <symbol|reqId>    - Stop subscription(s)
  status                        - Show active subscriptions

  --- Order Entry ---
  order <buy|sell> <symbol> <qty> [price] [flags...]  - Submit new order
  cancel <clOrdId|orderId>      - Cancel an order
  replace <clOrdId> [--qty Q] [--price P]  - Modify an order
  ordstatus <clOrdId|orderId>   - Request order status
  orders                        - List tracked orders

  --- RFQ (Request for Quote) ---
  rfq <buy|sell> <symbol> <qty> - Request a quote
  accept <quoteId|quoteReqId> <buy|sell> [qty] - Accept a received quote
  quotes                        - List received quotes

  --- General ---
  help                          - Show this help message
  version, exit

Market Data Flags:
  --snapshot / --subscribe      - Request type
  --depth N                     - Order book depth (0=full, 1=L1, N=LN)
  --trades                      - Trade data
  --o, --c, --h, --l, --v       - OHLCV data

Order Flags:
  --type <market|limit|stop>    - Order type
  --tif <gtc|ioc|fok|gtd>       - Time in force
  --strategy <L|M|T|V|SL>       - Target strategy
  --postonly                    - Post-only (maker)
  --cash                        - Qty in quote currency

Examples:
  md BTC-USD --snapshot --trades          - Recent trades
  md BTC-USD --subscribe --depth 10       - Live L10 book
  order buy BTC-USD 0.01 50000            - Limit buy 0.01 BTC at $50k
  order sell ETH-USD 1.5 --type market    - Market sell 1.5 ETH
  rfq buy BTC-USD 1.0                     - Request buy quote for 1 BTC
  cancel ord_123                          - Cancel order
`)
}

// groupByEntryType buckets a snapshot's trades by MDEntryType, defaulting
// an unlabeled entry to Trade (the common case for a bare trade feed).
func groupByEntryType(trades []Trade) map[string][]Trade {
	byType := make(map[string][]Trade)
	for _, trade := range trades {
		entryType := trade.EntryType
		if entryType == "" {
			entryType = tag.MdEntryTypeTrade
		}
		byType[entryType] = append(byType[entryType], trade)
	}
	return byType
}

func (a *FixApp) displaySnapshotTrades(trades []Trade, symbol string) {
	log.Printf("market data snapshot for %s", symbol)

	byType := groupByEntryType(trades)
	seen := make(map[string]bool, len(byType))
	order := make([]string, 0, len(byType))
	for _, t := range mdEntryTypeOrder {
		if _, ok := byType[t]; ok {
			order = append(order, t)
			seen[t] = true
		}
	}
	for t := range byType {
		if !seen[t] {
			order = append(order, t)
		}
	}

	for _, entryType := range order {
		entries := byType[entryType]
		log.Printf("%s entries (%d):", describe(mdEntryTypeLabels, entryType), len(entries))
		renderEntryTable(entryType, entries)
	}

	log.Printf("total entries displayed: %d", len(trades))
}

// renderEntryTable prints one MDEntryType group as a tab-aligned table,
// choosing columns by entry type: book levels carry a position, trades
// don't, and OHLC/volume rows collapse to a single value column.
func renderEntryTable(entryType string, entries []Trade) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	defer w.Flush()

	switch entryType {
	case tag.MdEntryTypeBid, tag.MdEntryTypeOffer:
		fmt.Fprintln(w, "POS\tPRICE\tSIZE\tTIME")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", orDash(e.Position), e.Price, e.Size, e.Time)
		}
	case tag.MdEntryTypeTrade:
		fmt.Fprintln(w, "#\tPRICE\tSIZE\tTIME")
		for i, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, e.Price, e.Size, e.Time)
		}
	case tag.MdEntryTypeVolume:
		fmt.Fprintln(w, "#\tVOLUME\tTIME")
		for i, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, e.Size, e.Time)
		}
	default:
		fmt.Fprintln(w, "#\tVALUE\tTIME")
		for i, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, e.Price, e.Time)
		}
	}
}

func (a *FixApp) displayIncrementalTrades(trades []Trade) {
	for _, trade := range trades {
		a.TradeStore.DisplayRealtimeUpdate(trade)
	}
	if len(trades) > 0 {
		log.Println("---")
	}
}

func (a *FixApp) getSubscriptionTypeDesc(subType string) string {
	return getSubscriptionTypeDesc(subType)
}

func (a *FixApp) displayMarketDataReject(mdReqId, rejReason, reasonDesc, text string) {
	log.Printf("market data request rejected: reqId=%s reason=%s (%s)", mdReqId, rejReason, reasonDesc)
	if text != "" {
		log.Printf("   text: %s", text)
	}
}

var mdRejectHints = map[string]string{
	tag.MdReqRejReasonUnknownSymbol:          "try a different symbol format (e.g., BTCUSD vs BTC-USD)",
	tag.MdReqRejReasonInsufficientPermission: "check whether your account has market data permissions",
	tag.MdReqRejReasonInvalidMarketDepth:     "try MarketDepth=0 (full depth) or MarketDepth=1 (top of book)",
	tag.MdReqRejReasonOther:                  "try a different MdEntryType: 0=Bids, 1=Offers, 2=Trades",
}

func (a *FixApp) displayMarketDataRejectHelp(rejReason string) {
	if hint, ok := mdRejectHints[rejReason]; ok {
		log.Print(hint)
	}
}

func (a *FixApp) displayConnectionSuccess() {
	fmt.Print("Connected! Market data connection established.\n\n")
}

func (a *FixApp) displayMarketDataReceived(msgType, symbol, mdReqId, noMdEntries, seqNum string) {
	log.Printf("market data %s for %s (reqId=%s entries=%s seq=%s)",
		describe(marketDataTypeLabels, msgType), symbol, mdReqId, noMdEntries, seqNum)
}

// --- Order Entry / RFQ Display ---

func (a *FixApp) displayExecutionReport(er *ExecutionReport) {
	log.Printf("execution report: %s", describe(execTypeLabels, er.ExecType))
	log.Printf("   clOrdId=%s orderId=%s", er.ClOrdID, er.OrderID)
	log.Printf("   symbol=%s side=%s status=%s", er.Symbol, describe(sideLabels, er.Side), describe(ordStatusLabels, er.OrdStatus))

	if er.OrderQty != "" {
		log.Printf("   qty=%s filled=%s leaves=%s", er.OrderQty, er.CumQty, er.LeavesQty)
	}
	if er.Price != "" {
		log.Printf("   price=%s", er.Price)
	}
	if er.AvgPx != "" && er.AvgPx != "0" {
		log.Printf("   avgPx=%s", er.AvgPx)
	}
	if er.LastPx != "" && er.LastShares != "" {
		log.Printf("   last fill: %s @ %s", er.LastShares, er.LastPx)
	}
	if er.Commission != "" && er.Commission != "0" {
		log.Printf("   commission=%s", er.Commission)
	}
	if er.OrdRejReason != "" {
		log.Printf("   reject reason: %s (%s)", er.OrdRejReason, describe(ordRejReasonLabels, er.OrdRejReason))
	}
	if er.Text != "" {
		log.Printf("   text: %s", er.Text)
	}
}

func (a *FixApp) displayOrderCancelReject(reject *OrderCancelReject) {
	responseTo := "cancel"
	if reject.CxlRejResponseTo == tag.CxlRejResponseToReplace {
		responseTo = "replace"
	}

	log.Printf("order %s rejected", responseTo)
	log.Printf("   clOrdId=%s origClOrdId=%s", reject.ClOrdID, reject.OrigClOrdID)
	log.Printf("   orderId=%s status=%s", reject.OrderID, describe(ordStatusLabels, reject.OrdStatus))
	if reject.CxlRejReason != "" {
		log.Printf("   reason: %s", reject.CxlRejReason)
	}
	if reject.Text != "" {
		log.Printf("   text: %s", reject.Text)
	}
}

func (a *FixApp) displayQuote(quote *Quote) {
	log.Printf("quote received: quoteId=%s quoteReqId=%s", quote.QuoteID, quote.QuoteReqID)
	log.Printf("   symbol=%s account=%s", quote.Symbol, quote.Account)
	if quote.BidPx != "" {
		log.Printf("   bid: %s @ %s", quote.BidSize, quote.BidPx)
	}
	if quote.OfferPx != "" {
		log.Printf("   offer: %s @ %s", quote.OfferSize, quote.OfferPx)
	}
	if !quote.ValidUntilTime.IsZero() {
		log.Printf("   valid until: %s", quote.ValidUntilTime.Format("15:04:05.000"))
	}
}

func (a *FixApp) displayQuoteAck(ack *QuoteAck) {
	log.Printf("quote request rejected: quoteReqId=%s symbol=%s", ack.QuoteReqID, ack.Symbol)
	log.Printf("   reason: %s (%s)", ack.QuoteRejectReason, describe(quoteRejectReasonLabels, ack.QuoteRejectReason))
	if ack.Text != "" {
		log.Printf("   text: %s", ack.Text)
	}
}

func (a *FixApp) displaySessionReject(reject *SessionReject) {
	log.Printf("session reject: refSeqNum=%s refMsgType=%s", reject.RefSeqNum, reject.RefMsgType)
	if reject.RefTagID != "" {
		log.Printf("   refTagId=%s", reject.RefTagID)
	}
	if reject.SessionRejectReason != "" {
		log.Printf("   reason: %s (%s)", reject.SessionRejectReason, describe(sessionRejectReasonLabels, reject.SessionRejectReason))
	}
	if reject.Text != "" {
		log.Printf("   text: %s", reject.Text)
	}
}

func (a *FixApp) displayBusinessReject(reject *BusinessReject) {
	log.Printf("business message reject: refSeqNum=%s refMsgType=%s", reject.RefSeqNum, reject.RefMsgType)
	log.Printf("   reason: %s (%s)", reject.BusinessRejectReason, describe(businessRejectReasonLabels, reject.BusinessRejectReason))
	if reject.Text != "" {
		log.Printf("   text: %s", reject.Text)
	}
}

// getSideDesc and getOrdStatusDesc are also used directly by repl.go's
// "orders" command, so they stay package-level functions rather than
// folding into the describe()-table helpers above.
func getSideDesc(side string) string {
	return describe(sideLabels, side)
}

func getOrdStatusDesc(status string) string {
	return describe(ordStatusLabels, status)
}
