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

// Package tag holds the process-wide FIX tag, message-type, and enum
// catalog. These are constants, not a mutable registry: schema-derived
// enumerations live in package schema, keyed per loaded dictionary.
package tag

import "strconv"

// Tag is a FIX tag number. Values on the wire are always opaque strings;
// typed interpretation belongs to package schema or to callers.
type Tag int

// String renders the tag as its decimal wire form.
func (t Tag) String() string {
	return strconv.Itoa(int(t))
}

// --- Framing / header tags (owned by the codec; see message.reservedTags) ---
const (
	BeginString   Tag = 8
	BodyLength    Tag = 9
	MsgType       Tag = 35
	MsgSeqNum     Tag = 34
	SendingTime   Tag = 52
	SenderCompID  Tag = 49
	TargetCompID  Tag = 56
	CheckSum      Tag = 10
	PossDupFlag   Tag = 43
	PossResend    Tag = 97
	OrigSendingTime Tag = 122
	TestReqID     Tag = 112
)

// --- Session / admin tags ---
const (
	EncryptMethod   Tag = 98
	HeartBtInt      Tag = 108
	ResetSeqNumFlag Tag = 141
	BeginSeqNo      Tag = 7
	EndSeqNo        Tag = 16
	NewSeqNo        Tag = 36
	GapFillFlag     Tag = 123
	RefSeqNum       Tag = 45
	RefTagID        Tag = 371
	RefMsgType      Tag = 372
	SessionRejectReason  Tag = 373
	BusinessRejectReason Tag = 380
	Text            Tag = 58
	Username        Tag = 553
	Password        Tag = 554
)

// --- Order entry tags ---
const (
	Account        Tag = 1
	AvgPx          Tag = 6
	ClOrdID        Tag = 11
	CommType       Tag = 13
	Commission     Tag = 12
	CumQty         Tag = 14
	ExecID         Tag = 17
	ExecInst       Tag = 18
	HandlInst      Tag = 21
	LastMkt        Tag = 30
	LastPx         Tag = 31
	LastShares     Tag = 32
	OrderID        Tag = 37
	OrderQty       Tag = 38
	OrdStatus      Tag = 39
	OrdType        Tag = 40
	OrigClOrdID    Tag = 41
	Price          Tag = 44
	Side           Tag = 54
	Symbol         Tag = 55
	TimeInForce    Tag = 59
	TransactTime   Tag = 60
	ValidUntilTime Tag = 62
	StopPx         Tag = 99
	OrdRejReason   Tag = 103
	CxlRejReason   Tag = 102
	ExpireTime     Tag = 126
	CashOrderQty   Tag = 152
	EffectiveTime  Tag = 168
	MaxShow        Tag = 210
	ExecType       Tag = 150
	LeavesQty      Tag = 151
	CxlRejResponseTo Tag = 434
	TargetStrategy   Tag = 847
	ParticipationRate Tag = 849
	QuoteID          Tag = 117
)

// --- Market data tags ---
const (
	MdReqId                 Tag = 262
	SubscriptionRequestType Tag = 263
	MarketDepth             Tag = 264
	MdUpdateType            Tag = 265
	NoMdEntryTypes          Tag = 267
	NoMdEntries             Tag = 268
	MdEntryType             Tag = 269
	MdEntryPx               Tag = 270
	MdEntrySize             Tag = 271
	MdEntryTime             Tag = 273
	MdReqRejReason          Tag = 281
	MdEntryPositionNo       Tag = 290
	NoRelatedSym            Tag = 146
)

// --- Quote workflow tags (carried for schema completeness, see Non-goals) ---
const (
	QuoteReqID        Tag = 131
	BidPx             Tag = 132
	OfferPx           Tag = 133
	BidSize           Tag = 134
	OfferSize         Tag = 135
	QuoteAckStatus    Tag = 297
	QuoteRejectReason Tag = 300
)

// --- Misc fee / reject detail tags ---
const (
	NoMiscFees  Tag = 136
	MiscFeeAmt  Tag = 137
	MiscFeeCurr Tag = 138
	MiscFeeType Tag = 139
)

// --- Message Types (tag 35 values) ---
const (
	MsgTypeHeartbeat      = "0"
	MsgTypeTestRequest    = "1"
	MsgTypeResendRequest  = "2"
	MsgTypeReject         = "3"
	MsgTypeSequenceReset  = "4"
	MsgTypeLogout         = "5"
	MsgTypeLogon          = "A"
	MsgTypeBusinessReject = "j"

	MsgTypeNewOrderSingle     = "D"
	MsgTypeOrderCancelRequest = "F"
	MsgTypeOrderCancelReplace = "G"
	MsgTypeOrderStatusRequest = "H"
	MsgTypeExecutionReport    = "8"
	MsgTypeOrderCancelReject  = "9"

	MsgTypeQuoteRequest         = "R"
	MsgTypeQuote                = "S"
	MsgTypeQuoteAcknowledgement = "b"
	MsgTypeMarketDataRequest     = "V"
	MsgTypeMarketDataSnapshot    = "W"
	MsgTypeMarketDataIncremental = "X"
	MsgTypeMarketDataReject      = "Y"
)

// AdminMsgTypes are the session-layer (as opposed to application) message
// types per spec §4.5 / GLOSSARY "Admin vs app message".
var AdminMsgTypes = map[string]bool{
	MsgTypeHeartbeat:     true,
	MsgTypeTestRequest:   true,
	MsgTypeResendRequest: true,
	MsgTypeReject:        true,
	MsgTypeSequenceReset: true,
	MsgTypeLogout:        true,
	MsgTypeLogon:         true,
}

// IsAdmin reports whether msgType is a session-management message.
func IsAdmin(msgType string) bool {
	return AdminMsgTypes[msgType]
}

// --- Side (54) ---
const (
	SideBuy  = "1"
	SideSell = "2"
)

// --- OrdType (40) ---
const (
	OrdTypeMarket           = "1"
	OrdTypeLimit            = "2"
	OrdTypeStop             = "3"
	OrdTypeStopLimit        = "4"
	OrdTypePreviouslyQuoted = "D"
)

// --- TimeInForce (59) ---
const (
	TimeInForceGTC = "1"
	TimeInForceIOC = "3"
	TimeInForceFOK = "4"
	TimeInForceGTD = "6"
)

// --- OrdStatus (39) ---
const (
	OrdStatusNew             = "0"
	OrdStatusPartiallyFilled = "1"
	OrdStatusFilled          = "2"
	OrdStatusDoneForDay      = "3"
	OrdStatusCanceled        = "4"
	OrdStatusReplaced        = "5"
	OrdStatusPendingCancel   = "6"
	OrdStatusStopped         = "7"
	OrdStatusRejected        = "8"
	OrdStatusSuspended       = "9"
	OrdStatusPendingNew      = "A"
	OrdStatusCalculated      = "B"
	OrdStatusExpired         = "C"
	OrdStatusAcceptedBidding = "D"
	OrdStatusPendingReplace  = "E"
)

// --- ExecType (150) ---
const (
	ExecTypeNew           = "0"
	ExecTypePartialFill   = "1"
	ExecTypeFilled        = "2"
	ExecTypeDone          = "3"
	ExecTypeCanceled      = "4"
	ExecTypeReplaced      = "5"
	ExecTypePendingCancel = "6"
	ExecTypeStopped       = "7"
	ExecTypeRejected      = "8"
	ExecTypeSuspended     = "9"
	ExecTypePendingNew    = "A"
	ExecTypeExpired       = "C"
	ExecTypeRestated      = "D"
	ExecTypePendingReplace = "E"
	ExecTypeOrderStatus   = "I"
)

// --- CxlRejResponseTo (434) ---
const (
	CxlRejResponseToCancel  = "1"
	CxlRejResponseToReplace = "2"
)

// --- Market data ---
const (
	SubscriptionRequestTypeSnapshot    = "0"
	SubscriptionRequestTypeSubscribe   = "1"
	SubscriptionRequestTypeUnsubscribe = "2"

	MdUpdateTypeFullRefresh = "0"
	MdUpdateTypeIncremental = "1"

	MdEntryTypeBid    = "0"
	MdEntryTypeOffer  = "1"
	MdEntryTypeTrade  = "2"
	MdEntryTypeOpen   = "4"
	MdEntryTypeClose  = "5"
	MdEntryTypeHigh   = "7"
	MdEntryTypeLow    = "8"
	MdEntryTypeVolume = "B"
)

// --- OrdRejReason (103) ---
const (
	OrdRejReasonBrokerOption   = "0"
	OrdRejReasonUnknownSymbol  = "1"
	OrdRejReasonExchangeClosed = "2"
	OrdRejReasonExceedsLimit   = "3"
	OrdRejReasonTooLate        = "4"
	OrdRejReasonUnknownOrder   = "5"
	OrdRejReasonDuplicateOrder = "6"
	OrdRejReasonOther          = "99"
)

// --- MdReqRejReason (281) ---
const (
	MdReqRejReasonUnknownSymbol              = "0"
	MdReqRejReasonDuplicateMdReqId            = "1"
	MdReqRejReasonInsufficientBandwidth       = "2"
	MdReqRejReasonInsufficientPermission      = "3"
	MdReqRejReasonUnsupportedMdEntryType      = "4"
	MdReqRejReasonInvalidMarketDepth          = "5"
	MdReqRejReasonUnsupportedMdUpdateType     = "6"
	MdReqRejReasonInvalidSubscriptionReqType  = "7"
	MdReqRejReasonOther                       = "8"
)

// --- SessionRejectReason (373) ---
const (
	SessionRejectReasonInvalidTag           = "0"
	SessionRejectReasonRequiredTagMissing   = "1"
	SessionRejectReasonTagNotDefined        = "2"
	SessionRejectReasonUndefinedTag         = "3"
	SessionRejectReasonTagWithoutValue      = "4"
	SessionRejectReasonValueOutOfRange      = "5"
	SessionRejectReasonIncorrectDataFormat  = "6"
	SessionRejectReasonDecryptionProblem    = "7"
	SessionRejectReasonSignatureProblem     = "8"
	SessionRejectReasonCompIDProblem        = "9"
	SessionRejectReasonSendingTimeAccuracy  = "10"
	SessionRejectReasonInvalidMsgType       = "11"
)

// --- BusinessRejectReason (380) ---
const (
	BusinessRejectReasonOther                 = "0"
	BusinessRejectReasonUnknownID              = "1"
	BusinessRejectReasonUnknownSecurity        = "2"
	BusinessRejectReasonUnsupportedMsgType     = "3"
	BusinessRejectReasonApplicationNotAvail    = "4"
	BusinessRejectReasonCondRequiredMissing    = "5"
	BusinessRejectReasonNotAuthorized          = "6"
)

// --- QuoteRejectReason (300) ---
const (
	QuoteRejectReasonUnknownSymbol  = "1"
	QuoteRejectReasonExchangeClosed = "2"
	QuoteRejectReasonExceedsLimit   = "5"
	QuoteRejectReasonDuplicate      = "8"
	QuoteRejectReasonInvalidPrice   = "9"
	QuoteRejectReasonOther          = "99"
)

// --- ExecInst (18) ---
const (
	ExecInstPostOnly = "A"
)

// FixTimeFormat is the canonical FIX UTCTIMESTAMP wire layout.
const FixTimeFormat = "20060102-15:04:05.000"

// Version is the fixed BeginString value this engine speaks: FIX 4.4
// session layer only, per spec §1 Non-goals (no FIXT/5.x).
const Version = "FIX.4.4"
