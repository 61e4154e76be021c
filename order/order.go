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

// Package order implements the single-order state machine of spec §4.6: an
// Order tracks one working order through New/Cancel/Replace requests and
// the execution reports and cancel-rejects that answer them. ChangeStatus
// is the pure transition function the formal table describes; Manager is
// the keyed store a connection's application layer uses to look orders up
// by ClOrdID root.
package order

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// ErrIllegalTransition is the core error for a status transition the table
// does not permit: an unsolicited move from a terminal state back to a
// working one, or an exec report that doesn't match any pending request.
var ErrIllegalTransition = errors.New("order: illegal status transition")

// ErrIllegalState is returned by the request constructors when called
// against an Order in a status that doesn't permit the request, e.g.
// CancelReq against an already-terminal order.
var ErrIllegalState = errors.New("order: illegal state for requested operation")

// Status is an OrdStatus (39) value, held as the FIX wire code itself so
// no translation table is needed at the boundary.
type Status string

const (
	StatusNew             Status = tag.OrdStatusNew
	StatusPartiallyFilled Status = tag.OrdStatusPartiallyFilled
	StatusFilled          Status = tag.OrdStatusFilled
	StatusCanceled        Status = tag.OrdStatusCanceled
	StatusReplaced        Status = tag.OrdStatusReplaced
	StatusPendingCancel   Status = tag.OrdStatusPendingCancel
	StatusRejected        Status = tag.OrdStatusRejected
	StatusSuspended       Status = tag.OrdStatusSuspended
	StatusPendingNew      Status = tag.OrdStatusPendingNew
	StatusExpired         Status = tag.OrdStatusExpired
	StatusPendingReplace  Status = tag.OrdStatusPendingReplace

	// StatusCreated is a client-side-only status with no OrdStatus wire
	// equivalent: an Order that exists in memory but has never had
	// NewReq called on it.
	StatusCreated Status = "created"
)

// terminal holds the statuses change_status treats as final per spec
// §4.6: "FILLED, CANCELED, REJECTED, EXPIRED".
var terminal = map[Status]bool{
	StatusFilled:   true,
	StatusCanceled: true,
	StatusRejected: true,
	StatusExpired:  true,
}

// IsFinished reports whether s is one of the four terminal statuses.
func (s Status) IsFinished() bool {
	return terminal[s]
}

// Order is a single working order: the data model of spec §3 "Order
// (single)". Fields are ordered for memory alignment, matching the
// teacher's convention.
type Order struct {
	mu sync.Mutex

	// Identity
	clOrdIDRoot    string
	clOrdIDCounter int
	currentClOrdID string
	origClOrdID    string
	orderID        string

	// Order attributes, fixed at creation
	symbol  string
	side    string
	ordType string
	account string

	// Mutable order attributes
	price       string
	targetPrice string
	qty         string

	// State
	status    Status
	leavesQty string
	cumQty    string
	avgPx     string
}

// New constructs an Order in StatusCreated. clOrdIDRoot is the stable
// client identifier root; each request appends "--<counter>" to it per
// spec §3.
func New(clOrdIDRoot, symbol, side, ordType, account, price, qty string) *Order {
	return &Order{
		clOrdIDRoot: clOrdIDRoot,
		symbol:      symbol,
		side:        side,
		ordType:     ordType,
		account:     account,
		price:       price,
		qty:         qty,
		status:      StatusCreated,
		leavesQty:   qty,
		cumQty:      "0",
	}
}

// nextClOrdID increments the counter and returns the wire ClOrdID, per
// spec §3: "ClOrdID on the wire is derived as root--counter".
func (o *Order) nextClOrdID() string {
	o.clOrdIDCounter++
	return fmt.Sprintf("%s--%d", o.clOrdIDRoot, o.clOrdIDCounter)
}

// canCancel reports whether the order is in a status that can accept a
// cancel request: it must be live and not already pending a cancel or
// replace.
func (o *Order) canCancel() bool {
	switch o.status {
	case StatusNew, StatusPartiallyFilled, StatusSuspended:
		return true
	default:
		return false
	}
}

// canReplace mirrors canCancel: replace requires the same preconditions.
func (o *Order) canReplace() bool {
	return o.canCancel()
}

// NewReq requires StatusCreated; builds a NewOrderSingle (35=D) and moves
// the order to PENDING_NEW on successful construction, per spec §4.6.
func (o *Order) NewReq() (*message.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusCreated {
		return nil, fmt.Errorf("%w: NewReq requires status created, got %s", ErrIllegalState, o.status)
	}

	clOrdID := o.nextClOrdID()
	msg := message.New(tag.MsgTypeNewOrderSingle)
	if err := setNewOrderFields(msg, clOrdID, o); err != nil {
		return nil, err
	}

	o.currentClOrdID = clOrdID
	o.status = StatusPendingNew
	return msg, nil
}

// CancelReq requires can_cancel(); builds an OrderCancelRequest (35=F)
// referencing the current ClOrdID as OrigClOrdID and moves the order to
// PENDING_CANCEL.
func (o *Order) CancelReq() (*message.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.canCancel() {
		return nil, fmt.Errorf("%w: CancelReq not permitted from status %s", ErrIllegalState, o.status)
	}

	clOrdID := o.nextClOrdID()
	msg := message.New(tag.MsgTypeOrderCancelRequest)
	if err := msg.Set(tag.OrigClOrdID, o.currentClOrdID); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.ClOrdID, clOrdID); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.Symbol, o.symbol); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.Side, o.side); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.OrderQty, o.qty); err != nil {
		return nil, err
	}

	o.origClOrdID = o.currentClOrdID
	o.currentClOrdID = clOrdID
	o.status = StatusPendingCancel
	return msg, nil
}

// ReplaceReq requires can_replace() and at least one of newPrice/newQty
// non-empty; builds an OrderCancelReplaceRequest (35=G) and moves the
// order to PENDING_REPLACE.
func (o *Order) ReplaceReq(newPrice, newQty string) (*message.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.canReplace() {
		return nil, fmt.Errorf("%w: ReplaceReq not permitted from status %s", ErrIllegalState, o.status)
	}
	if newPrice == "" && newQty == "" {
		return nil, fmt.Errorf("%w: ReplaceReq requires at least one of price or qty", ErrIllegalState)
	}

	price := newPrice
	if price == "" {
		price = o.price
	}
	qty := newQty
	if qty == "" {
		qty = o.qty
	}

	clOrdID := o.nextClOrdID()
	msg := message.New(tag.MsgTypeOrderCancelReplace)
	if err := msg.Set(tag.OrigClOrdID, o.currentClOrdID); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.ClOrdID, clOrdID); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.Symbol, o.symbol); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.Side, o.side); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.OrdType, o.ordType); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.OrderQty, qty); err != nil {
		return nil, err
	}
	if err := msg.Set(tag.Price, price); err != nil {
		return nil, err
	}

	o.origClOrdID = o.currentClOrdID
	o.currentClOrdID = clOrdID
	o.targetPrice = newPrice
	o.status = StatusPendingReplace
	return msg, nil
}

func setNewOrderFields(msg *message.Message, clOrdID string, o *Order) error {
	fields := []struct {
		t tag.Tag
		v string
	}{
		{tag.ClOrdID, clOrdID},
		{tag.Symbol, o.symbol},
		{tag.Side, o.side},
		{tag.OrdType, o.ordType},
		{tag.OrderQty, o.qty},
	}
	for _, f := range fields {
		if err := msg.Set(f.t, f.v); err != nil {
			return err
		}
	}
	if o.account != "" {
		if err := msg.Set(tag.Account, o.account); err != nil {
			return err
		}
	}
	if o.ordType == tag.OrdTypeLimit || o.ordType == tag.OrdTypeStopLimit {
		if err := msg.Set(tag.Price, o.price); err != nil {
			return err
		}
	}
	return nil
}

// execTypeTarget maps an ExecType (150) to the OrdStatus it drives, per
// spec §4.6 "Exec reports with ExecType NEW/CANCELED/REPLACED/FILLED/
// PARTIAL/REJECTED/EXPIRED/SUSPENDED map to matching OrdStatus
// transitions".
var execTypeTarget = map[string]Status{
	tag.ExecTypeNew:         StatusNew,
	tag.ExecTypeCanceled:    StatusCanceled,
	tag.ExecTypeReplaced:    StatusReplaced,
	tag.ExecTypeFilled:      StatusFilled,
	tag.ExecTypePartialFill: StatusPartiallyFilled,
	tag.ExecTypeRejected:    StatusRejected,
	tag.ExecTypeExpired:     StatusExpired,
	tag.ExecTypeSuspended:   StatusSuspended,
}

// ChangeStatus is the pure transition function spec §4.6 requires:
// change_status(current, incoming_msg_type, exec_type, new_status). It
// returns the resulting status, or an error if the transition is illegal.
// A nil error with an unchanged status (equal to current) means "remain
// pending, wait for a matching ack" per spec §4.6's PENDING_* rule.
func ChangeStatus(current Status, incomingMsgType, execType string) (Status, error) {
	if current.IsFinished() {
		return current, fmt.Errorf("%w: status %s is terminal", ErrIllegalTransition, current)
	}

	if incomingMsgType == tag.MsgTypeOrderCancelReject {
		// Handled by callers via RevertFromCancelReject; ChangeStatus
		// only processes execution reports.
		return current, fmt.Errorf("%w: use RevertFromCancelReject for OrderCancelReject", ErrIllegalTransition)
	}

	if execType == tag.ExecTypePendingNew {
		// ExecType=PENDING_NEW (A) only ever confirms an order still
		// awaiting its first ack; per spec §8 it is a no-op on an order
		// already PENDING_NEW and illegal anywhere else (a live order
		// doesn't revert to pending).
		if current == StatusPendingNew {
			return current, nil
		}
		return current, fmt.Errorf("%w: ExecType PendingNew on non-pending status %s", ErrIllegalTransition, current)
	}

	target, known := execTypeTarget[execType]
	if !known {
		return current, fmt.Errorf("%w: unrecognized ExecType %q", ErrIllegalTransition, execType)
	}

	switch current {
	case StatusPendingCancel:
		if execType == tag.ExecTypeCanceled {
			return StatusCanceled, nil
		}
		// PENDING_* + mismatched non-pending exec: remain in pending.
		return current, nil
	case StatusPendingReplace:
		if execType == tag.ExecTypeReplaced {
			return target, nil
		}
		return current, nil
	case StatusPendingNew:
		return target, nil
	default:
		// Already live (NEW/PARTIALLY_FILLED/SUSPENDED): any recognized
		// exec type applies directly, except a terminal-reverting move
		// is never illegal here because none of execTypeTarget's values
		// are "backward" from a non-terminal current status.
		return target, nil
	}
}

// RevertFromCancelReject applies an OrderCancelReject (35=9): per spec
// §4.6, PENDING_CANCEL/PENDING_REPLACE revert to the OrdStatus the reject
// reports as current (tag 39 on the OrderCancelReject itself).
func RevertFromCancelReject(current Status, reportedStatus Status) (Status, error) {
	if current != StatusPendingCancel && current != StatusPendingReplace {
		return current, fmt.Errorf("%w: OrderCancelReject only reverts a pending cancel/replace, current is %s", ErrIllegalTransition, current)
	}
	return reportedStatus, nil
}

// IsFinished reports whether the order has reached a terminal status.
func (o *Order) IsFinished() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status.IsFinished()
}

// IsOpen reports whether the order is live on the book: not yet filled,
// canceled or rejected, matching the teacher's isOpenStatus helper
// generalized across the full status set.
func (o *Order) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.status {
	case StatusNew, StatusPartiallyFilled, StatusPendingCancel, StatusSuspended, StatusPendingNew, StatusPendingReplace:
		return true
	default:
		return false
	}
}

// Status returns the order's current OrdStatus.
func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// ClOrdID returns the most recently sent ClOrdID (the "current" one an
// execution report is expected to echo back).
func (o *Order) ClOrdID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentClOrdID
}

// Snapshot is a defensive-copy view of an Order's fields, matching the
// teacher's GetOrder pattern of returning a copy rather than the live
// pointer.
type Snapshot struct {
	ClOrdID     string
	OrigClOrdID string
	OrderID     string
	Symbol      string
	Side        string
	OrdType     string
	Account     string
	Price       string
	TargetPrice string
	Qty         string
	Status      Status
	LeavesQty   string
	CumQty      string
	AvgPx       string
}

// Snapshot returns a copy of the order's current state.
func (o *Order) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		ClOrdID:     o.currentClOrdID,
		OrigClOrdID: o.origClOrdID,
		OrderID:     o.orderID,
		Symbol:      o.symbol,
		Side:        o.side,
		OrdType:     o.ordType,
		Account:     o.account,
		Price:       o.price,
		TargetPrice: o.targetPrice,
		Qty:         o.qty,
		Status:      o.status,
		LeavesQty:   o.leavesQty,
		CumQty:      o.cumQty,
		AvgPx:       o.avgPx,
	}
}

// ProcessExecutionReport applies an ExecutionReport (35=8) to the order,
// per spec §4.6: verifies ClOrdID matches a known current/pending ClOrdID,
// applies ChangeStatus, updates OrderID/LeavesQty/CumQty/AvgPx, and
// returns 1 for accepted, 0 for "no change / not mine", -1 on semantic
// error.
func (o *Order) ProcessExecutionReport(msg *message.Message) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	clOrdID, err := msg.Get(tag.ClOrdID)
	if err != nil {
		return -1, fmt.Errorf("order: execution report missing ClOrdID: %w", err)
	}
	if clOrdID != o.currentClOrdID {
		return 0, nil
	}

	execType, err := msg.Get(tag.ExecType)
	if err != nil {
		return -1, fmt.Errorf("order: execution report missing ExecType: %w", err)
	}

	next, err := ChangeStatus(o.status, tag.MsgTypeExecutionReport, execType)
	if err != nil {
		return -1, err
	}
	if next == o.status {
		return 0, nil
	}

	o.status = next
	o.applyExecFields(msg)
	return 1, nil
}

// ProcessCancelReject applies an OrderCancelReject (35=9), per spec §4.6.
func (o *Order) ProcessCancelReject(msg *message.Message) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	clOrdID, err := msg.Get(tag.ClOrdID)
	if err != nil {
		return -1, fmt.Errorf("order: cancel reject missing ClOrdID: %w", err)
	}
	if clOrdID != o.currentClOrdID {
		return 0, nil
	}

	reported, err := msg.Get(tag.OrdStatus)
	if err != nil {
		return -1, fmt.Errorf("order: cancel reject missing OrdStatus: %w", err)
	}

	next, err := RevertFromCancelReject(o.status, Status(reported))
	if err != nil {
		return -1, err
	}

	o.status = next
	if orderID, err := msg.Get(tag.OrderID); err == nil {
		o.orderID = orderID
	}
	return 1, nil
}

func (o *Order) applyExecFields(msg *message.Message) {
	if v, err := msg.Get(tag.OrderID); err == nil {
		o.orderID = v
	}
	if v, err := msg.Get(tag.LeavesQty); err == nil {
		o.leavesQty = v
	}
	if v, err := msg.Get(tag.CumQty); err == nil {
		o.cumQty = v
	}
	if v, err := msg.Get(tag.AvgPx); err == nil {
		o.avgPx = v
	}
}
