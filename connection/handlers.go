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

package connection

import (
	"fmt"
	"strconv"
	"time"

	"github.com/coinbase-samples/fixengine-go/codec"
	"github.com/coinbase-samples/fixengine-go/fixsession"
	"github.com/coinbase-samples/fixengine-go/journal"
	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// handleInbound is the single entry point every decoded frame passes
// through, per spec §4.5: identity check, sequence-number bookkeeping,
// then dispatch. It is called from drainFrames on the engine's one
// goroutine.
func (e *Engine) handleInbound(msg *message.Message) error {
	senderID, err := msg.Get(tag.SenderCompID)
	if err != nil {
		return fmt.Errorf("connection: inbound message missing SenderCompID: %w", err)
	}
	targetID, err := msg.Get(tag.TargetCompID)
	if err != nil {
		return fmt.Errorf("connection: inbound message missing TargetCompID: %w", err)
	}
	if err := e.sess.ValidateCompIds(senderID, targetID); err != nil {
		e.log.Warn().Err(err).Msg("comp-id mismatch")
		_ = e.disconnect(StateDisconnectedBrokenConn, "")
		return fmt.Errorf("%w: %v", ErrCompIDMismatch, err)
	}

	// A Logon carrying ResetSeqNumFlag=Y resets both counters to 1 before
	// its own MsgSeqNum (which the sender also reset to 1) is checked
	// against next_num_in, per spec §4.5.
	if msg.MsgType() == tag.MsgTypeLogon && msg.GetOr(tag.ResetSeqNumFlag, "N") == "Y" {
		e.sess.SetSeqNums(1, 1)
	}

	result, seq, err := e.sess.SetNextNumIn(msg)
	if err != nil {
		return err
	}

	switch result {
	case fixsession.GapDuplicate:
		if msg.GetOr(tag.PossDupFlag, "N") == "Y" {
			return nil
		}
		_ = e.disconnect(StateDisconnectedBrokenConn, "")
		return fmt.Errorf("connection: MsgSeqNum %d below next_num_in, no PossDupFlag", seq)

	case fixsession.GapDetected:
		return e.onGapDetected(msg, seq)

	default:
		return e.processInOrder(msg)
	}
}

// processInOrder dispatches a message whose sequence number has just been
// consumed, then re-evaluates any buffered gap messages that may now be
// next in line.
func (e *Engine) processInOrder(msg *message.Message) error {
	if err := e.dispatch(msg); err != nil {
		return err
	}
	return e.reevaluatePending()
}

// onGapDetected buffers the out-of-sequence message and requests a
// resend from next_num_in through the highest number the peer has sent,
// per spec §4.5 "GapDetected triggers ResendRequest".
func (e *Engine) onGapDetected(msg *message.Message, seq int) error {
	e.mu.Lock()
	e.pendingGap = append(e.pendingGap, pendingMsg{seq: seq, msg: msg})
	if !e.loggedOn {
		e.resendBeforeActive = true
	}
	e.mu.Unlock()

	e.setState(StateResendReqAwaiting)

	begin := e.sess.NextNumIn()
	req := message.New(tag.MsgTypeResendRequest)
	_ = req.Set(tag.BeginSeqNo, strconv.Itoa(begin))
	_ = req.Set(tag.EndSeqNo, "0")
	return e.doSend(req, false)
}

// reevaluatePending re-checks the head of the gap buffer against
// next_num_in every time a message is consumed, draining any buffered
// messages that have become next in line (the resend that closed the gap
// may have arrived as application messages interleaved with the gap-
// triggering message itself).
func (e *Engine) reevaluatePending() error {
	for {
		e.mu.Lock()
		if len(e.pendingGap) == 0 {
			e.mu.Unlock()
			return nil
		}
		head := e.pendingGap[0]
		e.mu.Unlock()

		if head.seq != e.sess.NextNumIn() {
			return nil
		}

		e.mu.Lock()
		e.pendingGap = e.pendingGap[1:]
		drained := len(e.pendingGap) == 0
		e.mu.Unlock()

		result, _, err := e.sess.SetNextNumIn(head.msg)
		if err != nil {
			return err
		}
		if result != fixsession.GapNone {
			return fmt.Errorf("connection: buffered message %d still out of sequence on re-evaluation", head.seq)
		}
		if err := e.dispatch(head.msg); err != nil {
			return err
		}

		if drained && e.State() == StateResendReqAwaiting {
			e.transitionToActive()
		}
	}
}

// dispatch routes a message whose sequence number has been consumed to
// its session handler, or to the application callback if it is not an
// admin message, per spec §4.5 admin/application classification.
func (e *Engine) dispatch(msg *message.Message) error {
	switch msg.MsgType() {
	case tag.MsgTypeLogon:
		return e.handleLogon(msg)
	case tag.MsgTypeLogout:
		return e.handleLogout(msg)
	case tag.MsgTypeHeartbeat:
		return e.handleHeartbeat(msg)
	case tag.MsgTypeTestRequest:
		return e.handleTestRequest(msg)
	case tag.MsgTypeResendRequest:
		return e.handleResendRequest(msg)
	case tag.MsgTypeSequenceReset:
		return e.handleSequenceReset(msg)
	case tag.MsgTypeReject:
		e.log.Warn().Str("ref_seq_num", msg.GetOr(tag.RefSeqNum, "")).Msg("received Reject")
		return nil
	default:
		e.app.OnMessage(msg)
		return nil
	}
}

// handleLogon completes the handshake: an acceptor answers with its own
// Logon the first time it sees one, an initiator simply accepts the
// peer's reply, and either way the engine becomes ACTIVE (unless a
// ResendRequest is already outstanding) and fires OnLogon with the
// healthy flag spec §4.5 defines.
func (e *Engine) handleLogon(msg *message.Message) error {
	if hb := msg.GetOr(tag.HeartBtInt, ""); hb != "" {
		if secs, err := strconv.Atoi(hb); err == nil && secs > 0 {
			e.cfg.HeartBtInt = time.Duration(secs) * time.Second
		}
	}

	e.mu.Lock()
	needsResponse := e.cfg.Role == RoleAcceptor && !e.logonResponseSent
	if needsResponse {
		e.logonResponseSent = true
	}
	e.mu.Unlock()

	if needsResponse {
		if e.State() == StateNetworkConnEstablished {
			e.setState(StateLogonInitialRecv)
		}
		if err := e.sendLogon(); err != nil {
			return err
		}
	}

	if e.State() != StateResendReqAwaiting {
		e.transitionToActive()
	}
	return nil
}

// transitionToActive moves the engine to ACTIVE and fires OnLogon exactly
// once per connection, with isHealthy false if any resend was triggered
// before the first arrival at ACTIVE.
func (e *Engine) transitionToActive() {
	e.mu.Lock()
	if e.loggedOn {
		e.mu.Unlock()
		e.setState(StateActive)
		return
	}
	e.loggedOn = true
	healthy := !e.resendBeforeActive
	e.mu.Unlock()

	e.setState(StateActive)
	e.app.OnLogon(healthy)
}

// handleLogout answers a peer-initiated Logout with an empty
// acknowledgement and tears down, or if we are the one who sent Logout
// first, simply tears down on the peer's echo.
func (e *Engine) handleLogout(msg *message.Message) error {
	e.app.OnLogout(msg)

	if e.State() == StateDisconnectedWConnToday {
		return e.teardown(StateDisconnectedWConnToday)
	}

	_ = e.doSend(message.New(tag.MsgTypeLogout), false)
	return e.teardown(StateDisconnectedWConnToday)
}

// handleHeartbeat clears any outstanding TestRequest it answers.
func (e *Engine) handleHeartbeat(msg *message.Message) error {
	if id, err := msg.Get(tag.TestReqID); err == nil {
		e.mu.Lock()
		if e.testReqID == id {
			e.testReqID = ""
		}
		e.mu.Unlock()
	}
	return nil
}

// handleTestRequest answers with a Heartbeat echoing TestReqID, per spec
// §4.5.
func (e *Engine) handleTestRequest(msg *message.Message) error {
	id, _ := msg.Get(tag.TestReqID)
	return e.sendHeartbeat(id)
}

// handleSequenceReset applies GapFill or Reset mode, per spec §4.5:
// GapFill only advances next_num_in forward to NewSeqNo; Reset sets it
// unconditionally, even to a lower value.
func (e *Engine) handleSequenceReset(msg *message.Message) error {
	newSeqStr, err := msg.Get(tag.NewSeqNo)
	if err != nil {
		return fmt.Errorf("connection: SequenceReset missing NewSeqNo: %w", err)
	}
	newSeq, err := strconv.Atoi(newSeqStr)
	if err != nil {
		return fmt.Errorf("connection: malformed NewSeqNo %q: %w", newSeqStr, err)
	}

	gapFill := msg.GetOr(tag.GapFillFlag, "N") == "Y"
	if gapFill && newSeq < e.sess.NextNumIn() {
		// A GapFill never moves next_num_in backwards; a NewSeqNo behind
		// where we already are is a no-op.
		return nil
	}
	e.sess.SetSeqNums(0, newSeq)
	return nil
}

// handleResendRequest replays persisted outbound messages for
// [BeginSeqNo, EndSeqNo] (EndSeqNo=0 meaning through the latest sent),
// consulting Application.ShouldReplay per message and coalescing runs of
// skipped messages into a single SequenceReset-GapFill, per spec §4.5.
func (e *Engine) handleResendRequest(msg *message.Message) error {
	beginStr, err := msg.Get(tag.BeginSeqNo)
	if err != nil {
		return fmt.Errorf("connection: ResendRequest missing BeginSeqNo: %w", err)
	}
	begin, err := strconv.Atoi(beginStr)
	if err != nil {
		return fmt.Errorf("connection: malformed BeginSeqNo %q: %w", beginStr, err)
	}
	end := 0
	if endStr := msg.GetOr(tag.EndSeqNo, "0"); endStr != "0" {
		end, err = strconv.Atoi(endStr)
		if err != nil {
			return fmt.Errorf("connection: malformed EndSeqNo %q: %w", endStr, err)
		}
	}

	raws, err := e.jrnl.RecoverMessages(e.sess, journal.Outbound, begin, end)
	if err != nil {
		return fmt.Errorf("connection: recover messages for resend: %w", err)
	}

	seq := begin
	gapStart := 0

	flushGap := func(through int) error {
		if gapStart == 0 {
			return nil
		}
		fill := message.New(tag.MsgTypeSequenceReset)
		_ = fill.Set(tag.GapFillFlag, "Y")
		_ = fill.Set(tag.NewSeqNo, strconv.Itoa(through))
		fill.SetRawSeqNum(gapStart)
		if err := e.doSend(fill, true); err != nil {
			return err
		}
		gapStart = 0
		return nil
	}

	for _, raw := range raws {
		decoded, _, _, derr := codec.Decode(raw, e.profile, true)
		if derr != nil || decoded == nil {
			if gapStart == 0 {
				gapStart = seq
			}
			seq++
			continue
		}

		if tag.IsAdmin(decoded.MsgType()) || !e.app.ShouldReplay(decoded) {
			if gapStart == 0 {
				gapStart = seq
			}
			seq++
			continue
		}

		if err := flushGap(seq); err != nil {
			return err
		}
		if err := e.replay(decoded, seq); err != nil {
			return err
		}
		seq++
	}

	return flushGap(seq)
}

// replay re-sends an application message exactly as originally numbered,
// with PossDupFlag=Y and OrigSendingTime carried forward, per spec §4.5.
// It bypasses doSend's normal allocate-and-persist path: this sequence
// number was already persisted when the message was first sent, so
// codec.EncodeReplay is used directly under the send lock instead of
// codec.Encode.
func (e *Engine) replay(decoded *message.Message, seq int) error {
	origSendingTime, _ := decoded.Get(tag.SendingTime)

	out := message.New(decoded.MsgType())
	for _, t := range decoded.Order() {
		switch t {
		case tag.MsgType, tag.SenderCompID, tag.TargetCompID, tag.MsgSeqNum, tag.SendingTime,
			tag.PossDupFlag, tag.OrigSendingTime:
			continue
		}
		if entries, err := decoded.GetGroup(t); err == nil {
			_ = out.SetGroup(t, entries)
			continue
		}
		v, err := decoded.Get(t)
		if err != nil {
			continue
		}
		_ = out.Set(t, v)
	}
	_ = out.Set(tag.PossDupFlag, "Y")
	if origSendingTime != "" {
		_ = out.Set(tag.OrigSendingTime, origSendingTime)
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	raw, err := codec.EncodeReplay(out, e.sess, seq)
	if err != nil {
		return fmt.Errorf("connection: encode replay: %w", err)
	}
	if _, err := e.transport.Write(raw); err != nil {
		return fmt.Errorf("connection: transport write: %w", err)
	}

	e.mu.Lock()
	e.lastOutboundAt = time.Now()
	e.mu.Unlock()
	return nil
}
