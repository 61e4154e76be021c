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

// Package connection implements the FIX session-layer state machine of
// spec §4.5: a single-goroutine-per-connection cooperative scheduler
// (spec §5) that owns a Transport, drives Logon/Logout/Heartbeat/
// TestRequest/ResendRequest/SequenceReset handling, serializes outbound
// sends through a logical send lock, and invokes Application callbacks
// inline on its reader task. This generalizes the teacher's FixApp
// callback shape (OnLogon/OnLogout/FromApp/ToAdmin) from a thin
// quickfixgo wrapper into the engine itself.
package connection

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coinbase-samples/fixengine-go/codec"
	"github.com/coinbase-samples/fixengine-go/fixsession"
	"github.com/coinbase-samples/fixengine-go/journal"
	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// reasonableTransmissionFraction is the fraction of the heartbeat interval
// added on top of it as a grace period before a missing inbound message
// triggers a TestRequest, per spec §4.5 "~20%".
const reasonableTransmissionFraction = 0.2

// tickInterval bounds how often the engine's timer fires to evaluate
// heartbeat/test-request deadlines; the deadlines themselves are measured
// against wall-clock timestamps, not tick counts, so a coarser or finer
// tick only affects latency of the check, never correctness.
const tickInterval = 250 * time.Millisecond

type readEvent struct {
	data []byte
	err  error
}

type sendRequest struct {
	msg    *message.Message
	result chan error
}

// Engine is one connection's state machine, transport loop, and send
// path. Each Engine owns exactly one goroutine running Run, per spec §5;
// all Application callbacks fire inline on that goroutine.
type Engine struct {
	cfg       Config
	transport Transport
	sess      *fixsession.Session
	jrnl      journal.Journal
	profile   codec.GroupProfile
	app       Application
	log       zerolog.Logger

	mu                 sync.Mutex
	state              State
	testReqID          string
	lastInboundAt      time.Time
	lastOutboundAt     time.Time
	loggedOn           bool
	logonResponseSent  bool
	resendBeforeActive bool
	pendingGap         []pendingMsg

	sendMu sync.Mutex

	sendCh chan sendRequest
	readCh chan readEvent
	doneCh chan struct{}
	closed bool
}

// pendingMsg is an inbound frame buffered while RESENDREQ_AWAITING,
// re-evaluated once the gap closes, per spec §4.5 "buffer the triggering
// message for later re-evaluation".
type pendingMsg struct {
	seq int
	msg *message.Message
}

// New constructs an Engine bound to transport and sess, ready for Run.
func New(cfg Config, transport Transport, sess *fixsession.Session, jrnl journal.Journal, profile codec.GroupProfile, app Application, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		transport: transport,
		sess:      sess,
		jrnl:      jrnl,
		profile:   profile,
		app:       app,
		log:       log.With().Str("sender", sess.SenderCompID()).Str("target", sess.TargetCompID()).Logger(),
		state:     StateUnknown,
		sendCh:    make(chan sendRequest, 16),
		readCh:    make(chan readEvent, 1),
		doneCh:    make(chan struct{}),
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.app.OnStateChange(s)
}

// Run drives the connection's entire lifecycle: transport open, Logon
// handshake, the cooperative read/heartbeat/send loop, and returns once
// the connection is torn down, per spec §5's "single-threaded
// cooperative" scheduling model. Run is the one and only goroutine that
// touches e.state, e.testReqID, and the session's sequence counters
// outside of the send lock.
func (e *Engine) Run() error {
	e.setState(StateNetworkConnEstablished)
	e.app.OnConnect()

	now := time.Now()
	e.mu.Lock()
	e.lastInboundAt = now
	e.lastOutboundAt = now
	e.mu.Unlock()

	go e.readLoop()

	if e.cfg.Role == RoleInitiator {
		e.setState(StateLogonInitialSent)
		if err := e.sendLogon(); err != nil {
			e.teardown(StateDisconnectedBrokenConn)
			return err
		}
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var readBuf []byte

	for {
		select {
		case ev := <-e.readCh:
			if ev.err != nil {
				e.log.Info().Err(ev.err).Msg("transport closed")
				e.teardown(StateDisconnectedBrokenConn)
				if errors.Is(ev.err, io.EOF) {
					return nil
				}
				return ev.err
			}
			readBuf = append(readBuf, ev.data...)
			var err error
			readBuf, err = e.drainFrames(readBuf)
			if err != nil {
				e.log.Error().Err(err).Msg("fatal decode error")
				e.teardown(StateDisconnectedBrokenConn)
				return err
			}
			if e.State() == StateDisconnectedWConnToday || e.State() == StateDisconnectedBrokenConn {
				return nil
			}

		case <-ticker.C:
			if err := e.checkTimers(); err != nil {
				e.log.Warn().Err(err).Msg("heartbeat timeout")
				e.disconnect(StateDisconnectedBrokenConn, "")
				return err
			}

		case req := <-e.sendCh:
			req.result <- e.doSend(req.msg, false)

		case <-e.doneCh:
			return nil
		}
	}
}

// drainFrames decodes as many complete frames as buf holds, dispatching
// each to handleInbound, and returns the undecoded remainder.
func (e *Engine) drainFrames(buf []byte) ([]byte, error) {
	for {
		msg, consumed, raw, err := codec.Decode(buf, e.profile, true)
		if consumed == 0 {
			return buf, nil
		}
		if msg == nil {
			// Garbage prefix or a malformed/bad-checksum frame was
			// skipped silently; resynchronize and keep scanning.
			buf = buf[consumed:]
			continue
		}
		buf = buf[consumed:]

		e.mu.Lock()
		e.lastInboundAt = time.Now()
		e.mu.Unlock()

		if err := e.jrnl.PersistMsg(raw, e.sess, journal.Inbound); err != nil && !errors.Is(err, journal.ErrDuplicateSeqNo) {
			return buf, fmt.Errorf("connection: persist inbound: %w", err)
		} else if errors.Is(err, journal.ErrDuplicateSeqNo) {
			return buf, err
		}

		if err := e.handleInbound(msg); err != nil {
			return buf, err
		}
	}
}

func (e *Engine) readLoop() {
	rb := make([]byte, 4096)
	for {
		n, err := e.transport.Read(rb)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, rb[:n])
			select {
			case e.readCh <- readEvent{data: chunk}:
			case <-e.doneCh:
				return
			}
		}
		if err != nil {
			select {
			case e.readCh <- readEvent{err: err}:
			case <-e.doneCh:
			}
			return
		}
	}
}

// checkTimers evaluates the heartbeat scheduler, per spec §4.5: send a
// Heartbeat if idle outbound, a TestRequest if idle inbound past
// heartbeat+20%, and fail if a pending TestRequest goes unanswered for
// another full interval.
func (e *Engine) checkTimers() error {
	if e.State() != StateActive {
		return nil
	}

	e.mu.Lock()
	sinceOut := time.Since(e.lastOutboundAt)
	sinceIn := time.Since(e.lastInboundAt)
	testReqID := e.testReqID
	e.mu.Unlock()

	grace := time.Duration(float64(e.cfg.HeartBtInt) * (1 + reasonableTransmissionFraction))

	if testReqID != "" {
		if sinceIn > grace+e.cfg.HeartBtInt {
			return ErrMissingTestRequestResponse
		}
		return nil
	}

	if sinceOut >= e.cfg.HeartBtInt {
		if err := e.sendHeartbeat(""); err != nil {
			return err
		}
	}

	if sinceIn >= grace {
		return e.sendTestRequestLocked()
	}
	return nil
}

// SendTestRequest sends a TestRequest with a fresh TestReqID, rejecting if
// one is already outstanding, per spec §4.5 "send_test_req() rejects if a
// TestRequest is already pending".
func (e *Engine) SendTestRequest() error {
	return e.sendTestRequestLocked()
}

func (e *Engine) sendTestRequestLocked() error {
	e.mu.Lock()
	if e.testReqID != "" {
		e.mu.Unlock()
		return ErrTestRequestPending
	}
	id := uuid.NewString()
	e.testReqID = id
	e.mu.Unlock()

	msg := message.New(tag.MsgTypeTestRequest)
	_ = msg.Set(tag.TestReqID, id)
	return e.doSend(msg, false)
}

func (e *Engine) sendHeartbeat(testReqID string) error {
	msg := message.New(tag.MsgTypeHeartbeat)
	if testReqID != "" {
		_ = msg.Set(tag.TestReqID, testReqID)
	}
	return e.doSend(msg, false)
}

// SendMsg is the public application send path, per spec §4.5 "send_msg":
// requires ACTIVE for application messages (session messages additionally
// permitted during LOGON_*/RESENDREQ_AWAITING), encodes (allocating a
// sequence number), persists outbound, then emits to transport, all under
// the logical send lock so concurrent callers get contiguous sequence
// numbers.
func (e *Engine) SendMsg(msg *message.Message) error {
	req := sendRequest{msg: msg, result: make(chan error, 1)}
	select {
	case e.sendCh <- req:
	case <-e.doneCh:
		return ErrClosed
	}
	return <-req.result
}

func (e *Engine) doSend(msg *message.Message, rawSeqNum bool) error {
	state := e.State()
	if tag.IsAdmin(msg.MsgType()) {
		if !state.isSessionSendable() {
			return fmt.Errorf("%w: cannot send session message %s in state %s", ErrIllegalState, msg.MsgType(), state)
		}
	} else if !state.isAppSendable() {
		return fmt.Errorf("%w: cannot send application message %s in state %s", ErrIllegalState, msg.MsgType(), state)
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	raw, err := codec.Encode(msg, e.sess, rawSeqNum)
	if err != nil {
		return err
	}
	// Raw-numbered frames (gap fills) reuse sequence numbers that were
	// already persisted when first sent.
	if !rawSeqNum {
		if err := e.jrnl.PersistMsg(raw, e.sess, journal.Outbound); err != nil {
			return fmt.Errorf("connection: persist outbound: %w", err)
		}
	}
	if _, err := e.transport.Write(raw); err != nil {
		return fmt.Errorf("connection: transport write: %w", err)
	}

	e.mu.Lock()
	e.lastOutboundAt = time.Now()
	e.mu.Unlock()

	if msg.MsgType() == tag.MsgTypeLogout {
		e.mu.Lock()
		e.state = StateDisconnectedWConnToday
		e.mu.Unlock()
		e.app.OnStateChange(StateDisconnectedWConnToday)
	}
	return nil
}

func (e *Engine) sendLogon() error {
	msg := message.New(tag.MsgTypeLogon)
	_ = msg.Set(tag.EncryptMethod, "0")
	_ = msg.Set(tag.HeartBtInt, fmt.Sprintf("%d", int(e.cfg.HeartBtInt.Seconds())))
	if e.cfg.ResetOnLogon {
		_ = msg.Set(tag.ResetSeqNumFlag, "Y")
		if err := e.jrnl.SetSeqNum(e.sess, 1, 1); err != nil {
			return err
		}
	}
	return e.doSend(msg, false)
}

// Disconnect optionally sends a Logout(58=reason), closes the transport,
// transitions to targetState, and invokes OnDisconnect/OnStateChange, per
// spec §4.5. Pass an empty reason to skip the Logout message (e.g. on an
// already-broken connection).
func (e *Engine) Disconnect(targetState State, reason string) error {
	return e.disconnect(targetState, reason)
}

func (e *Engine) disconnect(targetState State, reason string) error {
	if reason != "" {
		msg := message.New(tag.MsgTypeLogout)
		if reason != "" {
			_ = msg.Set(tag.Text, reason)
		}
		_ = e.doSend(msg, false)
	}
	return e.teardown(targetState)
}

func (e *Engine) teardown(targetState State) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.state = targetState
	e.mu.Unlock()

	close(e.doneCh)
	err := e.transport.Close()
	e.app.OnStateChange(targetState)
	e.app.OnDisconnect()
	return err
}
