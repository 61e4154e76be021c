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

import "errors"

// ErrIllegalState is returned by SendMsg when the engine's current state
// does not permit sending, per spec §4.5 "send_msg requires state ∈
// {ACTIVE, LOGON_*, RESENDREQ_AWAITING for session messages only}".
var ErrIllegalState = errors.New("connection: illegal state for requested operation")

// ErrCompIDMismatch is a session-level error per spec §7: an inbound
// message's SenderCompID/TargetCompID did not match our configured
// identity. Triggers disconnect.
var ErrCompIDMismatch = errors.New("connection: comp-id mismatch")

// ErrTestRequestPending is returned by SendTestRequest per spec §4.5
// "send_test_req() rejects if a TestRequest is already pending".
var ErrTestRequestPending = errors.New("connection: test request already pending")

// ErrMissingTestRequestResponse is a session-level error: the peer failed
// to answer an outstanding TestRequest within the allotted heartbeat
// period, per spec §7 "missing TestRequest response (triggers disconnect)".
var ErrMissingTestRequestResponse = errors.New("connection: peer did not respond to test request in time")

// ErrClosed is returned by operations attempted after the engine has shut
// down.
var ErrClosed = errors.New("connection: engine is closed")
