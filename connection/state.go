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

// State is a connection-engine state, per spec §4.5.
type State int

const (
	StateUnknown State = iota
	StateDisconnectedNoConnToday
	StateDisconnectedWConnToday
	StateDisconnectedBrokenConn
	StateNetworkConnInitiated
	StateNetworkConnEstablished
	StateLogonInitialSent
	StateLogonInitialRecv
	StateLogonResponse
	StateResendReqAwaiting
	StateActive
	StateAwaitingConnectionRestore
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "UNKNOWN"
	case StateDisconnectedNoConnToday:
		return "DISCONNECTED_NOCONN_TODAY"
	case StateDisconnectedWConnToday:
		return "DISCONNECTED_WCONN_TODAY"
	case StateDisconnectedBrokenConn:
		return "DISCONNECTED_BROKEN_CONN"
	case StateNetworkConnInitiated:
		return "NETWORK_CONN_INITIATED"
	case StateNetworkConnEstablished:
		return "NETWORK_CONN_ESTABLISHED"
	case StateLogonInitialSent:
		return "LOGON_INITIAL_SENT"
	case StateLogonInitialRecv:
		return "LOGON_INITIAL_RECV"
	case StateLogonResponse:
		return "LOGON_RESPONSE"
	case StateResendReqAwaiting:
		return "RESENDREQ_AWAITING"
	case StateActive:
		return "ACTIVE"
	case StateAwaitingConnectionRestore:
		return "AWAITING_CONNECTION_RESTORE"
	default:
		return "UNKNOWN"
	}
}

// isSessionSendable reports whether session (admin) messages may be sent
// in this state, per spec §4.5's send_msg precondition.
func (s State) isSessionSendable() bool {
	switch s {
	case StateActive, StateLogonInitialSent, StateLogonInitialRecv, StateLogonResponse, StateResendReqAwaiting:
		return true
	default:
		return false
	}
}

// isAppSendable reports whether application messages may be sent: only
// once fully ACTIVE, per spec §4.5 (RESENDREQ_AWAITING permits session
// messages only).
func (s State) isAppSendable() bool {
	return s == StateActive
}

// Role distinguishes which side initiates the Logon handshake, per spec
// §4.5.
type Role int

const (
	RoleInitiator Role = iota
	RoleAcceptor
)

func (r Role) String() string {
	if r == RoleAcceptor {
		return "ACCEPTOR"
	}
	return "INITIATOR"
}
