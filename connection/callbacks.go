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

import "github.com/coinbase-samples/fixengine-go/message"

// Application is the set of callbacks a connection invokes inline on its
// reader task, per spec §5 and §6. All of them run on the single
// goroutine owned by the Engine; an implementation must not block for
// long or it stalls heartbeats and inbound processing for that
// connection.
type Application interface {
	// OnConnect fires once the transport is open, before Logon.
	OnConnect()

	// OnDisconnect fires after the transport is closed, however that
	// came about (clean Logout, broken connection, or local Disconnect).
	OnDisconnect()

	// OnLogon fires once the handshake completes and the engine reaches
	// ACTIVE. isHealthy is true only if no resend was triggered getting
	// there, per spec §4.5 "healthy = state became ACTIVE without
	// triggering resend".
	OnLogon(isHealthy bool)

	// OnLogout fires on receipt of a Logout message, before the engine
	// tears down the transport.
	OnLogout(msg *message.Message)

	// OnMessage fires for every inbound application-level message, after
	// sequence-number bookkeeping has been applied.
	OnMessage(msg *message.Message)

	// OnStateChange fires whenever the engine's State transitions.
	OnStateChange(state State)

	// ShouldReplay is consulted during resend-request handling, per spec
	// §4.5: if true, the original message is re-sent with PossDupFlag;
	// if false, it is coalesced into a SequenceReset-GapFill instead.
	ShouldReplay(msg *message.Message) bool
}

// NoopApplication is a default Application that does nothing, useful as
// an embeddable base for callers that only care about a subset of the
// callbacks.
type NoopApplication struct{}

func (NoopApplication) OnConnect()                    {}
func (NoopApplication) OnDisconnect()                 {}
func (NoopApplication) OnLogon(isHealthy bool)         {}
func (NoopApplication) OnLogout(msg *message.Message)  {}
func (NoopApplication) OnMessage(msg *message.Message) {}
func (NoopApplication) OnStateChange(state State)      {}
func (NoopApplication) ShouldReplay(msg *message.Message) bool {
	return true
}
