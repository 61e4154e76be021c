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
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coinbase-samples/fixengine-go/fix44"
	"github.com/coinbase-samples/fixengine-go/fixsession"
	"github.com/coinbase-samples/fixengine-go/journal"
	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// BenchmarkHandleInbound_InOrder exercises the hot path of drainFrames'
// per-frame work: sequence bookkeeping plus dispatch to an application
// message handler, with no gap or resend involved.
func BenchmarkHandleInbound_InOrder(b *testing.B) {
	profile, err := fix44.NewProfile()
	if err != nil {
		b.Fatalf("load profile: %v", err)
	}

	sess := fixsession.New("ME", "YOU")
	jrnl := journal.NewMemoryJournal()
	app := &NoopApplication{}
	transport := newFakeTransport()
	cfg := Config{SenderCompID: "ME", TargetCompID: "YOU", HeartBtInt: 30 * time.Second, Role: RoleInitiator}
	e := New(cfg, transport, sess, jrnl, profile, app, zerolog.Nop())
	e.setState(StateActive)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg := message.New(tag.MsgTypeNewOrderSingle)
		msg.SetFramingField(tag.MsgSeqNum, strconv.Itoa(i+1))
		msg.SetFramingField(tag.SenderCompID, "YOU")
		msg.SetFramingField(tag.TargetCompID, "ME")
		_ = msg.Set(tag.ClOrdID, "bench")
		if err := e.handleInbound(msg); err != nil {
			b.Fatalf("handleInbound: %v", err)
		}
	}
}
