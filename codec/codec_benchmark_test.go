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

package codec

import (
	"testing"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// BenchmarkEncode and BenchmarkDecode exercise the hot path for a typical
// NewOrderSingle, the highest-volume message type on the order-entry side
// of this engine.
func BenchmarkEncode(b *testing.B) {
	sess := &fakeSession{sender: "CLIENT", target: "BROKER"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg := message.New(tag.MsgTypeNewOrderSingle)
		_ = msg.Set(tag.ClOrdID, "C1")
		_ = msg.Set(tag.Symbol, "BTC-USD")
		_ = msg.Set(tag.Side, tag.SideBuy)
		_ = msg.Set(tag.OrderQty, "1.5")
		_ = msg.Set(tag.OrdType, tag.OrdTypeLimit)
		_ = msg.Set(tag.Price, "50000")
		if _, err := Encode(msg, sess, false); err != nil {
			b.Fatalf("encode: %v", err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	sess := &fakeSession{sender: "CLIENT", target: "BROKER"}
	msg := message.New(tag.MsgTypeNewOrderSingle)
	_ = msg.Set(tag.ClOrdID, "C1")
	_ = msg.Set(tag.Symbol, "BTC-USD")
	_ = msg.Set(tag.Side, tag.SideBuy)
	_ = msg.Set(tag.OrderQty, "1.5")
	_ = msg.Set(tag.OrdType, tag.OrdTypeLimit)
	_ = msg.Set(tag.Price, "50000")
	wire, err := Encode(msg, sess, false)
	if err != nil {
		b.Fatalf("encode: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, err := Decode(wire, noGroups{}, false); err != nil {
			b.Fatalf("decode: %v", err)
		}
	}
}
