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

// Run with: go test -bench=. -benchmem ./fixclient/
package fixclient

import (
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"
)

func tradesFor(symbol string, count, startSeq int) []Trade {
	trades := make([]Trade, count)
	now := time.Now()
	for i := 0; i < count; i++ {
		trades[i] = Trade{
			Timestamp: now,
			Symbol:    symbol,
			Price:     fmt.Sprintf("%.2f", 50000.00+float64(i)*0.01),
			Size:      fmt.Sprintf("%.4f", 1.5+float64(i)*0.001),
			Time:      now.Format(time.RFC3339),
			MdReqId:   "req-123",
			IsUpdate:  true,
			EntryType: "2",
			SeqNum:    strconv.Itoa(startSeq + i),
		}
	}
	return trades
}

func BenchmarkAddTrades(b *testing.B) {
	cases := []struct {
		name       string
		batch      int
		cap        int
		prefillPct float64
	}{
		{"1Trade_Empty", 1, 10000, 0},
		{"10Trades_Empty", 10, 10000, 0},
		{"1Trade_AtCapacity", 1, 10000, 1.0},
		{"10Trades_AtCapacity", 10, 10000, 1.0},
	}

	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			store := NewTradeStore(c.cap, "")
			store.AddSubscription("BTC-USD", "1", "req-123")

			prefillCount := int(float64(c.cap) * c.prefillPct)
			if prefillCount > 0 {
				store.AddTrades("BTC-USD", tradesFor("BTC-USD", prefillCount, 1), false, "req-123")
			}
			trades := tradesFor("BTC-USD", c.batch, prefillCount+1)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				store.AddTrades("BTC-USD", trades, false, "req-123")
			}
		})
	}
}

// BenchmarkAddTradesAllDuplicates measures the dedup fast path: every
// incoming row's SeqNum is already at or below the watermark.
func BenchmarkAddTradesAllDuplicates(b *testing.B) {
	store := NewTradeStore(10000, "")
	trades := tradesFor("BTC-USD", 50, 1)
	store.AddTrades("BTC-USD", trades, false, "req-123")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.AddTrades("BTC-USD", trades, false, "req-123")
	}
}

func BenchmarkGetRecentTrades(b *testing.B) {
	cases := []struct {
		name  string
		fill  int
		limit int
	}{
		{"Limit10_From100", 100, 10},
		{"Limit50_From1000", 1000, 50},
		{"Limit100_From5000", 5000, 100},
	}

	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			store := NewTradeStore(10000, "")
			store.AddTrades("BTC-USD", tradesFor("BTC-USD", c.fill, 1), false, "req-123")

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = store.GetRecentTrades("BTC-USD", c.limit)
			}
		})
	}
}

// BenchmarkGetRecentTradesManySymbols measures lookup cost once history is
// spread across several independently-capped symbols.
func BenchmarkGetRecentTradesManySymbols(b *testing.B) {
	symbols := []string{"BTC-USD", "ETH-USD", "SOL-USD", "AVAX-USD", "DOGE-USD"}
	store := NewTradeStore(10000, "")
	for i, symbol := range symbols {
		store.AddSubscription(symbol, "1", fmt.Sprintf("req-%d", i))
		store.AddTrades(symbol, tradesFor(symbol, 2000, 1), false, fmt.Sprintf("req-%d", i))
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.GetRecentTrades("DOGE-USD", 50)
	}
}

func BenchmarkGetAllTrades(b *testing.B) {
	cases := []int{100, 1000, 5000, 10000}
	for _, fill := range cases {
		b.Run(fmt.Sprintf("%dTrades", fill), func(b *testing.B) {
			store := NewTradeStore(fill, "")
			store.AddTrades("BTC-USD", tradesFor("BTC-USD", fill, 1), false, "req-123")

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = store.GetAllTrades()
			}
		})
	}
}

func BenchmarkGetSubscriptionStatus(b *testing.B) {
	cases := []int{1, 10, 50, 100}
	for _, n := range cases {
		b.Run(fmt.Sprintf("%dSubscriptions", n), func(b *testing.B) {
			store := NewTradeStore(10000, "")
			for i := 0; i < n; i++ {
				store.AddSubscription(fmt.Sprintf("SYMBOL%d-USD", i), "1", fmt.Sprintf("req-%d", i))
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = store.GetSubscriptionStatus()
			}
		})
	}
}

func BenchmarkConcurrentReadWrite(b *testing.B) {
	cases := []struct {
		name    string
		writers int
		readers int
	}{
		{"1Writer_1Reader", 1, 1},
		{"1Writer_4Readers", 1, 4},
		{"4Writers_4Readers", 4, 4},
	}

	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			store := NewTradeStore(10000, "")
			store.AddTrades("BTC-USD", tradesFor("BTC-USD", 1000, 1), false, "req-123")
			trades := tradesFor("BTC-USD", 10, 1001)

			b.ReportAllocs()
			b.ResetTimer()

			var wg sync.WaitGroup
			iterations := b.N / (c.writers + c.readers)
			if iterations < 1 {
				iterations = 1
			}

			for w := 0; w < c.writers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < iterations; i++ {
						store.AddTrades("BTC-USD", trades, false, "req-123")
					}
				}()
			}
			for r := 0; r < c.readers; r++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < iterations; i++ {
						_ = store.GetRecentTrades("BTC-USD", 50)
					}
				}()
			}
			wg.Wait()
		})
	}
}
