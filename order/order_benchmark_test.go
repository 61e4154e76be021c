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

package order

import (
	"testing"

	"github.com/coinbase-samples/fixengine-go/tag"
)

// BenchmarkProcessExecutionReport exercises the full order lifecycle's
// hottest path: an exec report landing on a live order.
func BenchmarkProcessExecutionReport(b *testing.B) {
	o := newTestOrder()
	o.NewReq()
	o.ProcessExecutionReport(execReport("root1--1", tag.ExecTypeNew, "EX1", "1.5", "0", ""))

	msg := execReport("root1--1", tag.ExecTypePartialFill, "EX1", "1.0", "0.5", "50000")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := o.ProcessExecutionReport(msg); err != nil {
			b.Fatalf("process: %v", err)
		}
	}
}
