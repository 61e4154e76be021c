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
	"sync"

	"github.com/coinbase-samples/fixengine-go/message"
	"github.com/coinbase-samples/fixengine-go/tag"
)

// Manager is a thread-safe keyed store of orders, keyed by ClOrdID root,
// generalized from the teacher's OrderStore: the application layer creates
// an Order, keeps it here for the life of the connection, and removes it
// when done. Orders do not self-destruct on terminal status (spec §3).
type Manager struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{orders: make(map[string]*Order)}
}

// Add registers o under its ClOrdID root.
func (m *Manager) Add(clOrdIDRoot string, o *Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[clOrdIDRoot] = o
}

// Get returns the order registered under root, or nil if none.
func (m *Manager) Get(clOrdIDRoot string) *Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[clOrdIDRoot]
}

// GetByClOrdID finds the order whose current wire ClOrdID (root--counter)
// matches clOrdID, as needed to route an inbound execution report or
// cancel reject back to its order.
func (m *Manager) GetByClOrdID(clOrdID string) *Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.ClOrdID() == clOrdID {
			return o
		}
	}
	return nil
}

// Remove deletes the order registered under root. Orders do not
// self-destruct on terminal status; this is an explicit application
// action (spec §3 "destroyed by the application").
func (m *Manager) Remove(clOrdIDRoot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, clOrdIDRoot)
}

// All returns every tracked order.
func (m *Manager) All() []*Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out
}

// Open returns every tracked order for which IsOpen() is true, matching
// the teacher's GetOpenOrders.
func (m *Manager) Open() []*Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Order, 0)
	for _, o := range m.orders {
		if o.IsOpen() {
			out = append(out, o)
		}
	}
	return out
}

// Dispatch routes an inbound application message (ExecutionReport or
// OrderCancelReject) to the order whose current ClOrdID matches, per spec
// §4.6. It returns 1/0/-1 per Order.ProcessExecutionReport /
// ProcessCancelReject; 0 with a nil error if no tracked order matches.
func (m *Manager) Dispatch(msg *message.Message) (int, error) {
	clOrdID, err := msg.Get(tag.ClOrdID)
	if err != nil {
		return -1, err
	}

	o := m.GetByClOrdID(clOrdID)
	if o == nil {
		return 0, nil
	}

	switch msg.MsgType() {
	case tag.MsgTypeExecutionReport:
		return o.ProcessExecutionReport(msg)
	case tag.MsgTypeOrderCancelReject:
		return o.ProcessCancelReject(msg)
	default:
		return 0, nil
	}
}
