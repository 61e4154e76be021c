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

package commands

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coinbase-samples/fixengine-go/connection"
	"github.com/coinbase-samples/fixengine-go/fixclient"
)

var (
	initiatorAddr           string
	initiatorAccount        string
	initiatorJournal        string
	initiatorTradeStoreSize int
	initiatorDialTimeout    time.Duration
)

var initiatorCmd = &cobra.Command{
	Use:   "initiator",
	Short: "Dial out and initiate a FIX session",
	Long: `Dial the counterparty at --addr, send the first Logon, and once the
session reaches the active state, drive an interactive REPL for market
data, order entry, and RFQ quoting.

Examples:
  fixengine initiator --addr fix.example.com:5201 --config initiator.toml
  fixengine initiator --addr 127.0.0.1:5201 --account PRIME-ACCT --journal fix.db`,
	RunE: runInitiator,
}

func init() {
	initiatorCmd.Flags().StringVar(&initiatorAddr, "addr", "127.0.0.1:5201", "host:port of the counterparty to dial")
	initiatorCmd.Flags().StringVar(&initiatorAccount, "account", "", "Account(1) tag attached to order entry requests")
	initiatorCmd.Flags().StringVar(&initiatorJournal, "journal", "fixengine.db", "path to the SQLite message journal (empty for in-memory)")
	initiatorCmd.Flags().IntVar(&initiatorTradeStoreSize, "trade-buffer", 500, "per-symbol trade ring buffer capacity")
	initiatorCmd.Flags().DurationVar(&initiatorDialTimeout, "dial-timeout", 10*time.Second, "TCP dial timeout")
}

func runInitiator(cmd *cobra.Command, args []string) error {
	cfg, err := connection.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	cfg.Role = connection.RoleInitiator

	log := newLogger()

	dialer := net.Dialer{Timeout: initiatorDialTimeout}
	conn, err := dialer.Dial("tcp", initiatorAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", initiatorAddr, err)
	}

	engine, app, err := buildEngine(cfg, conn, initiatorAccount, initiatorTradeStoreSize, initiatorJournal, log)
	if err != nil {
		_ = conn.Close()
		return err
	}

	return runEngineWithRepl(cmd.Context(), engine, app)
}

// runEngineWithRepl runs the Engine's blocking loop and the interactive
// REPL concurrently via an errgroup, shared by the initiator and acceptor
// commands: the REPL's "exit" command stops the engine, and the engine
// exiting (peer disconnect, fatal protocol error) stops the REPL.
func runEngineWithRepl(ctx context.Context, engine *connection.Engine, app *fixclient.FixApp) error {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run()
	})

	g.Go(func() error {
		err := fixclient.Repl(app)
		_ = engine.Disconnect(connection.StateDisconnectedWConnToday, "user requested exit")
		return err
	})

	return g.Wait()
}
