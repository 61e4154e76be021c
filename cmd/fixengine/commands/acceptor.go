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
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/coinbase-samples/fixengine-go/connection"
)

var (
	acceptorListen         string
	acceptorAccount        string
	acceptorJournal        string
	acceptorTradeStoreSize int
)

var acceptorCmd = &cobra.Command{
	Use:   "acceptor",
	Short: "Listen for and accept a FIX session",
	Long: `Listen on --listen, accept a single inbound TCP connection, wait for
the counterparty's Logon, and once the session reaches the active state,
drive an interactive REPL for market data, order entry, and RFQ quoting.

Examples:
  fixengine acceptor --listen :5201 --config acceptor.toml
  fixengine acceptor --listen 0.0.0.0:5201 --account PRIME-ACCT`,
	RunE: runAcceptor,
}

func init() {
	acceptorCmd.Flags().StringVar(&acceptorListen, "listen", ":5201", "address to listen on")
	acceptorCmd.Flags().StringVar(&acceptorAccount, "account", "", "Account(1) tag attached to order entry requests")
	acceptorCmd.Flags().StringVar(&acceptorJournal, "journal", "fixengine.db", "path to the SQLite message journal (empty for in-memory)")
	acceptorCmd.Flags().IntVar(&acceptorTradeStoreSize, "trade-buffer", 500, "per-symbol trade ring buffer capacity")
}

func runAcceptor(cmd *cobra.Command, args []string) error {
	cfg, err := connection.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	cfg.Role = connection.RoleAcceptor

	log := newLogger()

	ln, err := net.Listen("tcp", acceptorListen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", acceptorListen, err)
	}
	defer ln.Close()

	log.Info().Str("addr", acceptorListen).Msg("waiting for inbound connection")

	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("accept: %w", err)
	}

	engine, app, err := buildEngine(cfg, conn, acceptorAccount, acceptorTradeStoreSize, acceptorJournal, log)
	if err != nil {
		_ = conn.Close()
		return err
	}

	return runEngineWithRepl(cmd.Context(), engine, app)
}
