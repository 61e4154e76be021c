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

// Package commands implements the fixengine CLI's cobra command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	logLevel string
)

// rootCmd is the base command when fixengine is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "fixengine",
	Short: "fixengine-go - a FIX 4.4 protocol engine demo client",
	Long: `fixengine is a demo counterparty for the fixengine-go session engine.

It runs either an initiator (dials out, sends the first Logon) or an
acceptor (listens, waits for an inbound Logon), then drives an
interactive REPL for market data subscriptions, order entry, and RFQ
quoting once the session reaches the active state.

Use "fixengine [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to rootCmd and runs it. Called once by
// main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "fixengine.toml", "path to the session config file (TOML or YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zerolog level: debug, info, warn, error")

	rootCmd.AddCommand(initiatorCmd)
	rootCmd.AddCommand(acceptorCmd)
}
