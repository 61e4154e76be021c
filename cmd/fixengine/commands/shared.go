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
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/coinbase-samples/fixengine-go/codec"
	"github.com/coinbase-samples/fixengine-go/connection"
	"github.com/coinbase-samples/fixengine-go/fix44"
	"github.com/coinbase-samples/fixengine-go/fixclient"
	"github.com/coinbase-samples/fixengine-go/fixsession"
	"github.com/coinbase-samples/fixengine-go/journal"
)

// newLogger builds the console-pretty-printed zerolog.Logger shared by
// both the initiator and acceptor commands.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// newJournal opens a SQLite-backed journal at path, or falls back to an
// in-memory journal when path is empty (e.g. --journal "" for a throwaway
// demo session).
func newJournal(path string) (journal.Journal, error) {
	if path == "" {
		return journal.NewMemoryJournal(), nil
	}
	j, err := journal.NewSQLiteJournal(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

// buildEngine wires Config/Session/Journal/Profile/Application into a
// ready-to-run Engine, assigning the constructed Engine back onto app so
// its request-sending methods (fixclient/requests.go) have somewhere to
// send to. Engine and Application are mutually referential: Engine needs
// app at construction, app needs *Engine set afterward.
func buildEngine(cfg *connection.Config, transport connection.Transport, account string, tradeStoreSize int, journalPath string, log zerolog.Logger) (*connection.Engine, *fixclient.FixApp, error) {
	profile, err := fix44.NewProfile()
	if err != nil {
		return nil, nil, fmt.Errorf("load fix44 profile: %w", err)
	}

	jrnl, err := newJournal(journalPath)
	if err != nil {
		return nil, nil, err
	}

	sess := fixsession.New(cfg.SenderCompID, cfg.TargetCompID)

	app := fixclient.NewFixApp(fixclient.Config{
		Account:        account,
		TradeStoreSize: tradeStoreSize,
	})

	var groupProfile codec.GroupProfile = profile
	engine := connection.New(*cfg, transport, sess, jrnl, groupProfile, app, log)
	app.Engine = engine

	return engine, app, nil
}
