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

package journal

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/coinbase-samples/fixengine-go/fixsession"
)

const (
	createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	sender_comp_id TEXT NOT NULL,
	target_comp_id TEXT NOT NULL,
	next_num_out INTEGER NOT NULL,
	next_num_in INTEGER NOT NULL,
	PRIMARY KEY (sender_comp_id, target_comp_id)
)`
	createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
	sender_comp_id TEXT NOT NULL,
	target_comp_id TEXT NOT NULL,
	direction INTEGER NOT NULL,
	seq_no INTEGER NOT NULL,
	raw_bytes BLOB NOT NULL,
	PRIMARY KEY (sender_comp_id, target_comp_id, direction, seq_no)
)`

	selectSessionsQuery   = `SELECT sender_comp_id, target_comp_id, next_num_out, next_num_in FROM sessions`
	selectSessionQuery    = `SELECT next_num_out, next_num_in FROM sessions WHERE sender_comp_id = ? AND target_comp_id = ?`
	insertSessionQuery    = `INSERT INTO sessions (sender_comp_id, target_comp_id, next_num_out, next_num_in) VALUES (?, ?, ?, ?)`
	updateSessionQuery    = `UPDATE sessions SET next_num_out = ?, next_num_in = ? WHERE sender_comp_id = ? AND target_comp_id = ?`
	deleteMessagesQuery   = `DELETE FROM messages WHERE sender_comp_id = ? AND target_comp_id = ?`
	insertMessageQuery    = `INSERT INTO messages (sender_comp_id, target_comp_id, direction, seq_no, raw_bytes) VALUES (?, ?, ?, ?, ?)`
	selectMessageQuery    = `SELECT raw_bytes FROM messages WHERE sender_comp_id = ? AND target_comp_id = ? AND direction = ? AND seq_no = ?`
	selectMessageMaxQuery = `SELECT COALESCE(MAX(seq_no), 0) FROM messages WHERE sender_comp_id = ? AND target_comp_id = ? AND direction = ?`
	selectMessageRangeQuery = `
SELECT raw_bytes FROM messages
WHERE sender_comp_id = ? AND target_comp_id = ? AND direction = ? AND seq_no BETWEEN ? AND ?
ORDER BY seq_no ASC`
)

// SQLiteJournal is the default persistent Journal implementation, grounded
// on the same database/sql + mattn/go-sqlite3 prepared-statement pattern
// as the teacher's market-data store: statements are prepared once at
// construction and reused for every call.
type SQLiteJournal struct {
	db *sql.DB

	stmtInsertMessage *sql.Stmt
	stmtSelectMessage *sql.Stmt
	stmtSelectRange   *sql.Stmt
	stmtSelectMax     *sql.Stmt
}

// NewSQLiteJournal opens (creating if absent) a WAL-mode SQLite journal at
// dbPath.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: initialize schema: %w", err)
	}

	if j.stmtInsertMessage, err = db.Prepare(insertMessageQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: prepare insert statement: %w", err)
	}
	if j.stmtSelectMessage, err = db.Prepare(selectMessageQuery); err != nil {
		_ = j.stmtInsertMessage.Close()
		_ = db.Close()
		return nil, fmt.Errorf("journal: prepare select statement: %w", err)
	}
	if j.stmtSelectRange, err = db.Prepare(selectMessageRangeQuery); err != nil {
		_ = j.stmtInsertMessage.Close()
		_ = j.stmtSelectMessage.Close()
		_ = db.Close()
		return nil, fmt.Errorf("journal: prepare range statement: %w", err)
	}
	if j.stmtSelectMax, err = db.Prepare(selectMessageMaxQuery); err != nil {
		_ = j.stmtInsertMessage.Close()
		_ = j.stmtSelectMessage.Close()
		_ = j.stmtSelectRange.Close()
		_ = db.Close()
		return nil, fmt.Errorf("journal: prepare max-seq statement: %w", err)
	}

	log.Printf("journal: sqlite journal opened at %s", dbPath)
	return j, nil
}

func (j *SQLiteJournal) initSchema() error {
	if _, err := j.db.Exec(createSessionsTable); err != nil {
		return err
	}
	_, err := j.db.Exec(createMessagesTable)
	return err
}

func (j *SQLiteJournal) Close() error {
	if j.stmtInsertMessage != nil {
		_ = j.stmtInsertMessage.Close()
	}
	if j.stmtSelectMessage != nil {
		_ = j.stmtSelectMessage.Close()
	}
	if j.stmtSelectRange != nil {
		_ = j.stmtSelectRange.Close()
	}
	if j.stmtSelectMax != nil {
		_ = j.stmtSelectMax.Close()
	}
	return j.db.Close()
}

func (j *SQLiteJournal) Sessions() (map[fixsession.Key]*fixsession.Session, error) {
	rows, err := j.db.Query(selectSessionsQuery)
	if err != nil {
		return nil, fmt.Errorf("journal: query sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[fixsession.Key]*fixsession.Session)
	for rows.Next() {
		var sender, target string
		var nextOut, nextIn int
		if err := rows.Scan(&sender, &target, &nextOut, &nextIn); err != nil {
			return nil, fmt.Errorf("journal: scan session row: %w", err)
		}
		key := fixsession.Key{SenderCompID: sender, TargetCompID: target}
		out[key] = fixsession.Restore(sender, target, nextOut, nextIn)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) CreateOrLoad(senderCompID, targetCompID string) (*fixsession.Session, error) {
	var out, in int
	err := j.db.QueryRow(selectSessionQuery, senderCompID, targetCompID).Scan(&out, &in)
	if err == nil {
		return fixsession.Restore(senderCompID, targetCompID, out, in), nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("journal: load session: %w", err)
	}

	if _, err := j.db.Exec(insertSessionQuery, senderCompID, targetCompID, 1, 1); err != nil {
		return nil, fmt.Errorf("journal: create session: %w", err)
	}
	return fixsession.New(senderCompID, targetCompID), nil
}

func (j *SQLiteJournal) SetSeqNum(sess *fixsession.Session, out, in int) error {
	sess.SetSeqNums(out, in)
	key := sess.Key()

	if _, err := j.db.Exec(updateSessionQuery, sess.NextNumOut(), sess.NextNumIn(), key.SenderCompID, key.TargetCompID); err != nil {
		return fmt.Errorf("journal: persist seq nums: %w", err)
	}

	if out == 1 || in == 1 {
		if _, err := j.db.Exec(deleteMessagesQuery, key.SenderCompID, key.TargetCompID); err != nil {
			return fmt.Errorf("journal: wipe log on seq reset: %w", err)
		}
	}
	return nil
}

func (j *SQLiteJournal) PersistMsg(raw []byte, sess *fixsession.Session, dir Direction) error {
	seq, err := FindSeqNo(raw)
	if err != nil {
		return err
	}
	key := sess.Key()

	_, err = j.stmtInsertMessage.Exec(key.SenderCompID, key.TargetCompID, int(dir), seq, raw)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("%w: session %s dir %s seq %d", ErrDuplicateSeqNo, key, dir, seq)
		}
		return fmt.Errorf("journal: persist message: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) RecoverMsg(sess *fixsession.Session, dir Direction, seq int) ([]byte, error) {
	key := sess.Key()
	var raw []byte
	err := j.stmtSelectMessage.QueryRow(key.SenderCompID, key.TargetCompID, int(dir), seq).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("journal: recover message: %w", err)
	}
	return raw, nil
}

func (j *SQLiteJournal) RecoverMessages(sess *fixsession.Session, dir Direction, start, end int) ([][]byte, error) {
	key := sess.Key()

	if end == 0 {
		if err := j.stmtSelectMax.QueryRow(key.SenderCompID, key.TargetCompID, int(dir)).Scan(&end); err != nil {
			return nil, fmt.Errorf("journal: resolve highest seq: %w", err)
		}
	}

	rows, err := j.stmtSelectRange.Query(key.SenderCompID, key.TargetCompID, int(dir), start, end)
	if err != nil {
		return nil, fmt.Errorf("journal: recover messages: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("journal: scan message row: %w", err)
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

func isUniqueConstraintErr(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
