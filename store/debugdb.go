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

// Package store provides an optional SQLite sink for postmortem
// inspection of an assembly run: the final words of every segment and
// the named/anonymous tag tables from a linked asm.Parser. It is never
// touched by the engine itself — wiring it in is entirely the CLI's
// choice, behind -debug-db.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/uarc/asm"
)

// DebugDB provides SQLite storage for assembly run snapshots with
// prepared statements. Prepared statements are initialized once and
// reused for every recorded run, avoiding SQL parsing overhead on each
// insert.
type DebugDB struct {
	db *sql.DB

	stmtSegmentWord *sql.Stmt
	stmtTag         *sql.Stmt
}

// NewDebugDB opens (or creates) a SQLite file at dbPath and prepares the
// statements RecordRun needs.
func NewDebugDB(dbPath string) (*DebugDB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("failed to open debug database: %v", err)
	}

	ddb := &DebugDB{db: db}
	if err := ddb.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize debug schema: %v", err)
	}

	if ddb.stmtSegmentWord, err = db.Prepare(insertSegmentWordQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare segment word statement: %v", err)
	}
	if ddb.stmtTag, err = db.Prepare(insertTagQuery); err != nil {
		_ = ddb.stmtSegmentWord.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare tag statement: %v", err)
	}

	log.Printf("debug database initialized at %s", dbPath)
	return ddb, nil
}

func (ddb *DebugDB) Close() error {
	if ddb.stmtSegmentWord != nil {
		_ = ddb.stmtSegmentWord.Close()
	}
	if ddb.stmtTag != nil {
		_ = ddb.stmtTag.Close()
	}
	return ddb.db.Close()
}

const (
	createSegmentWordTable = `
CREATE TABLE IF NOT EXISTS segment_snapshot (
	run_id TEXT NOT NULL,
	segment INTEGER NOT NULL,
	word_index INTEGER NOT NULL,
	value INTEGER NOT NULL
)`
	createTagTable = `
CREATE TABLE IF NOT EXISTS tag_snapshot (
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	positions TEXT NOT NULL
)`

	insertSegmentWordQuery = `INSERT INTO segment_snapshot (run_id, segment, word_index, value) VALUES (?, ?, ?, ?)`
	insertTagQuery         = `INSERT INTO tag_snapshot (run_id, name, kind, positions) VALUES (?, ?, ?, ?)`
)

func (ddb *DebugDB) initSchema() error {
	if _, err := ddb.db.Exec(createSegmentWordTable); err != nil {
		return err
	}
	if _, err := ddb.db.Exec(createTagTable); err != nil {
		return err
	}
	return nil
}

// RecordRun persists the post-link state of p under runID in a single
// transaction: every segment's words, then the position vector of every
// named tag, every "+" tag and every "-" tag. Mirrors the teacher's StoreTradeBatch/StoreOrderBookBatch
// pattern of binding a prepared statement to a transaction via tx.Stmt
// and executing it once per row.
func (ddb *DebugDB) RecordRun(runID string, p *asm.Parser) error {
	tx, err := ddb.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin debug transaction: %v", err)
	}

	if err := ddb.recordSegments(tx, runID, p); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := ddb.recordTags(tx, runID, p); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (ddb *DebugDB) recordSegments(tx *sql.Tx, runID string, p *asm.Parser) error {
	stmt := tx.Stmt(ddb.stmtSegmentWord)
	for seg := 0; seg < p.SegmentCount(); seg++ {
		for word := 0; word < p.SegmentLen(seg); word++ {
			if _, err := stmt.Exec(runID, seg, word, int64(p.SegmentWord(seg, word))); err != nil {
				return fmt.Errorf("failed to record segment %d word %d: %v", seg, word, err)
			}
		}
	}
	return nil
}

func (ddb *DebugDB) recordTags(tx *sql.Tx, runID string, p *asm.Parser) error {
	stmt := tx.Stmt(ddb.stmtTag)
	for _, name := range p.TagNames() {
		positions, _ := p.Tag(name)
		if err := execTagRow(stmt, runID, name, "named", positions); err != nil {
			return err
		}
	}
	for _, t := range p.PlusTags() {
		if err := execTagRow(stmt, runID, strings.Repeat("+", t.RunLength), "plus", t.Positions); err != nil {
			return err
		}
	}
	for _, t := range p.MinusTags() {
		if err := execTagRow(stmt, runID, strings.Repeat("-", t.RunLength), "minus", t.Positions); err != nil {
			return err
		}
	}
	return nil
}

func execTagRow(stmt *sql.Stmt, runID, name, kind string, positions []int) error {
	encoded, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("failed to encode positions for tag %q: %v", name, err)
	}
	if _, err := stmt.Exec(runID, name, kind, string(encoded)); err != nil {
		return fmt.Errorf("failed to record tag %q: %v", name, err)
	}
	return nil
}
