package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"geocoin.ai/internal/sim/game"
	"geocoin.ai/internal/sim/tuning"
)

// SQLiteIndex is a write-only read model of a session's event and audit
// streams. The game never reads it back.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropEvent atomic.Uint64
	dropAudit atomic.Uint64
	written   atomic.Uint64
	failed    atomic.Uint64
}

type reqKind int

const (
	reqEvent reqKind = iota + 1
	reqAudit
)

type req struct {
	kind reqKind

	event game.EventLogEntry
	audit game.AuditEntry
}

type Stats struct {
	DropEventTotal uint64 `json:"drop_event_total"`
	DropAuditTotal uint64 `json:"drop_audit_total"`
	WrittenTotal   uint64 `json:"written_total"`
	FailedTotal    uint64 `json:"failed_total"`
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			code TEXT,
			digest TEXT NOT NULL,
			command_json TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS audit (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			action TEXT NOT NULL,
			i INTEGER NOT NULL,
			j INTEGER NOT NULL,
			coin TEXT,
			count INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_cell ON audit(i, j, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_coin ON audit(coin);`,
		`CREATE TABLE IF NOT EXISTS caches (
			session_id TEXT NOT NULL,
			i INTEGER NOT NULL,
			j INTEGER NOT NULL,
			minted INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			PRIMARY KEY (session_id, i, j)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteEvent(entry game.EventLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, event: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropEvent.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry game.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		DropEventTotal: s.dropEvent.Load(),
		DropAuditTotal: s.dropAudit.Load(),
		WrittenTotal:   s.written.Load(),
		FailedTotal:    s.failed.Load(),
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
	}
}

// UpsertTuning records the tuning a session was started with.
func (s *SQLiteIndex) UpsertTuning(sessionID string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows := [][2]string{
		{"schema_version", "1"},
		{"session:" + sessionID + ":tuning", string(b)},
		{"session:" + sessionID + ":tuning_digest", tune.Digest()},
		{"session:" + sessionID + ":started_at", time.Now().UTC().Format(time.RFC3339Nano)},
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(session_id,seq,kind,code,digest,command_json) VALUES(?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audit(session_id,seq,idx,action,i,j,coin,count) VALUES(?,?,?,?,?,?,?,?)`)
	insertCache, _ := s.db.Prepare(`INSERT OR IGNORE INTO caches(session_id,i,j,minted,seq) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertEvent, insertAudit, insertCache} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second

		lastAuditSeq uint64
		auditIdx     int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err == nil {
			s.written.Add(uint64(opCount))
		} else {
			s.failed.Add(uint64(opCount))
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		s.failed.Add(uint64(opCount) + 1)
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			s.failed.Add(1)
			continue
		}
		switch r.kind {
		case reqEvent:
			e := r.event
			cmdJSON, _ := json.Marshal(e.Command)
			if insertEvent == nil {
				continue
			}
			if _, err := tx.Stmt(insertEvent).Exec(e.SessionID, int64(e.Seq), e.Command.Kind, e.Code, e.Digest, string(cmdJSON)); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqAudit:
			a := r.audit
			if a.Seq != lastAuditSeq {
				lastAuditSeq = a.Seq
				auditIdx = 0
			}
			idx := auditIdx
			auditIdx++
			if insertAudit == nil {
				continue
			}
			if _, err := tx.Stmt(insertAudit).Exec(a.SessionID, int64(a.Seq), idx, a.Action, a.Cell[0], a.Cell[1], a.Coin, a.Count); err != nil {
				rollback()
				continue
			}
			opCount++
			if a.Action == "MINT" && insertCache != nil {
				if _, err := tx.Stmt(insertCache).Exec(a.SessionID, a.Cell[0], a.Cell[1], a.Count, int64(a.Seq)); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
