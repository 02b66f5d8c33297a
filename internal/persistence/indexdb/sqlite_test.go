package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/game"
	"geocoin.ai/internal/sim/tuning"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqEvent, event: game.EventLogEntry{Seq: 1}}

	_ = s.WriteEvent(game.EventLogEntry{Seq: 2})
	_ = s.WriteAudit(game.AuditEntry{Seq: 2})

	st := s.Stats()
	if st.DropEventTotal != 1 {
		t.Fatalf("DropEventTotal=%d want=1", st.DropEventTotal)
	}
	if st.DropAuditTotal != 1 {
		t.Fatalf("DropAuditTotal=%d want=1", st.DropAuditTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_RecordsGameStreams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tune := tuning.Defaults()
	tune.NeighborhoodRadius = 1
	tune.SpawnProbability = 1.0
	if err := idx.UpsertTuning("S1", tune); err != nil {
		t.Fatalf("upsert tuning: %v", err)
	}

	g, err := game.New(game.ConfigFromTuning("S1", tune), game.WithEventLogger(idx), game.WithAuditLogger(idx))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	origin := g.Origin()
	g.Apply(game.Command{Kind: protocol.ActCollect, Cell: &origin})
	g.Apply(game.Command{Kind: protocol.ActMove, Direction: "north"})
	g.Apply(game.Command{Kind: protocol.ActDepositLast, Cell: &origin})

	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if st := idx.Stats(); st.DropEventTotal != 0 || st.DropAuditTotal != 0 || st.FailedTotal != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	count := func(q string, args ...any) int {
		t.Helper()
		var n int
		if err := db.QueryRow(q, args...).Scan(&n); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
		return n
	}
	if n := count(`SELECT COUNT(*) FROM events WHERE session_id='S1'`); n != 3 {
		t.Fatalf("events=%d want 3", n)
	}
	// 9 caches around the origin, then 3 more after stepping north.
	if n := count(`SELECT COUNT(*) FROM caches WHERE session_id='S1'`); n != 12 {
		t.Fatalf("caches=%d want 12", n)
	}
	if n := count(`SELECT COUNT(*) FROM audit WHERE action='COLLECT'`); n != 1 {
		t.Fatalf("collect audit=%d want 1", n)
	}
	if n := count(`SELECT COUNT(*) FROM audit WHERE action='DEPOSIT' AND seq=3`); n != 1 {
		t.Fatalf("deposit audit=%d want 1", n)
	}
	var minted int
	if err := db.QueryRow(`SELECT SUM(minted) FROM caches`).Scan(&minted); err != nil {
		t.Fatalf("sum minted: %v", err)
	}
	if minted != g.Minted() {
		t.Fatalf("indexed minted=%d game minted=%d", minted, g.Minted())
	}
	var digest string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key='session:S1:tuning_digest'`).Scan(&digest); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if digest != tune.Digest() {
		t.Fatalf("tuning digest=%s", digest)
	}
}
