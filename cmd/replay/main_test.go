package main

import (
	"path/filepath"
	"testing"

	persistlog "geocoin.ai/internal/persistence/log"
	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/game"
)

func recordSession(t *testing.T, dir string) (game.Config, string) {
	t.Helper()
	cfg := game.Config{
		ID:                 "S1",
		OriginLat:          36.98949379578401,
		OriginLng:          -122.06277128548504,
		NeighborhoodRadius: 2,
		SpawnProbability:   0.5,
	}
	events := persistlog.NewEventLogger(dir)
	g, err := game.New(cfg, game.WithEventLogger(events))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	for _, d := range []string{"north", "east", "east", "south", "west"} {
		g.Apply(game.Command{Kind: protocol.ActMove, Direction: d})
		for _, id := range g.CacheIDs() {
			id := id
			g.Apply(game.Command{Kind: protocol.ActCollect, Cell: &id})
		}
		cell := g.PlayerCell().ID
		g.Apply(game.Command{Kind: protocol.ActDepositLast, Cell: &cell})
	}
	if err := events.Close(); err != nil {
		t.Fatalf("close events: %v", err)
	}
	return cfg, g.StateDigest()
}

func TestReplay_VerifiesRecordedDigests(t *testing.T) {
	dir := t.TempDir()
	cfg, want := recordSession(t, dir)

	files, err := persistlog.ListFiles(filepath.Join(dir, "events"), "events")
	if err != nil || len(files) == 0 {
		t.Fatalf("list files: %v (n=%d)", err, len(files))
	}

	g, err := game.New(cfg)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	checked, err := replay(g, files, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked == 0 || checked != g.Seq() {
		t.Fatalf("checked=%d seq=%d", checked, g.Seq())
	}
	if got := g.StateDigest(); got != want {
		t.Fatalf("final digest=%s want=%s", got, want)
	}
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestReplay_StopsAtSeq(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := recordSession(t, dir)
	files, _ := persistlog.ListFiles(filepath.Join(dir, "events"), "events")

	g, _ := game.New(cfg)
	checked, err := replay(g, files, 3)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 3 || g.Seq() != 3 {
		t.Fatalf("checked=%d seq=%d want 3", checked, g.Seq())
	}
}

func TestReplay_DetectsDivergentTuning(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := recordSession(t, dir)
	files, _ := persistlog.ListFiles(filepath.Join(dir, "events"), "events")

	cfg.SpawnProbability = 1.0
	g, _ := game.New(cfg)
	if _, err := replay(g, files, 0); err == nil {
		t.Fatalf("expected a mismatch with a different spawn probability")
	}
}
