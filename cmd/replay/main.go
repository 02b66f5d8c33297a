package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "geocoin.ai/internal/persistence/log"
	"geocoin.ai/internal/sim/game"
	"geocoin.ai/internal/sim/tuning"
)

func main() {
	var (
		eventsDir  = flag.String("events", "", "events dir containing events-*.jsonl.zst")
		sessionID  = flag.String("session", "session_1", "session id the events were recorded under")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		toSeq      = flag.Uint64("to_seq", 0, "stop after seq (inclusive, optional)")
	)
	flag.Parse()

	if *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -events")
		os.Exit(2)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	g, err := game.New(game.ConfigFromTuning(*sessionID, tune))
	if err != nil {
		fmt.Fprintln(os.Stderr, "game:", err)
		os.Exit(1)
	}

	files, err := persistlog.ListFiles(*eventsDir, "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	checked, err := replay(g, files, *toSeq)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	if err := g.CheckInvariants(); err != nil {
		fmt.Fprintln(os.Stderr, "invariants:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d commands session=%s minted=%d digest=%s\n", checked, g.ID(), g.Minted(), g.StateDigest())
}

var errDone = errors.New("done")

func replay(g *game.Game, files []string, toSeq uint64) (uint64, error) {
	var checked uint64
	for _, path := range files {
		err := persistlog.ReadEvents(path, func(entry game.EventLogEntry) error {
			if entry.SessionID != "" && entry.SessionID != g.ID() {
				return fmt.Errorf("session mismatch: file=%s entry=%s want=%s", filepath.Base(path), entry.SessionID, g.ID())
			}
			if toSeq != 0 && entry.Seq > toSeq {
				return errDone
			}
			if entry.Seq != g.Seq()+1 {
				return fmt.Errorf("seq gap: want=%d got=%d (file=%s)", g.Seq()+1, entry.Seq, filepath.Base(path))
			}
			res := g.Apply(entry.Command)
			if res.Code != entry.Code {
				return fmt.Errorf("code mismatch at seq %d: got=%q want=%q", res.Seq, res.Code, entry.Code)
			}
			if got := g.StateDigest(); got != entry.Digest {
				return fmt.Errorf("digest mismatch at seq %d: got=%s want=%s", res.Seq, got, entry.Digest)
			}
			checked++
			return nil
		})
		if errors.Is(err, errDone) {
			return checked, nil
		}
		if err != nil {
			return checked, err
		}
	}
	return checked, nil
}
