package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "geocoin.ai/internal/persistence/log"
	"geocoin.ai/internal/sim/game"
	"geocoin.ai/internal/sim/tuning"
	"geocoin.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		sessionID  = flag.String("session", "session_1", "session id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read model of events and audit rows")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	sessionDir := filepath.Join(*dataDir, "sessions", *sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		logger.Fatalf("session dir: %v", err)
	}

	// Optional read model; the game never reads it.
	idx, err := openRuntimeIndex(sessionDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(*sessionID, tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	eventLog := persistlog.NewEventLogger(sessionDir)
	auditLog := persistlog.NewAuditLogger(sessionDir)
	defer eventLog.Close()
	defer auditLog.Close()

	events := multiEventLogger{a: eventLog}
	audits := multiAuditLogger{a: auditLog}
	if idx != nil {
		events.b = idx
		audits.b = idx
	}

	g, err := game.New(game.ConfigFromTuning(*sessionID, tune),
		game.WithLogger(logger),
		game.WithEventLogger(events),
		game.WithAuditLogger(audits),
	)
	if err != nil {
		logger.Fatalf("game: %v", err)
	}
	logger.Printf("session=%s origin=%s tuning=%s", g.ID(), g.Origin(), tune.Digest())

	ctx, cancel := signalContext()
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := g.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("game stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(g, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		ctx2, cancel2 := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel2()
		obs, err := g.RequestObserve(ctx2)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP geocoin_session_seq Commands applied so far.\n")
		fmt.Fprintf(rw, "# TYPE geocoin_session_seq counter\n")
		fmt.Fprintf(rw, "geocoin_session_seq{session=%q} %d\n", *sessionID, obs.Seq)

		fmt.Fprintf(rw, "# HELP geocoin_player_inventory Coins held by the player.\n")
		fmt.Fprintf(rw, "# TYPE geocoin_player_inventory gauge\n")
		fmt.Fprintf(rw, "geocoin_player_inventory{session=%q} %d\n", *sessionID, len(obs.Inventory))

		fmt.Fprintf(rw, "# HELP geocoin_nearby_caches Caches within the scan radius.\n")
		fmt.Fprintf(rw, "# TYPE geocoin_nearby_caches gauge\n")
		fmt.Fprintf(rw, "geocoin_nearby_caches{session=%q} %d\n", *sessionID, len(obs.Caches))

		active := 0
		if wsSrv.Active() {
			active = 1
		}
		fmt.Fprintf(rw, "# HELP geocoin_clients Connected websocket clients.\n")
		fmt.Fprintf(rw, "# TYPE geocoin_clients gauge\n")
		fmt.Fprintf(rw, "geocoin_clients{session=%q} %d\n", *sessionID, active)

		writeIndexMetrics(rw, idx)
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	// Let the loop finish its current command before the logs close.
	cancel()
	<-runDone
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiEventLogger struct {
	a game.EventLogger
	b game.EventLogger
}

func (m multiEventLogger) WriteEvent(entry game.EventLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteEvent(entry)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a game.AuditLogger
	b game.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry game.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
