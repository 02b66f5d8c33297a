package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/game"
)

func startServer(t *testing.T) (*game.Game, string) {
	t.Helper()
	g, err := game.New(game.Config{
		ID:                 "S1",
		OriginLat:          36.98949379578401,
		OriginLng:          -122.06277128548504,
		NeighborhoodRadius: 1,
		SpawnProbability:   1.0,
	})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = g.Run(ctx) }()
	t.Cleanup(cancel)

	srv := httptest.NewServer(NewServer(g, log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(srv.Close)
	return g, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, _ := json.Marshal(v)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, wantType string, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read %s: %v", wantType, err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != wantType {
		t.Fatalf("got %s want %s", msg, wantType)
	}
	if err := json.Unmarshal(msg, v); err != nil {
		t.Fatalf("decode %s: %v", wantType, err)
	}
}

func join(t *testing.T, url string) (*websocket.Conn, protocol.WelcomeMsg, protocol.ObsMsg) {
	t.Helper()
	conn := dial(t, url)
	sendJSON(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})
	var welcome protocol.WelcomeMsg
	readJSON(t, conn, protocol.TypeWelcome, &welcome)
	var obs protocol.ObsMsg
	readJSON(t, conn, protocol.TypeObs, &obs)
	return conn, welcome, obs
}

func act(t *testing.T, conn *websocket.Conn, a protocol.ActMsg) (protocol.AckMsg, protocol.ObsMsg) {
	t.Helper()
	a.Type = protocol.TypeAct
	a.ProtocolVersion = protocol.Version
	sendJSON(t, conn, a)
	var ack protocol.AckMsg
	readJSON(t, conn, protocol.TypeAck, &ack)
	var obs protocol.ObsMsg
	readJSON(t, conn, protocol.TypeObs, &obs)
	if ack.AckFor != a.ID {
		t.Fatalf("ack_for=%q want %q", ack.AckFor, a.ID)
	}
	return ack, obs
}

func TestServer_SessionRoundTrip(t *testing.T) {
	g, url := startServer(t)
	conn, welcome, obs := join(t, url)

	if welcome.SessionID != "S1" || welcome.Params.NeighborhoodRadius != 1 {
		t.Fatalf("welcome: %+v", welcome)
	}
	if welcome.TuningDigest != g.Config().Tuning().Digest() {
		t.Fatalf("tuning digest mismatch")
	}
	if len(obs.Caches) != 9 || len(obs.Player.Inventory) != 0 {
		t.Fatalf("initial obs: caches=%d inv=%d", len(obs.Caches), len(obs.Player.Inventory))
	}

	origin := obs.Player.Cell
	ack, obs := act(t, conn, protocol.ActMsg{ID: "a1", Action: protocol.ActCollect, Cell: &origin})
	if !ack.Accepted || ack.Coin == "" || ack.Seq != 1 {
		t.Fatalf("collect ack: %+v", ack)
	}
	if len(obs.Player.Inventory) != 1 || obs.Player.Inventory[0] != ack.Coin {
		t.Fatalf("inventory after collect: %v", obs.Player.Inventory)
	}

	ack, obs = act(t, conn, protocol.ActMsg{ID: "a2", Action: protocol.ActMove, Direction: "north"})
	if !ack.Accepted || obs.Player.Cell[0] != origin[0]+1 {
		t.Fatalf("move: ack=%+v cell=%v", ack, obs.Player.Cell)
	}

	coinStr := obs.Player.Inventory[0]
	ack, obs = act(t, conn, protocol.ActMsg{ID: "a3", Action: protocol.ActDeposit, Cell: &origin, Coin: coinStr})
	if !ack.Accepted || ack.Coin != coinStr || len(obs.Player.Inventory) != 0 {
		t.Fatalf("deposit: ack=%+v inv=%v", ack, obs.Player.Inventory)
	}

	ack, _ = act(t, conn, protocol.ActMsg{ID: "a4", Action: protocol.ActDepositLast, Cell: &origin})
	if ack.Accepted || ack.Code != protocol.ErrNoCoinHeld {
		t.Fatalf("deposit with empty inventory: %+v", ack)
	}

	far := [2]int{origin[0] + 50, origin[1]}
	ack, _ = act(t, conn, protocol.ActMsg{ID: "a5", Action: protocol.ActCollect, Cell: &far})
	if ack.Accepted || ack.Code != protocol.ErrUnknownCache {
		t.Fatalf("collect on undecided cell: %+v", ack)
	}

	ack, _ = act(t, conn, protocol.ActMsg{ID: "a6", Action: protocol.ActDeposit, Cell: &origin, Coin: "nope"})
	if ack.Accepted || ack.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("bad coin: %+v", ack)
	}
	if g.Seq() != 5 {
		t.Fatalf("seq=%d want 5", g.Seq())
	}
}

func TestServer_RejectsSecondClient(t *testing.T) {
	_, url := startServer(t)
	_, _, _ = join(t, url)

	conn := dial(t, url)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		t.Fatalf("expected close error, got %v", err)
	}
	if ce.Code != websocket.ClosePolicyViolation || ce.Text != protocol.ErrBusy {
		t.Fatalf("close: code=%d text=%q", ce.Code, ce.Text)
	}
}

func TestServer_RequiresHello(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)
	sendJSON(t, conn, protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, ID: "x", Action: protocol.ActScan})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected policy close, got %v", err)
	}
}
