package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"geocoin.ai/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "client name")
		path  = flag.String("path", "", "fixed walk as a string of n/s/e/w (default: random)")
		steps = flag.Int("steps", 50, "moves for a random walk")
		seed  = flag.Int64("seed", 0, "random walk seed (0: time based)")
		delay = flag.Duration("delay", 200*time.Millisecond, "pause between actions")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	var welcome protocol.WelcomeMsg
	if err := readTyped(conn, protocol.TypeWelcome, &welcome); err != nil {
		logger.Fatalf("WELCOME: %v", err)
	}
	logger.Printf("WELCOME session=%s radius=%d p=%.2f", welcome.SessionID, welcome.Params.NeighborhoodRadius, welcome.Params.SpawnProbability)
	var obs protocol.ObsMsg
	if err := readTyped(conn, protocol.TypeObs, &obs); err != nil {
		logger.Fatalf("OBS: %v", err)
	}

	walk := strings.ToLower(strings.TrimSpace(*path))
	if walk == "" {
		s := *seed
		if s == 0 {
			s = time.Now().UnixNano()
		}
		walk = randomWalk(rand.New(rand.NewSource(s)), *steps)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{conn: conn, logger: logger, obs: obs}
	for i, d := range walk {
		select {
		case <-stop:
			return
		default:
		}
		for _, c := range obs.Caches {
			if len(c.Coins) == 0 {
				continue
			}
			cell := c.Cell
			if err := b.act(protocol.ActMsg{Action: protocol.ActCollect, Cell: &cell}); err != nil {
				logger.Fatalf("collect: %v", err)
			}
			time.Sleep(*delay)
		}
		if (i+1)%3 == 0 {
			if cell, ok := depositTarget(b.obs); ok {
				if err := b.act(protocol.ActMsg{Action: protocol.ActDepositLast, Cell: &cell}); err != nil {
					logger.Fatalf("deposit: %v", err)
				}
				time.Sleep(*delay)
			}
		}
		if err := b.act(protocol.ActMsg{Action: protocol.ActMove, Direction: string(d)}); err != nil {
			logger.Fatalf("move: %v", err)
		}
		obs = b.obs
		time.Sleep(*delay)
	}
	logger.Printf("done seq=%d inventory=%d digest=%s", b.obs.Seq, len(b.obs.Player.Inventory), b.obs.Digest)
}

type bot struct {
	conn   *websocket.Conn
	logger *log.Logger
	obs    protocol.ObsMsg
	nextID int
}

// act sends one ACT and waits for its ACK and the OBS that follows.
func (b *bot) act(a protocol.ActMsg) error {
	b.nextID++
	a.Type = protocol.TypeAct
	a.ProtocolVersion = protocol.Version
	a.ID = fmt.Sprintf("A%d", b.nextID)
	if err := b.conn.WriteJSON(a); err != nil {
		return err
	}
	var ack protocol.AckMsg
	if err := readTyped(b.conn, protocol.TypeAck, &ack); err != nil {
		return err
	}
	if !ack.Accepted {
		b.logger.Printf("%s %s rejected: %s %s", ack.AckFor, a.Action, ack.Code, ack.Message)
	} else if ack.Coin != "" {
		b.logger.Printf("%s %s %s", ack.AckFor, a.Action, ack.Coin)
	}
	return readTyped(b.conn, protocol.TypeObs, &b.obs)
}

// depositTarget prefers the cache under the player.
func depositTarget(obs protocol.ObsMsg) ([2]int, bool) {
	if len(obs.Player.Inventory) == 0 || len(obs.Caches) == 0 {
		return [2]int{}, false
	}
	for _, c := range obs.Caches {
		if c.Cell == obs.Player.Cell {
			return c.Cell, true
		}
	}
	return obs.Caches[0].Cell, true
}

func randomWalk(r *rand.Rand, n int) string {
	const dirs = "nsew"
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(dirs[r.Intn(len(dirs))])
	}
	return sb.String()
}

func readTyped(conn *websocket.Conn, typ string, v any) error {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		if base.Type != typ {
			continue
		}
		return json.Unmarshal(msg, v)
	}
}
