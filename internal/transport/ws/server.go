package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/game"
	"geocoin.ai/internal/sim/grid"
)

// Server exposes one game session to a single websocket client at a time.
type Server struct {
	game *game.Game
	log  *log.Logger

	tuningDigest string
	active       atomic.Bool

	upgrader websocket.Upgrader
}

func NewServer(g *game.Game, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		game:         g,
		log:          logger,
		tuningDigest: g.Config().Tuning().Digest(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

// Active reports whether a client currently holds the session.
func (s *Server) Active() bool { return s.active.Load() }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.active.CompareAndSwap(false, true) {
			closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrBusy)
			return
		}
		defer s.active.Store(false)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		if !s.handshake(ctx, conn) {
			return
		}

		out := make(chan any, 16)

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-out:
					if !ok {
						return
					}
					if err := writeJSON(conn, v); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Actions are handled in order; the game loop
		// serializes them against any other caller.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			ack, ok := s.handleAct(ctx, msg)
			if !ok {
				continue
			}
			if !send(ctx, out, ack) {
				break
			}
			obs, err := s.game.RequestObserve(ctx)
			if err != nil {
				break
			}
			if !send(ctx, out, obs.Msg()) {
				break
			}
		}
		cancel()
		<-done
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest)
		return false
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return false
	}
	name := strings.TrimSpace(hello.ClientName)
	if name == "" {
		name = "client"
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.game.ID(),
		Params:          s.game.SessionParams(),
		TuningDigest:    s.tuningDigest,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return false
	}
	obs, err := s.game.RequestObserve(ctx)
	if err != nil {
		return false
	}
	if err := writeJSON(conn, obs.Msg()); err != nil {
		return false
	}
	s.log.Printf("session %s: %s joined", s.game.ID(), name)
	return true
}

// handleAct decodes and applies one ACT. Messages of other types are ignored.
func (s *Server) handleAct(ctx context.Context, msg []byte) (protocol.AckMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return rejected("", protocol.ErrProtoBadRequest, "bad json"), true
	}
	if base.Type != protocol.TypeAct {
		return protocol.AckMsg{}, false
	}
	var act protocol.ActMsg
	if err := json.Unmarshal(msg, &act); err != nil {
		return rejected("", protocol.ErrProtoBadRequest, "bad ACT"), true
	}
	if act.ProtocolVersion != protocol.Version {
		return rejected(act.ID, protocol.ErrProtoBadRequest, "bad protocol_version"), true
	}
	cmd, err := commandFromAct(act)
	if err != nil {
		return rejected(act.ID, protocol.ErrProtoBadRequest, err.Error()), true
	}

	res, err := s.game.Submit(ctx, cmd)
	if err != nil {
		return rejected(act.ID, protocol.ErrInternal, err.Error()), true
	}
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          act.ID,
		Accepted:        res.OK(),
		Code:            res.Code,
		Seq:             res.Seq,
	}
	if res.Err != nil {
		ack.Message = res.Err.Error()
	}
	if res.Coin != nil {
		ack.Coin = res.Coin.String()
	}
	return ack, true
}

func commandFromAct(act protocol.ActMsg) (game.Command, error) {
	cmd := game.Command{Kind: act.Action, Direction: act.Direction}
	if act.Cell != nil {
		id := grid.CellID{I: act.Cell[0], J: act.Cell[1]}
		cmd.Cell = &id
	}
	if act.Coin != "" {
		c, err := coin.Parse(act.Coin)
		if err != nil {
			return game.Command{}, fmt.Errorf("bad coin: %w", err)
		}
		cmd.Coin = &c
	}
	return cmd, nil
}

func rejected(id, code, msg string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          id,
		Accepted:        false,
		Code:            code,
		Message:         msg,
	}
}

func send(ctx context.Context, out chan<- any, v any) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- v:
		return true
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}
	return nil
}
