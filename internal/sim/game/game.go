package game

import (
	"errors"
	"io"
	"log"
	"sync"

	"geocoin.ai/internal/sim/grid"
	"geocoin.ai/internal/sim/ledger"
	"geocoin.ai/internal/sim/spawn"
)

// ErrNoCoinHeld is returned by Deposit when the player does not hold the coin.
var ErrNoCoinHeld = errors.New("no coin held")

// Game is the single-threaded authoritative session state.
// Outside of tests, all state must be accessed only from the Run goroutine.
type Game struct {
	cfg Config

	locator *grid.Locator
	ledger  *ledger.Ledger
	spawner *spawn.Spawner
	player  *Player

	origin grid.CellID
	minted int
	seq    uint64

	log         *log.Logger
	eventLogger EventLogger
	auditLogger AuditLogger

	inbox  chan commandReq
	obsReq chan observeReq

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

type EventLogger interface {
	WriteEvent(entry EventLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// EventLogEntry records one applied command and the state digest after it.
type EventLogEntry struct {
	SessionID string  `json:"session_id"`
	Seq       uint64  `json:"seq"`
	Command   Command `json:"command"`
	Code      string  `json:"code,omitempty"`
	Digest    string  `json:"digest"`
}

// AuditEntry records one coin movement: a mint, collect or deposit.
type AuditEntry struct {
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
	Action    string `json:"action"` // MINT, COLLECT, DEPOSIT
	Cell      [2]int `json:"cell"`
	Coin      string `json:"coin,omitempty"`
	Count     int    `json:"count,omitempty"`
}

type Option func(*Game)

func WithLogger(l *log.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

func WithEventLogger(l EventLogger) Option { return func(g *Game) { g.eventLogger = l } }

func WithAuditLogger(l AuditLogger) Option { return func(g *Game) { g.auditLogger = l } }

// New builds a session and stocks the neighborhood around the starting position.
func New(cfg Config, opts ...Option) (*Game, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loc := grid.NewLocator(cfg.Scale)
	led := ledger.New()
	origin := loc.Locate(cfg.OriginLat, cfg.OriginLng).ID

	g := &Game{
		cfg:     cfg,
		locator: loc,
		ledger:  led,
		spawner: spawn.New(loc, led, origin),
		player:  newPlayer(cfg.OriginLat, cfg.OriginLng, cfg.TileSize),
		origin:  origin,
		log:     log.New(io.Discard, "", 0),
		inbox:   make(chan commandReq, 64),
		obsReq:  make(chan observeReq, 16),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(g)
	}
	g.Scan()
	return g, nil
}

func (g *Game) ID() string          { return g.cfg.ID }
func (g *Game) Config() Config      { return g.cfg }
func (g *Game) Origin() grid.CellID { return g.origin }

// Seq is the number of commands applied so far.
func (g *Game) Seq() uint64 { return g.seq }

// Minted is the number of coins the spawner has created this session.
func (g *Game) Minted() int { return g.minted }

func (g *Game) Locator() *grid.Locator { return g.locator }

// Player exposes the player for reads. Its inventory can only change through
// Collect and Deposit.
func (g *Game) Player() *Player { return g.player }

// PlayerCell is the canonical cell under the player.
func (g *Game) PlayerCell() *grid.Cell {
	lat, lng := g.player.Position()
	return g.locator.Locate(lat, lng)
}

func (g *Game) HasCache(id grid.CellID) bool { return g.ledger.Has(id) }

func (g *Game) Cache(id grid.CellID) (ledger.Memento, bool) { return g.ledger.Memento(id) }

// CacheIDs lists every decided cache cell in (i, j) order.
func (g *Game) CacheIDs() []grid.CellID { return g.ledger.IDs() }

// CachesNear returns copies of the caches in the square of radius r around center.
func (g *Game) CachesNear(center grid.CellID, r int) []ledger.Memento {
	if r < 0 {
		r = 0
	}
	var out []ledger.Memento
	for di := -r; di <= r; di++ {
		for dj := -r; dj <= r; dj++ {
			if m, ok := g.ledger.Memento(center.Add(di, dj)); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func (g *Game) audit(e AuditEntry) {
	if g.auditLogger == nil {
		return
	}
	e.SessionID = g.cfg.ID
	e.Seq = g.seq
	if err := g.auditLogger.WriteAudit(e); err != nil {
		g.log.Printf("audit write: %v", err)
	}
}
