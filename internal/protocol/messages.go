package protocol

// Actions carried by ACT.
const (
	ActMove        = "MOVE"
	ActScan        = "SCAN"
	ActCollect     = "COLLECT"
	ActDeposit     = "DEPOSIT"
	ActDepositLast = "DEPOSIT_LAST"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	SessionID       string        `json:"session_id"`
	Params          SessionParams `json:"params"`
	TuningDigest    string        `json:"tuning_digest,omitempty"`
}

type SessionParams struct {
	OriginLat          float64 `json:"origin_lat"`
	OriginLng          float64 `json:"origin_lng"`
	TileSize           float64 `json:"tile_size"`
	Scale              float64 `json:"scale"`
	NeighborhoodRadius int     `json:"neighborhood_radius"`
	SpawnProbability   float64 `json:"spawn_probability"`
}

// ACT (client -> server): one user action.
type ActMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	Direction       string  `json:"direction,omitempty"`
	Cell            *[2]int `json:"cell,omitempty"`
	Coin            string  `json:"coin,omitempty"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Seq             uint64 `json:"seq,omitempty"`
	Coin            string `json:"coin,omitempty"`
}

// OBS (server -> client): what a renderer needs after every action.
type ObsMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Seq             uint64     `json:"seq"`
	Player          PlayerObs  `json:"player"`
	Caches          []CacheObs `json:"caches"`
	Digest          string     `json:"digest"`
}

type PlayerObs struct {
	Pos       [2]float64 `json:"pos"`
	Cell      [2]int     `json:"cell"`
	Inventory []string   `json:"inventory"`
}

type CacheObs struct {
	Cell  [2]int   `json:"cell"`
	Coins []string `json:"coins"`
}
