// Package protocol defines the wire message shapes shared by the
// broadcaster and the transport adapter (spec.md §6).
//
// Grounded on the teacher's server/input.go and server/room.go
// (tagged-type JSON envelopes, PlayerState DTO), generalized to the
// richer event set spec.md §6 names.
package protocol

import "wormarena/internal/geomath"

// Event names, spec.md §6.
const (
	EvJoinRoom      = "join-room"
	EvInput         = "input"
	EvPing          = "ping"
	EvPong          = "pong"
	EvGameState     = "game-state"
	EvDeltaUpdate   = "delta-update"
	EvPlayerJoined  = "player-joined"
	EvPlayerLeft    = "player-left"
	EvPlayerDied    = "player-died"
	EvError         = "error"
)

// Error codes, spec.md §7.
const (
	ErrInvalidName = "INVALID_NAME"
	ErrJoinFailed  = "JOIN_FAILED"
)

// JoinRoomMsg is the client→server join-room payload.
type JoinRoomMsg struct {
	PlayerName string `json:"playerName"`
	RoomID     string `json:"roomId,omitempty"`
	SkinID     string `json:"skinId,omitempty"`
}

// InputMsg is the client→server input payload (a tagged union over
// Type).
type InputMsg struct {
	Type        string  `json:"type"`
	Direction   float64 `json:"direction,omitempty"`
	IsBoosting  bool    `json:"isBoosting,omitempty"`
	PlayerName  string  `json:"playerName,omitempty"`
	SkinID      string  `json:"skinId,omitempty"`
	TimestampMs int64   `json:"timestamp"`
}

// ErrorMsg is the server→client error payload.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerSpawnedMsg acknowledges a successful join-room.
type PlayerSpawnedMsg struct {
	PlayerID uint64 `json:"playerId"`
	SnakeID  uint64 `json:"snakeId"`
}

// PlayerJoinedMsg, PlayerLeftMsg, PlayerDiedMsg are broadcast to peers.
type PlayerJoinedMsg struct {
	PlayerID   uint64 `json:"playerId"`
	PlayerName string `json:"playerName"`
	SnakeID    uint64 `json:"snakeId"`
}

type PlayerLeftMsg struct {
	PlayerID uint64 `json:"playerId"`
	Reason   string `json:"reason"`
}

type PlayerDiedMsg struct {
	PlayerID uint64 `json:"playerId"`
}

// PongMsg echoes the client's ping timestamp.
type PongMsg struct {
	TimestampMs int64 `json:"timestamp"`
}

// SerializedWorm is the wire shape of a worm, spec.md §4.10.
type SerializedWorm struct {
	ID         uint64          `json:"id"`
	PlayerID   uint64          `json:"player_id"`
	Head       geomath.Point   `json:"head"`
	Direction  float64         `json:"direction"`
	Length     float64         `json:"length"`
	Color      string          `json:"color"`
	SkinID     string          `json:"skin_id"`
	IsBoosting bool            `json:"is_boosting"`
	Score      int             `json:"score"`
	Name       string          `json:"name"`
	Path       []geomath.Point `json:"path,omitempty"`
}

// SerializedFood is the wire shape of a food item.
type SerializedFood struct {
	ID       uint64        `json:"id"`
	Position geomath.Point `json:"position"`
	Value    int           `json:"value"`
	Radius   float64       `json:"radius"`
	Color    string        `json:"color"`
}

// LeaderboardEntry is one row of the published leaderboard.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// GameStateMsg is the full-snapshot payload, spec.md §4.10.
type GameStateMsg struct {
	Type        string             `json:"type"`
	Tick        int64              `json:"tick"`
	WorldWidth  float64            `json:"world_width"`
	WorldHeight float64            `json:"world_height"`
	Worms       []SerializedWorm   `json:"worms"`
	Food        []SerializedFood   `json:"food"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// WormUpdate is the subset-of-fields-changed patch for one worm in a
// delta update. A nil pointer means "unchanged, not included."
type WormUpdate struct {
	ID        uint64          `json:"id"`
	Head      *geomath.Point  `json:"head,omitempty"`
	Direction *float64        `json:"direction,omitempty"`
	Length    *float64        `json:"length,omitempty"`
	Score     *int            `json:"score,omitempty"`
	Path      []geomath.Point `json:"path,omitempty"`
}

// FoodUpdate is a position-only patch for a food item whose position
// changed (the magnet effect).
type FoodUpdate struct {
	ID       uint64        `json:"id"`
	Position geomath.Point `json:"position"`
}

// DeltaUpdateMsg is the delta payload, spec.md §4.10.
type DeltaUpdateMsg struct {
	Type          string             `json:"type"`
	Tick          int64              `json:"tick"`
	WormsAdded    []SerializedWorm   `json:"worms_added,omitempty"`
	WormsUpdated  []WormUpdate       `json:"worms_updated,omitempty"`
	WormsRemoved  []uint64           `json:"worms_removed,omitempty"`
	FoodAdded     []SerializedFood   `json:"food_added,omitempty"`
	FoodUpdated   []FoodUpdate       `json:"food_updated,omitempty"`
	FoodRemoved   []uint64           `json:"food_removed,omitempty"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard,omitempty"`
}

// Message is the minimal interface the transport layer needs: every
// outbound payload carries its own event name so the adapter can frame
// it without inspecting the body.
type Message interface {
	EventName() string
}

func (GameStateMsg) EventName() string     { return EvGameState }
func (DeltaUpdateMsg) EventName() string   { return EvDeltaUpdate }
func (ErrorMsg) EventName() string         { return EvError }
func (PlayerSpawnedMsg) EventName() string { return "player-spawned" }
func (PlayerJoinedMsg) EventName() string  { return EvPlayerJoined }
func (PlayerLeftMsg) EventName() string    { return EvPlayerLeft }
func (PlayerDiedMsg) EventName() string    { return EvPlayerDied }
func (PongMsg) EventName() string          { return EvPong }
