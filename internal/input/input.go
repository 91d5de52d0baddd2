// Package input implements the command pipeline: validation, per-player
// rate limiting, and a bounded FIFO queue drained once per tick.
//
// Grounded on the teacher's server/input.go (tagged-string wire
// message, translated to a typed Command at the boundary) and
// server/room.go's inputChan (bounded channel, drop-oldest-on-full),
// generalized per spec.md §4.7/§9's "enumerated variant with a
// separate validation step."
package input

import (
	"math"

	"wormarena/internal/ids"
)

// Kind distinguishes the command variants spec.md §4.7 names. Spawn is
// handled by the Room Manager, not this queue, but is represented here
// so the wire-level RawCommand → Command validation step has one place
// to live.
type Kind int

const (
	KindDirectionChange Kind = iota
	KindBoost
	KindSpawn
)

// Command is the validated, typed form of an inbound player command.
type Command struct {
	Kind         Kind
	Direction    float64
	IsBoosting   bool
	PlayerName   string
	SkinID       string
	TimestampMs  int64
}

// RawCommand is the untyped wire-level shape a transport adapter
// decodes JSON into before validation.
type RawCommand struct {
	Type        string
	Direction   float64
	HasDir      bool
	IsBoosting  bool
	HasBoost    bool
	PlayerName  string
	SkinID      string
	TimestampMs int64
}

// RejectReason explains why Validate refused a command. Malformed and
// rate-limited commands are rejected silently per spec.md §7 — the
// reason exists for debug logging only, never for client feedback.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectUnknownType
	RejectMalformed
	RejectTimestampSkew
	RejectRateLimited
)

// Validate converts a RawCommand into a Command, or a reject reason.
// It does not apply rate limiting — see Queue.Offer for that.
func Validate(raw RawCommand, nowMs int64, tSkewMs int64) (Command, RejectReason) {
	if raw.TimestampMs != 0 {
		skew := nowMs - raw.TimestampMs
		if skew < 0 {
			skew = -skew
		}
		if skew > tSkewMs {
			return Command{}, RejectTimestampSkew
		}
	}

	switch raw.Type {
	case "direction-change":
		if !raw.HasDir || math.IsNaN(raw.Direction) || math.IsInf(raw.Direction, 0) {
			return Command{}, RejectMalformed
		}
		return Command{Kind: KindDirectionChange, Direction: raw.Direction, TimestampMs: raw.TimestampMs}, RejectNone
	case "boost":
		if !raw.HasBoost {
			return Command{}, RejectMalformed
		}
		return Command{Kind: KindBoost, IsBoosting: raw.IsBoosting, TimestampMs: raw.TimestampMs}, RejectNone
	case "spawn":
		return Command{Kind: KindSpawn, PlayerName: raw.PlayerName, SkinID: raw.SkinID, TimestampMs: raw.TimestampMs}, RejectNone
	default:
		return Command{}, RejectUnknownType
	}
}

// rateWindow tracks accepted-command timestamps within the last second
// for the sliding-window rate limit (spec.md P6).
type rateWindow struct {
	timestamps []int64
}

func (r *rateWindow) countWithin(nowMs int64, windowMs int64) int {
	cutoff := nowMs - windowMs
	i := 0
	for i < len(r.timestamps) && r.timestamps[i] < cutoff {
		i++
	}
	r.timestamps = r.timestamps[i:]
	return len(r.timestamps)
}

func (r *rateWindow) record(nowMs int64) {
	r.timestamps = append(r.timestamps, nowMs)
}

// Queue is a single player's bounded FIFO of validated commands, with
// a sliding-window rate limiter. Capacity is INPUT_BUFFER_SIZE; when
// full, the oldest entry is dropped to make room for the newest
// (spec.md §4.7).
type Queue struct {
	playerID ids.PlayerID
	capacity int
	buf      []Command
	rate     rateWindow
	maxRate  int
}

// NewQueue creates an empty queue for a player.
func NewQueue(playerID ids.PlayerID, capacity, maxRate int) *Queue {
	return &Queue{playerID: playerID, capacity: capacity, maxRate: maxRate}
}

// Offer validates and rate-limits raw, enqueuing it if accepted.
// Returns the reject reason (RejectNone on success).
func (q *Queue) Offer(raw RawCommand, nowMs, tSkewMs int64) RejectReason {
	cmd, reason := Validate(raw, nowMs, tSkewMs)
	if reason != RejectNone {
		return reason
	}
	if q.rate.countWithin(nowMs, 1000) >= q.maxRate {
		return RejectRateLimited
	}
	q.rate.record(nowMs)

	if len(q.buf) >= q.capacity {
		q.buf = q.buf[1:]
	}
	q.buf = append(q.buf, cmd)
	return RejectNone
}

// Drain removes and returns every queued command, in FIFO order,
// emptying the queue.
func (q *Queue) Drain() []Command {
	out := q.buf
	q.buf = nil
	return out
}
