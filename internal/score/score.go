// Package score owns the leaderboard computation. Pellet points are
// awarded directly by the collision subsystem (spec.md §4.4); kill
// rewards are awarded here, driven by worm-worm collision events,
// per spec.md §4.6.
//
// Grounded on sonpython-slether__world.go's Leaderboard method (the
// teacher has no scoring at all), generalized to spec.md's ascending-
// player-ID tiebreak for stable ranking.
package score

import (
	"sort"

	"wormarena/internal/ids"
	"wormarena/internal/world"
)

// AwardKill credits PointsPerKill to the killer's player for a
// worm-worm collision event. No-op if the killer worm is not in the
// world or its player has left. A killer that itself died earlier in
// the same tick is still in the world and is still credited.
func AwardKill(w *world.World, killerWormID ids.WormID, pointsPerKill int) {
	killer, ok := w.Worms[killerWormID]
	if !ok {
		return
	}
	p, ok := w.Players[killer.PlayerID]
	if !ok {
		return
	}
	p.Score += pointsPerKill
}

// Entry is one row of the published leaderboard.
type Entry struct {
	Rank   int
	Name   string
	Score  int
	Player ids.PlayerID
}

// TopN computes the top-N players by score, descending, ties broken by
// ascending player ID for stable ranking across ticks.
func TopN(w *world.World, n int) []Entry {
	players := make([]*world.Player, 0, len(w.Players))
	for _, p := range w.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].ID < players[j].ID
	})
	if len(players) > n {
		players = players[:n]
	}
	out := make([]Entry, len(players))
	for i, p := range players {
		out[i] = Entry{Rank: i + 1, Name: p.Name, Score: p.Score, Player: p.ID}
	}
	return out
}

// Equal reports whether two leaderboards are structurally identical,
// used by the broadcaster to decide whether to include a leaderboard
// update in a delta (spec.md §4.10).
func Equal(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
