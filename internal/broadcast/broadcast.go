// Package broadcast implements the per-client delta broadcaster:
// interest management, delta computation against a cached snapshot,
// periodic full-resync, and a bounded per-player cache.
//
// Grounded on the teacher's server/room.go Broadcast (emit-and-forget
// over a per-client send queue) and server/net_ws.go's ClientConn
// (bounded channel, drop-on-full), combined with sonpython-
// slether__world.go's viewport culling (SnakesInViewport/
// FoodInViewport), generalized from a rectangular viewport to
// spec.md's circular interest window via the spatial index. Caching
// structured copies rather than serialized JSON follows spec.md §9's
// explicit design note.
package broadcast

import (
	"wormarena/internal/food"
	"wormarena/internal/geomath"
	"wormarena/internal/ids"
	"wormarena/internal/protocol"
	"wormarena/internal/score"
	"wormarena/internal/spatial"
	"wormarena/internal/worm"
	"wormarena/internal/world"
)

// Tunables is the subset of config.Tunables this package needs.
type Tunables struct {
	RView          float64
	RBuf           float64
	ResyncInterval int
	TeleportDist   float64
	MaxCached      int
	MaxSpectateFood int
}

// DefaultTunables mirrors spec.md §6's defaults.
func DefaultTunables() Tunables {
	return Tunables{RView: 1500, RBuf: 200, ResyncInterval: 40, TeleportDist: 100, MaxCached: 200, MaxSpectateFood: 50}
}

type cachedWorm struct {
	head      geomath.Point
	direction float64
	length    float64
	score     int
	hadPath   bool
}

type cachedFood struct {
	position geomath.Point
}

type cachedSnapshot struct {
	worms       map[ids.WormID]cachedWorm
	foodItems   map[ids.FoodID]cachedFood
	leaderboard []score.Entry
	broadcasts  int
}

// lruEntry tracks cache access order for eviction.
type lruEntry struct {
	playerID ids.PlayerID
	prev, next *lruEntry
}

// Broadcaster holds one cached snapshot per connected player, bounded
// by an LRU of MaxCached entries.
type Broadcaster struct {
	t      Tunables
	cache  map[ids.PlayerID]*cachedSnapshot
	lru    map[ids.PlayerID]*lruEntry
	head   *lruEntry // most recently used
	tail   *lruEntry // least recently used
}

// New creates an empty broadcaster.
func New(t Tunables) *Broadcaster {
	return &Broadcaster{t: t, cache: make(map[ids.PlayerID]*cachedSnapshot), lru: make(map[ids.PlayerID]*lruEntry)}
}

// Forget drops a player's cache entry, e.g. on disconnect.
func (b *Broadcaster) Forget(playerID ids.PlayerID) {
	delete(b.cache, playerID)
	if e, ok := b.lru[playerID]; ok {
		b.unlink(e)
		delete(b.lru, playerID)
	}
}

func (b *Broadcaster) touch(playerID ids.PlayerID) {
	if e, ok := b.lru[playerID]; ok {
		b.unlink(e)
		b.pushFront(e)
		return
	}
	e := &lruEntry{playerID: playerID}
	b.lru[playerID] = e
	b.pushFront(e)
	if len(b.lru) > b.t.MaxCached {
		b.evictOldest()
	}
}

func (b *Broadcaster) pushFront(e *lruEntry) {
	e.prev = nil
	e.next = b.head
	if b.head != nil {
		b.head.prev = e
	}
	b.head = e
	if b.tail == nil {
		b.tail = e
	}
}

func (b *Broadcaster) unlink(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		b.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		b.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (b *Broadcaster) evictOldest() {
	if b.tail == nil {
		return
	}
	id := b.tail.playerID
	b.unlink(b.tail)
	delete(b.lru, id)
	delete(b.cache, id)
}

// Interest computes the visible worms and food for a player, per
// spec.md §4.10: a circular window around the worm's head if alive, or
// spectator mode (all living worms, up to MaxSpectateFood food) if
// dead/unspawned.
func Interest(w *world.World, grid *spatial.Grid, playerWorm *worm.Worm, t Tunables) ([]*worm.Worm, []*food.Food) {
	if playerWorm != nil && playerWorm.IsAlive {
		r := t.RView + t.RBuf
		wormIDs := grid.WormsInRadius(playerWorm.Head.X, playerWorm.Head.Y, r)
		foodIDs := grid.FoodInRadius(playerWorm.Head.X, playerWorm.Head.Y, r)

		worms := make([]*worm.Worm, 0, len(wormIDs))
		for _, id := range wormIDs {
			if wm, ok := w.Worms[ids.WormID(id)]; ok && wm.IsAlive {
				worms = append(worms, wm)
			}
		}
		foods := make([]*food.Food, 0, len(foodIDs))
		for _, id := range foodIDs {
			if f, ok := w.Food[ids.FoodID(id)]; ok && !f.IsConsumed {
				foods = append(foods, f)
			}
		}
		return worms, foods
	}

	worms := w.LivingWorms()
	foods := make([]*food.Food, 0, t.MaxSpectateFood)
	for _, f := range w.Food {
		if len(foods) >= t.MaxSpectateFood {
			break
		}
		foods = append(foods, f)
	}
	return worms, foods
}

// BuildFor computes the next outbound message for a player: a full
// GameStateMsg on first contact or on the resync cadence, otherwise a
// minimal DeltaUpdateMsg against the player's cached snapshot. It
// updates the player's cache to match what was just sent.
func BuildFor(w *world.World, grid *spatial.Grid, b *Broadcaster, playerID ids.PlayerID, playerWorm *worm.Worm, leaderboard []score.Entry) protocol.Message {
	b.touch(playerID)
	visibleWorms, visibleFood := Interest(w, grid, playerWorm, b.t)

	prev, hadPrev := b.cache[playerID]
	resync := !hadPrev || prev.broadcasts+1 >= b.t.ResyncInterval

	if resync {
		snap := snapshotFrom(w, visibleWorms, visibleFood, leaderboard)
		b.cache[playerID] = snap
		return fullSnapshot(w.CurrentTick, w, visibleWorms, visibleFood, leaderboard)
	}

	delta, nextSnap := computeDelta(w, prev, visibleWorms, visibleFood, leaderboard, b.t)
	nextSnap.broadcasts = prev.broadcasts + 1
	b.cache[playerID] = nextSnap
	return delta
}

func snapshotFrom(w *world.World, worms []*worm.Worm, foods []*food.Food, leaderboard []score.Entry) *cachedSnapshot {
	snap := &cachedSnapshot{
		worms:       make(map[ids.WormID]cachedWorm, len(worms)),
		foodItems:   make(map[ids.FoodID]cachedFood, len(foods)),
		leaderboard: leaderboard,
	}
	for _, wm := range worms {
		var sc int
		if p, ok := w.Players[wm.PlayerID]; ok {
			sc = p.Score
		}
		snap.worms[wm.ID] = cachedWorm{head: wm.Head, direction: wm.Direction, length: wm.Length, score: sc, hadPath: true}
	}
	for _, f := range foods {
		snap.foodItems[f.ID] = cachedFood{position: f.Position}
	}
	return snap
}

func fullSnapshot(tick int64, w *world.World, worms []*worm.Worm, foods []*food.Food, leaderboard []score.Entry) protocol.GameStateMsg {
	wms := make([]protocol.SerializedWorm, 0, len(worms))
	for _, wm := range worms {
		wms = append(wms, serializeWorm(w, wm, true))
	}
	fds := make([]protocol.SerializedFood, 0, len(foods))
	for _, f := range foods {
		fds = append(fds, serializeFood(f))
	}
	return protocol.GameStateMsg{
		Type: protocol.EvGameState, Tick: tick,
		WorldWidth: w.WorldWidth, WorldHeight: w.WorldHeight,
		Worms: wms, Food: fds, Leaderboard: serializeLeaderboard(leaderboard),
	}
}

func serializeWorm(w *world.World, wm *worm.Worm, includePath bool) protocol.SerializedWorm {
	s := protocol.SerializedWorm{
		ID: uint64(wm.ID), PlayerID: uint64(wm.PlayerID), Head: wm.Head,
		Direction: wm.Direction, Length: wm.Length, Color: wm.Color,
		SkinID: wm.SkinID, IsBoosting: wm.IsBoosting, Name: wm.Name,
	}
	if p, ok := w.Players[wm.PlayerID]; ok {
		s.Score = p.Score
	}
	if includePath {
		s.Path = wm.PathPoints()
	}
	return s
}

func serializeFood(f *food.Food) protocol.SerializedFood {
	return protocol.SerializedFood{ID: uint64(f.ID), Position: f.Position, Value: f.Value, Radius: f.Radius, Color: f.Color}
}

func serializeLeaderboard(entries []score.Entry) []protocol.LeaderboardEntry {
	out := make([]protocol.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = protocol.LeaderboardEntry{Rank: e.Rank, Name: e.Name, Score: e.Score}
	}
	return out
}

func computeDelta(w *world.World, prev *cachedSnapshot, worms []*worm.Worm, foods []*food.Food, leaderboard []score.Entry, t Tunables) (protocol.DeltaUpdateMsg, *cachedSnapshot) {
	next := &cachedSnapshot{
		worms:     make(map[ids.WormID]cachedWorm, len(worms)),
		foodItems: make(map[ids.FoodID]cachedFood, len(foods)),
	}

	delta := protocol.DeltaUpdateMsg{Type: protocol.EvDeltaUpdate, Tick: w.CurrentTick}

	seenWorms := make(map[ids.WormID]struct{}, len(worms))
	for _, wm := range worms {
		seenWorms[wm.ID] = struct{}{}
		cw, existed := prev.worms[wm.ID]

		if !existed {
			delta.WormsAdded = append(delta.WormsAdded, serializeWorm(w, wm, true))
			next.worms[wm.ID] = cachedWorm{head: wm.Head, direction: wm.Direction, length: wm.Length, hadPath: true}
			continue
		}

		var score int
		if p, ok := w.Players[wm.PlayerID]; ok {
			score = p.Score
		}

		update := protocol.WormUpdate{ID: uint64(wm.ID)}
		changed := false
		if wm.Head != cw.head {
			h := wm.Head
			update.Head = &h
			changed = true
		}
		if wm.Direction != cw.direction {
			d := wm.Direction
			update.Direction = &d
			changed = true
		}
		if wm.Length != cw.length {
			l := wm.Length
			update.Length = &l
			changed = true
		}
		if score != cw.score {
			s := score
			update.Score = &s
			changed = true
		}

		teleported := !cw.hadPath || geomath.Dist(wm.Head, cw.head) > t.TeleportDist
		if teleported {
			update.Path = wm.PathPoints()
			changed = true
		}

		if changed {
			delta.WormsUpdated = append(delta.WormsUpdated, update)
		}
		next.worms[wm.ID] = cachedWorm{head: wm.Head, direction: wm.Direction, length: wm.Length, score: score, hadPath: true}
	}
	for id := range prev.worms {
		if _, ok := seenWorms[id]; !ok {
			delta.WormsRemoved = append(delta.WormsRemoved, uint64(id))
		}
	}

	seenFood := make(map[ids.FoodID]struct{}, len(foods))
	for _, f := range foods {
		seenFood[f.ID] = struct{}{}
		cf, existed := prev.foodItems[f.ID]
		if !existed {
			delta.FoodAdded = append(delta.FoodAdded, serializeFood(f))
		} else if geomath.Dist(f.Position, cf.position) > 0.1 {
			delta.FoodUpdated = append(delta.FoodUpdated, protocol.FoodUpdate{ID: uint64(f.ID), Position: f.Position})
		}
		next.foodItems[f.ID] = cachedFood{position: f.Position}
	}
	for id := range prev.foodItems {
		if _, ok := seenFood[id]; !ok {
			delta.FoodRemoved = append(delta.FoodRemoved, uint64(id))
		}
	}

	if !score.Equal(leaderboard, prev.leaderboard) {
		delta.Leaderboard = serializeLeaderboard(leaderboard)
	}
	next.leaderboard = leaderboard

	return delta, next
}
