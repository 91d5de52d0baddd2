// Package room implements the Room: one authoritative World plus its
// Tick Loop and Broadcast Loop, running as a single cooperative worker
// goroutine per spec.md §5 ("they never run simultaneously on the same
// World").
//
// Grounded on the teacher's server/room.go (Players map, inputChan/
// leaveChan for cross-context enqueue, a single ticker goroutine
// driving ProcessInputs → UpdateWorld → Broadcast) and server/tick.go,
// generalized from the teacher's 4-directional toy world to the full
// worm/food/collision pipeline, and from a plain time.Ticker to the
// fixed-schedule catch-up scheduler in internal/tick (spec.md §9).
package room

import (
	"math/rand"
	"regexp"
	"sync"
	"time"

	"wormarena/internal/broadcast"
	"wormarena/internal/collision"
	"wormarena/internal/config"
	"wormarena/internal/food"
	"wormarena/internal/foodsys"
	"wormarena/internal/geomath"
	"wormarena/internal/ids"
	"wormarena/internal/input"
	"wormarena/internal/log"
	"wormarena/internal/metrics"
	"wormarena/internal/physics"
	"wormarena/internal/protocol"
	"wormarena/internal/score"
	"wormarena/internal/spatial"
	"wormarena/internal/tick"
	"wormarena/internal/worm"
	"wormarena/internal/world"
)

// Transport is the boundary spec.md §1 calls an external collaborator:
// the Room depends only on this interface, never on a concrete socket
// library, per spec.md §6.
type Transport interface {
	Send(playerID ids.PlayerID, msg protocol.Message) error
	Close(playerID ids.PlayerID)
}

var playerNameRe = regexp.MustCompile(`^[A-Za-z0-9 _-]{1,20}$`)

type joinRequest struct {
	socketID  string
	name      string
	skinID    string
	transport Transport
	reply     chan joinResult
}

type joinResult struct {
	playerID ids.PlayerID
	wormID   ids.WormID
	err      error
}

type rawInputEvent struct {
	playerID ids.PlayerID
	raw      input.RawCommand
}

// Room owns one World and drives it via a fixed-rate tick loop and a
// lower-rate broadcast loop, both on one worker goroutine.
type Room struct {
	ID  string
	cfg config.Tunables

	world       *world.World
	grid        *spatial.Grid
	broadcaster *broadcast.Broadcaster
	metrics     *metrics.RoomMetrics
	logger      zapSugared

	inputQueues map[ids.PlayerID]*input.Queue
	transports  map[ids.PlayerID]Transport
	leaderboard []score.Entry

	joinChan  chan joinRequest
	leaveChan chan ids.PlayerID
	inputChan chan rawInputEvent

	mu      sync.RWMutex // guards only the small set of fields read from other goroutines (below)
	started bool
	stopCh  chan struct{}

	nextPlayerID     ids.PlayerID
	movingFoodTicker int64

	nowMs  func() int64
	randFn func() float64
}

// zapSugared avoids importing zap's concrete type into this file's
// public surface while still giving Room a logger field; see
// internal/log for the real type.
type zapSugared = interface {
	Infof(string, ...any)
	Warnf(string, ...any)
	Errorf(string, ...any)
	Debugf(string, ...any)
}

// New creates a Room with an empty World, seeded with initial food to
// target density.
func New(id string, cfg config.Tunables, nowMs func() int64) *Room {
	w := world.New(cfg.WorldWidth, cfg.WorldHeight, nowMs())
	r := &Room{
		ID:          id,
		cfg:         cfg,
		world:       w,
		grid:        spatial.New(spatial.CellSize),
		broadcaster: broadcast.New(broadcast.Tunables{RView: cfg.RView, RBuf: cfg.RBuf, ResyncInterval: cfg.ResyncInterval, TeleportDist: cfg.TeleportDist, MaxCached: 200, MaxSpectateFood: 50}),
		metrics:     &metrics.RoomMetrics{},
		logger:      log.Named("room." + id),
		inputQueues: make(map[ids.PlayerID]*input.Queue),
		transports:  make(map[ids.PlayerID]Transport),
		joinChan:    make(chan joinRequest, 64),
		leaveChan:   make(chan ids.PlayerID, 64),
		inputChan:   make(chan rawInputEvent, 4096),
		stopCh:      make(chan struct{}),
		nowMs:       nowMs,
		randFn:      rand.Float64,
	}
	seedInitialFood(r.world, r.grid, r.cfg, r.randFn)
	return r
}

func seedInitialFood(w *world.World, grid *spatial.Grid, cfg config.Tunables, randFn func() float64) {
	foodsys.Respawn(w, grid, foodsys.Tunables{
		FoodMinRadius: cfg.FoodMinRadius, FoodMaxRadius: cfg.FoodMaxRadius,
		RMagnet: cfg.RMagnet, MagnetVMin: cfg.MagnetVMin, MagnetVMax: cfg.MagnetVMax,
		FoodTarget: cfg.FoodTarget, RespawnPerTick: cfg.FoodTarget, SpawnRejectR: 100,
	}, randFn)
}

func wormTunables(cfg config.Tunables) worm.Tunables {
	return worm.Tunables{
		SegRadius: cfg.SegRadius, SegSpacing: cfg.SegSpacing, PathRes: cfg.PathRes,
		StepMax: cfg.StepMax, MaxTurnPerTick: cfg.MaxTurnPerTick, MaxLen: cfg.MaxLen,
		MinBoostLength: cfg.MinBoostLength, BoostMult: cfg.BoostMult, MaxPathPoints: cfg.MaxPathPoints,
		BoostBurnPerSec: cfg.BoostBurnPerSec,
	}
}

// Join enqueues a join-room request and blocks until the worker
// processes it (at most one tick interval later). Returns spec.md §7's
// INVALID_NAME / JOIN_FAILED errors for malformed or rejected names.
func (r *Room) Join(socketID, name, skinID string, transport Transport) (ids.PlayerID, ids.WormID, error) {
	if !playerNameRe.MatchString(name) {
		return 0, 0, joinErr{code: protocol.ErrInvalidName, message: "player name must be 1-20 chars of [A-Za-z0-9 _-]"}
	}
	reply := make(chan joinResult, 1)
	select {
	case r.joinChan <- joinRequest{socketID: socketID, name: name, skinID: skinID, transport: transport, reply: reply}:
	case <-time.After(5 * time.Second):
		return 0, 0, joinErr{code: protocol.ErrJoinFailed, message: "room busy"}
	}
	res := <-reply
	return res.playerID, res.wormID, res.err
}

type joinErr struct {
	code, message string
}

func (e joinErr) Error() string { return e.message }

// Code returns the spec.md §7 error code for a Join failure.
func (e joinErr) Code() string { return e.code }

// RequestLeave asynchronously removes a player; safe to call from any
// context (typically the transport's read-pump goroutine on
// disconnect), mirroring the teacher's server/room.go RequestLeave.
func (r *Room) RequestLeave(playerID ids.PlayerID) {
	select {
	case r.leaveChan <- playerID:
	case <-time.After(time.Second):
	}
}

// OnInput enqueues a raw input event. Non-blocking: if the channel is
// full, the event is dropped to protect tick timing, per spec.md §5.
func (r *Room) OnInput(playerID ids.PlayerID, raw input.RawCommand) {
	select {
	case r.inputChan <- rawInputEvent{playerID: playerID, raw: raw}:
	default:
	}
}

// Start launches the worker goroutine. Safe to call once; subsequent
// calls are no-ops.
func (r *Room) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.run()
}

// Stop signals the worker goroutine to exit.
func (r *Room) Stop() {
	close(r.stopCh)
}

func (r *Room) run() {
	tickIntervalMs := int64(1000 / r.cfg.TickRate)
	bcastIntervalMs := int64(1000 / r.cfg.BroadcastRate)
	startMs := r.nowMs()

	tickSched := tick.NewScheduler(tickIntervalMs, startMs, 3)
	bcastSched := tick.NewScheduler(bcastIntervalMs, startMs, 3)

	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		now := r.nowMs()
		tickDue := tickSched.Due(now)
		for i := 0; i < tickDue; i++ {
			r.runOneTick(float64(tickIntervalMs) / 1000)
		}
		bcastDue := bcastSched.Due(now)
		for i := 0; i < bcastDue; i++ {
			r.runOneBroadcast()
		}

		sleepMs := r.sleepUntilNext(tickIntervalMs, bcastIntervalMs)
		select {
		case <-r.stopCh:
			return
		case <-time.After(time.Duration(sleepMs) * time.Millisecond):
		}
	}
}

func (r *Room) sleepUntilNext(tickIntervalMs, bcastIntervalMs int64) int64 {
	min := tickIntervalMs
	if bcastIntervalMs < min {
		min = bcastIntervalMs
	}
	sleep := min / 4
	if sleep < 1 {
		sleep = 1
	}
	return sleep
}

// runOneTick executes one full simulation step: drain inputs, physics,
// spatial rebuild, collision, food, score, per spec.md §4.8. A panic in
// any phase is recovered at the tick boundary, logged, and the tick is
// dropped — the next tick continues from whatever state survived
// (spec.md §7).
func (r *Room) runOneTick(dt float64) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("tick %d panicked: %v", r.world.CurrentTick, rec)
		}
		elapsed := time.Since(start)
		slow, critical := r.metrics.AddTick(elapsed.Nanoseconds(), r.cfg.SlowTickMs, int64(r.cfg.MaxConsecSlow))
		if critical {
			r.logger.Errorf("room %s: %d consecutive slow ticks (tick=%d, %.2fms)", r.ID, r.cfg.MaxConsecSlow, r.world.CurrentTick, float64(elapsed.Microseconds())/1000)
		} else if slow {
			r.logger.Warnf("room %s: slow tick %d took %.2fms", r.ID, r.world.CurrentTick, float64(elapsed.Microseconds())/1000)
		}
	}()

	now := r.nowMs()
	r.drainJoinsAndLeaves(now)
	r.drainInputs(now)

	wt := wormTunables(r.cfg)
	physics.Advance(r.world, dt, wt)

	r.rebuildWormGrid(wt)

	wwEvents := collision.ResolveWormWorm(r.world, r.grid, now, wt, r.cfg.SpawnGraceMs, r.cfg.SelfCollision)
	for _, ev := range wwEvents {
		score.AwardKill(r.world, ev.Killer, r.cfg.PointsPerKill)
		r.metrics.IncKills()
		if tr, ok := r.transports[r.world.Worms[ev.Victim].PlayerID]; ok {
			_ = tr.Send(r.world.Worms[ev.Victim].PlayerID, protocol.PlayerDiedMsg{PlayerID: uint64(r.world.Worms[ev.Victim].PlayerID)})
		}
	}
	wfEvents := collision.ResolveWormFood(r.world, r.grid, wt, r.cfg.PointsPerFood, r.cfg.FoodMaxRadius)
	r.metrics.AddFoodConsumed(int64(len(wfEvents)))

	r.syncPlayerAliveness()
	r.runFoodSubsystem(wt)

	r.leaderboard = score.TopN(r.world, r.cfg.LeaderboardSize)

	r.world.CurrentTick++
}

func (r *Room) drainJoinsAndLeaves(now int64) {
	for {
		select {
		case req := <-r.joinChan:
			r.handleJoin(req, now)
		case pid := <-r.leaveChan:
			r.handleLeave(pid)
		default:
			return
		}
	}
}

func (r *Room) handleJoin(req joinRequest, now int64) {
	playerID := r.allocatePlayerID()
	p := &world.Player{ID: playerID, SocketID: req.socketID, Name: req.name, IsAlive: true}
	r.world.AddPlayer(p)
	r.transports[playerID] = req.transport
	r.inputQueues[playerID] = input.NewQueue(playerID, r.cfg.InputBufferSize, r.cfg.MaxInputRate)

	wormID := r.spawnWorm(playerID, req.name, req.skinID, now)
	req.reply <- joinResult{playerID: playerID, wormID: wormID}

	r.broadcastToOthers(playerID, protocol.PlayerJoinedMsg{PlayerID: uint64(playerID), PlayerName: req.name, SnakeID: uint64(wormID)})
}

func (r *Room) handleLeave(playerID ids.PlayerID) {
	if p, ok := r.world.Players[playerID]; ok && p.HasWorm {
		if wm, ok := r.world.Worms[p.WormID]; ok {
			wm.Die()
		}
	}
	if tr, ok := r.transports[playerID]; ok {
		tr.Close(playerID)
	}
	delete(r.transports, playerID)
	delete(r.inputQueues, playerID)
	r.world.RemovePlayer(playerID)
	r.broadcaster.Forget(playerID)

	r.broadcastToOthers(playerID, protocol.PlayerLeftMsg{PlayerID: uint64(playerID), Reason: "disconnect"})
}

// broadcastToOthers sends msg to every connected transport except
// excludeID, ignoring individual send failures — mirroring the
// teacher's server/room.go Broadcast, which never lets one slow client
// hold up delivery to the rest.
func (r *Room) broadcastToOthers(excludeID ids.PlayerID, msg protocol.Message) {
	for playerID, tr := range r.transports {
		if playerID == excludeID {
			continue
		}
		_ = tr.Send(playerID, msg)
	}
}

// allocatePlayerID mints the next player ID. Only ever called from the
// Room's own worker goroutine, so the plain increment on r.nextPlayerID
// needs no synchronization.
func (r *Room) allocatePlayerID() ids.PlayerID {
	r.nextPlayerID++
	return r.nextPlayerID
}

func (r *Room) spawnWorm(playerID ids.PlayerID, name, skinID string, now int64) ids.WormID {
	center := r.world.Center()
	diskR := r.world.RMap - 500
	if diskR < 0 {
		diskR = r.world.RMap
	}
	origin := findSafeSpawn(r.world, center, diskR, 150, r.randFn)
	dir := r.randFn() * 2 * 3.141592653589793

	wormID := r.world.NextWormID()
	color := defaultColor(int(wormID))
	wt := wormTunables(r.cfg)
	wm := worm.New(wormID, playerID, name, origin, dir, color, skinID, r.cfg.InitLen, r.cfg.BaseSpeed, now, wt)
	r.world.AddWorm(wm)

	p := r.world.Players[playerID]
	p.WormID = wormID
	p.HasWorm = true
	p.IsAlive = true
	return wormID
}

func findSafeSpawn(w *world.World, center geomath.Point, diskR, rejectR float64, randFn func() float64) geomath.Point {
	for attempt := 0; attempt < 10; attempt++ {
		pos := geomath.RandomPointInDisk(center.X, center.Y, diskR, randFn)
		safe := true
		for _, wm := range w.Worms {
			if !wm.IsAlive {
				continue
			}
			if geomath.Dist(pos, wm.Head) < rejectR {
				safe = false
				break
			}
		}
		if safe {
			return pos
		}
	}
	return geomath.RandomPointInDisk(center.X, center.Y, diskR, randFn)
}

var playerColors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#e67e22", "#e91e63", "#00bcd4", "#8bc34a",
}

func defaultColor(seed int) string {
	return playerColors[seed%len(playerColors)]
}

func (r *Room) drainInputs(now int64) {
	for {
		select {
		case ev := <-r.inputChan:
			q, ok := r.inputQueues[ev.playerID]
			if !ok {
				continue
			}
			reason := q.Offer(ev.raw, now, r.cfg.TSkewMs)
			if reason == input.RejectNone {
				r.metrics.IncAccepted()
			} else if reason == input.RejectRateLimited {
				r.metrics.IncRateLimited()
			} else {
				r.metrics.IncRejected()
			}
		default:
			r.applyQueuedCommands(now)
			return
		}
	}
}

func (r *Room) applyQueuedCommands(now int64) {
	for playerID, q := range r.inputQueues {
		p, ok := r.world.Players[playerID]
		if !ok {
			continue
		}
		for _, cmd := range q.Drain() {
			p.LastInputTime = now
			switch cmd.Kind {
			case input.KindDirectionChange:
				if p.HasWorm {
					if wm, ok := r.world.Worms[p.WormID]; ok && wm.IsAlive {
						wm.SetTargetDirection(cmd.Direction)
					}
				}
			case input.KindBoost:
				if p.HasWorm {
					if wm, ok := r.world.Worms[p.WormID]; ok && wm.IsAlive {
						wm.SetBoosting(cmd.IsBoosting, wormTunables(r.cfg))
					}
				}
			case input.KindSpawn:
				if !p.HasWorm {
					r.spawnWorm(playerID, firstNonEmpty(cmd.PlayerName, p.Name), cmd.SkinID, now)
				}
			}
		}
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// syncPlayerAliveness clears HasWorm for any player whose worm died
// this tick (boundary death or collision). The worm itself stays in
// world.Worms until this tick's food phase, so the Food subsystem can
// still read its segments for loot conversion, but Player.HasWorm/IsAlive must
// flip immediately so input handling (KindSpawn) never dereferences a
// dying or already-removed worm by ID.
func (r *Room) syncPlayerAliveness() {
	for _, p := range r.world.Players {
		if !p.HasWorm {
			continue
		}
		wm, ok := r.world.Worms[p.WormID]
		if !ok || !wm.IsAlive {
			p.HasWorm = false
			p.IsAlive = false
		}
	}
}

func (r *Room) rebuildWormGrid(wt worm.Tunables) {
	r.grid.ClearWorms()
	for _, wm := range r.world.Worms {
		if !wm.IsAlive {
			continue
		}
		for _, seg := range wm.Segments(wt) {
			r.grid.InsertWormPoint(uint64(wm.ID), seg.Point.X, seg.Point.Y)
		}
	}
}

func (r *Room) runFoodSubsystem(wt worm.Tunables) {
	ft := foodsys.Tunables{
		FoodMinRadius: r.cfg.FoodMinRadius, FoodMaxRadius: r.cfg.FoodMaxRadius,
		RMagnet: r.cfg.RMagnet, MagnetVMin: r.cfg.MagnetVMin, MagnetVMax: r.cfg.MagnetVMax,
		FoodTarget: r.cfg.FoodTarget, RespawnPerTick: r.cfg.RespawnPerTick, SpawnRejectR: 100,
	}

	for _, f := range r.world.Food {
		if f.Tier == food.TierMoving {
			f.StepMoving(r.world.Center().X, r.world.Center().Y, r.world.RMap, r.randFn, 60, 120)
		}
	}
	r.maybeSpawnMovingFood()

	foodsys.ProcessDeaths(r.world, r.grid,
		func(id ids.WormID) []geomath.Point {
			segs := r.world.Worms[id].Segments(wt)
			pts := make([]geomath.Point, len(segs))
			for i, s := range segs {
				pts[i] = s.Point
			}
			return pts
		},
		func(id ids.WormID) float64 { return r.world.Worms[id].Length },
		r.randFn,
	)

	foodsys.ApplyMagnet(r.world, r.grid, ft, 1.0/float64(r.cfg.TickRate), func(id ids.WormID) geomath.Point {
		return r.world.Worms[id].Head
	})

	before := len(r.world.Food)
	foodsys.Respawn(r.world, r.grid, ft, r.randFn)
	r.metrics.AddFoodRespawned(int64(len(r.world.Food) - before))
}

func (r *Room) maybeSpawnMovingFood() {
	r.movingFoodTicker++
	if r.movingFoodTicker%int64(r.cfg.MovingFoodPeriod) != 0 {
		return
	}
	count := 0
	for _, f := range r.world.Food {
		if f.Tier == food.TierMoving {
			count++
		}
	}
	if count >= r.cfg.MovingFoodMax {
		return
	}
	pos := geomath.RandomPointInDisk(r.world.Center().X, r.world.Center().Y, r.world.RMap-200, r.randFn)
	angle := r.randFn() * 2 * 3.141592653589793
	fid := r.world.NextFoodID()
	f := food.NewMoving(fid, pos, 10, r.cfg.FoodMaxRadius, r.cfg.MovingFoodSpeed, food.ColorFor(food.TierMoving, r.randFn), angle, 60+int(r.randFn()*60))
	r.world.AddFood(f)
	r.grid.AddFood(uint64(fid), pos.X, pos.Y)
}

// runOneBroadcast computes and sends each connected player's next
// outbound message (full snapshot or delta), per spec.md §4.10. A
// transport failure on one client never blocks or affects others.
func (r *Room) runOneBroadcast() {
	for playerID := range r.transports {
		var playerWorm *worm.Worm
		if p, ok := r.world.Players[playerID]; ok && p.HasWorm {
			playerWorm = r.world.Worms[p.WormID]
		}
		msg := broadcast.BuildFor(r.world, r.grid, r.broadcaster, playerID, playerWorm, r.leaderboard)
		if tr, ok := r.transports[playerID]; ok {
			if err := tr.Send(playerID, msg); err != nil {
				r.logger.Warnf("broadcast send failed for player %d: %v", playerID, err)
			}
		}
	}
}

// Snapshot returns a small status summary for the admin/metrics HTTP
// surface.
func (r *Room) Snapshot() map[string]any {
	return map[string]any{
		"room":          r.ID,
		"tick":          r.world.CurrentTick,
		"players":       len(r.world.Players),
		"worms":         len(r.world.Worms),
		"food":          len(r.world.Food),
		"self_collision": r.cfg.SelfCollision,
		"metrics":       r.metrics.Snapshot(),
	}
}

// Config returns a copy of the room's current tunables, for the admin
// GET endpoint.
func (r *Room) Config() config.Tunables { return r.cfg }

// PatchConfig applies a hot-patchable subset of tunables (food density,
// input rate, self-collision), per spec.md §6.
func (r *Room) PatchConfig(f func(*config.Tunables)) {
	f(&r.cfg)
}
