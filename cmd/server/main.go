// Command server boots the simulation core: loads the static asset bundle,
// wires the ECS scheduler and outcome pipeline, opens the broker transport,
// serves the admin HTTP/WebSocket surface, and advances the world at a
// fixed tick rate until interrupted.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"mobacore/internal/adminapi"
	"mobacore/internal/assets"
	"mobacore/internal/broker"
	"mobacore/internal/config"
	"mobacore/internal/ecs"
	"mobacore/internal/egress"
	"mobacore/internal/ingress"
	"mobacore/internal/obslog"
	"mobacore/internal/outcome"
	"mobacore/internal/rng"
	"mobacore/internal/skill"
	"mobacore/internal/spatial"
	"mobacore/internal/systems"
	"mobacore/internal/worldstatic"
)

const (
	eventSubjectBase       = "mobacore.events"
	commandSubject         = "mobacore.commands"
	commandBufferPerPlayer = 8
	spatialCellSize        = 100.0
	flowFieldCellSize      = 50.0
	visionCacheSize        = 4096
	baseMoveSpeed          = 300.0
	unixSocketPath         = "/tmp/mobacore.sock"
)

func main() {
	configPath := flag.String("config", "config/server.toml", "path to server.toml")
	seed := flag.Uint64("seed", 1, "world RNG seed, for deterministic replay")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		obslog.Fatalf("config: %v", err)
	}
	obslog.Infof("mobacore: starting (tick=%dhz, max_players=%d, seed=%d)", cfg.TickRateHz, cfg.MaxPlayers, *seed)

	bundle, err := assets.Load(config.DefaultAssetPaths(cfg.MapFile))
	if err != nil {
		obslog.Fatalf("assets: %v", err)
	}

	capacity := entityCapacity(cfg)
	world := ecs.NewWorld(capacity)
	rngRoot := rng.NewRoot(*seed)

	worldW, worldH := worldBounds(bundle.World)
	spatialIndex := spatial.NewIndex(worldW, worldH, spatialCellSize, capacity)
	areaQuery := systems.NewSpatialQuery(world, spatialIndex)
	flowSteering := systems.NewFlowSteering(worldW, worldH, flowFieldCellSize, bundle.World.Obstacles())

	playerIndex := systems.NewPlayerIndex()
	visionStore := systems.NewVisionStore()
	visionEngine := systems.NewVisionEngine(bundle.World, visionCacheSize)

	bus, closeBus := dialBroker(cfg)
	defer closeBus()

	egressAdapter := egress.NewAdapter(bus, playerIndex, visionStore, world, eventSubjectBase)
	rejectionNotifier := egress.NewRejectionNotifier(bus, playerIndex, eventSubjectBase)
	eventHub := adminapi.NewEventHub()
	go eventHub.Run()

	cmdQueue := ingress.NewCommandQueue(cfg.MaxPlayers * commandBufferPerPlayer)
	if err := bus.Subscribe(commandSubject, func(payload []byte) {
		cmd, err := ingress.ParseCommand(payload)
		if err != nil {
			obslog.Warnf("ingress: %v", err)
			return
		}
		cmdQueue.Enqueue(cmd)
	}); err != nil {
		obslog.Fatalf("broker: subscribing to %s: %v", commandSubject, err)
	}

	raw := systems.NewDamageSubQueue()
	requests := skill.NewRequestQueue()
	proc := &systems.PassiveProc{Registry: bundle.Abilities, Roll: rngRoot.Stream("hero.attack")}

	wave := systems.NewWaveSpawner(bundle.World)
	player := systems.NewPlayer(cmdQueue, playerIndex, requests, baseMoveSpeed)
	skillSys := systems.NewSkill(bundle.Engine, requests, rejectionNotifier, areaQuery, raw)
	hero := systems.NewHero(areaQuery, raw, proc)
	creep := systems.NewCreep(areaQuery, bundle.World, raw, flowSteering)
	tower := systems.NewTower(areaQuery, raw)
	projectile := systems.NewProjectile(raw)
	damage := systems.NewDamage(raw)
	death := systems.NewDeath()
	nearby := systems.NewNearby(spatialIndex)
	visionSys := systems.NewVision(visionEngine, visionStore)
	buff := systems.NewBuff()

	// Stages follow the tick's write dependencies: player resolves intent
	// before skills cast, casts commit before the attacker systems run (all
	// three write Attack, so each needs its own stage regardless), movement
	// and damage sources settle before projectiles integrate, and the final
	// stage groups every system whose Write set doesn't overlap the others'
	// reads (damage/death/nearby/vision declare no writes, and buff writes
	// only Modifier, which none of them read).
	scheduler := ecs.NewScheduler([][]ecs.System{
		{wave},
		{player},
		{skillSys},
		{hero},
		{creep},
		{tower},
		{projectile},
		{damage, death, nearby, visionSys, buff},
	})

	outcomeQueue := outcome.NewQueue(scheduler.WorkerCount())
	processor := outcome.NewProcessor(bundle.Archetypes)

	spawnTowerSites(world, bundle.World, processor)

	leaderboard := adminapi.NewLeaderboard()
	stats := newStatsTracker()

	router := adminapi.NewRouter(adminapi.RouterConfig{
		Simulation:  stats,
		Leaderboard: leaderboard,
		EventHub:    eventHub,
	})
	go func() {
		addr := fmt.Sprintf(":%d", cfg.AdminPort)
		obslog.Infof("adminapi: listening on %s", addr)
		if err := http.ListenAndServe(addr, router); err != nil {
			obslog.Errorf("adminapi: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	dt := cfg.TickInterval().Seconds()
	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	var pending []pendingRespawn
	var tickNumber uint64

	obslog.Infof("mobacore: tick loop started, dt=%.4fs", dt)
	for {
		select {
		case <-ticker.C:
			tickStart := time.Now()
			scheduler.RunTick(world, outcomeQueue, dt)

			merged := outcomeQueue.Merge()
			var ready []pendingRespawn
			ready, pending = popReadyRespawns(pending)
			for _, r := range ready {
				merged = append(merged, outcome.Spawn{
					ArchetypeID: r.ArchetypeID,
					Position:    r.Policy.Position,
					Faction:     ecs.Faction{ID: r.Faction},
					PlayerID:    r.PlayerID,
				})
			}

			events := processor.Drain(world, merged)
			pending = append(pending, handleEvents(events, playerIndex, leaderboard)...)
			for i := range pending {
				pending[i].Remaining -= dt
			}

			egressAdapter.Publish(events)
			rejectionNotifier.Flush()
			eventHub.Publish(events)

			tickNumber++
			stats.update(tickNumber, world, playerIndex, processor)
			obslog.RecordTick(time.Since(tickStart).Seconds())
			if time.Since(tickStart) > cfg.TickInterval() {
				obslog.RecordTickOverrun()
			}

		case <-quit:
			obslog.Infof("mobacore: shutting down")
			return
		}
	}
}

func entityCapacity(cfg config.ServerConfig) int {
	capacity := cfg.MaxPlayers * 64
	if capacity < 4096 {
		capacity = 4096
	}
	return capacity
}

// worldBounds derives the spatial index's grid extent from the static
// world's own geometry (obstacles, tower sites, waypoints) so a map's
// dimensions never need a matching code change here.
func worldBounds(w *worldstatic.World) (float64, float64) {
	maxX, maxY := 0.0, 0.0
	grow := func(x, y float64) {
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	for _, o := range w.Obstacles() {
		grow(o.X, o.Y)
	}
	for _, t := range w.TowerSites() {
		grow(t.X, t.Y)
	}
	for _, p := range w.Paths() {
		for _, wp := range p.Waypoints {
			grow(wp.X, wp.Y)
		}
	}
	if maxX == 0 {
		maxX = 10000
	}
	if maxY == 0 {
		maxY = 10000
	}
	return maxX * 1.2, maxY * 1.2
}

// dialBroker picks the transport per the broker host setting: an empty or
// "unix" broker_host means a single-host Unix-domain-socket deployment, any
// other value dials NATS at broker_host:broker_port with indefinite
// reconnect. UnixBus only dispatches inbound frames by exact subject match,
// so both backends share the single fixed commandSubject above rather than
// a NATS-style wildcard.
func dialBroker(cfg config.ServerConfig) (broker.Bus, func()) {
	if cfg.BrokerHost == "" || cfg.BrokerHost == "unix" {
		os.Remove(unixSocketPath)
		b, err := broker.ListenUnix(unixSocketPath)
		if err != nil {
			obslog.Fatalf("broker: listen unix %s: %v", unixSocketPath, err)
		}
		obslog.Infof("broker: unix socket at %s", unixSocketPath)
		return b, func() { b.Close() }
	}

	url := fmt.Sprintf("nats://%s:%d", cfg.BrokerHost, cfg.BrokerPort)
	reconnector := broker.NewReconnector(func() (broker.Bus, error) {
		return broker.DialNATS(url)
	}, 30*time.Second)
	stop := make(chan struct{})
	b, err := reconnector.Connect(stop)
	if err != nil {
		obslog.Fatalf("broker: dial %s: %v", url, err)
	}
	obslog.Infof("broker: connected to %s", url)
	return b, func() { close(stop); b.Close() }
}

// spawnTowerSites pushes one Spawn outcome per static tower site through
// the processor at bootstrap, the same path any tick's Spawn outcome
// takes, then patches each lane's TerminalEntity to the base its site
// archetype spawned, so a creep's final-waypoint attack target resolves
// without any bootstrap-only special casing in the creep system.
func spawnTowerSites(world *ecs.World, static *worldstatic.World, processor *outcome.Processor) {
	sites := static.TowerSites()
	initial := make([]outcome.Outcome, 0, len(sites))
	for _, s := range sites {
		initial = append(initial, outcome.Spawn{
			ArchetypeID: s.ID,
			Position:    ecs.Position{X: s.X, Y: s.Y},
			Faction:     ecs.Faction{ID: s.Faction},
		})
	}
	events := processor.Drain(world, initial)

	bySite := make(map[string]ecs.Entity, len(events))
	for _, ev := range events {
		if ev.Kind != outcome.EventSpawned {
			continue
		}
		if archetypeID, ok := ev.Data["archetype"].(string); ok {
			bySite[archetypeID] = ev.Entity
		}
	}

	for _, p := range static.Paths() {
		if p.TerminalSiteID == "" {
			continue
		}
		entity, ok := bySite[p.TerminalSiteID]
		if !ok {
			obslog.Warnf("bootstrap: path %q references unspawned terminal site %q", p.ID, p.TerminalSiteID)
			continue
		}
		p.TerminalEntity = entity
		static.SetPath(p)
	}
}

// pendingRespawn tracks a dead hero's scheduled return, captured off the
// enriched EventDied payload at the moment it's drained since the hero's
// own components are gone by the time the cascaded Despawn completes.
type pendingRespawn struct {
	PlayerID    string
	ArchetypeID string
	Faction     ecs.FactionID
	Remaining   float64
	Policy      ecs.RespawnPolicy
}

func popReadyRespawns(pending []pendingRespawn) (ready, remaining []pendingRespawn) {
	for _, r := range pending {
		if r.Remaining <= 0 {
			ready = append(ready, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	return ready, remaining
}

// handleEvents folds a tick's drained events into player-index and
// leaderboard bookkeeping, and returns any newly scheduled hero respawns.
// A spawn carrying a non-empty player_id covers both an initial join and a
// post-death respawn uniformly, since applySpawn stamps it on every Spawn
// outcome that set PlayerID.
func handleEvents(events []outcome.Event, players *systems.PlayerIndex, lb *adminapi.Leaderboard) []pendingRespawn {
	var scheduled []pendingRespawn
	for _, ev := range events {
		switch ev.Kind {
		case outcome.EventSpawned:
			if pid, ok := ev.Data["player_id"].(string); ok && pid != "" {
				players.Set(pid, ev.Entity)
			}

		case outcome.EventDied:
			if victimID, ok := players.PlayerID(ev.Entity); ok {
				lb.RecordDeath(victimID)
				players.Remove(victimID)
				archetypeID, hasArchetype := ev.Data["archetype"].(string)
				respawn, hasRespawn := ev.Data["respawn"].(ecs.RespawnPolicy)
				if hasArchetype && hasRespawn {
					faction, _ := ev.Data["faction"].(ecs.FactionID)
					scheduled = append(scheduled, pendingRespawn{
						PlayerID:    victimID,
						ArchetypeID: archetypeID,
						Faction:     faction,
						Remaining:   respawn.DelaySeconds,
						Policy:      respawn,
					})
				}
			}
			if killer, ok := ev.Data["killer"].(ecs.Entity); ok && !killer.IsNil() {
				if killerID, ok := players.PlayerID(killer); ok {
					lb.RecordKill(killerID)
				}
			}
		}
	}
	return scheduled
}

// statsTracker implements adminapi.SimulationInterface: a snapshot taken
// once per tick from the tick goroutine and read concurrently by the
// admin HTTP handlers, so those handlers never touch the live ecs.World.
type statsTracker struct {
	mu      sync.RWMutex
	stats   adminapi.Stats
	players []adminapi.PlayerSummary
}

func newStatsTracker() *statsTracker { return &statsTracker{} }

func (t *statsTracker) Stats() adminapi.Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

func (t *statsTracker) Players() []adminapi.PlayerSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.players
}

func (t *statsTracker) update(tick uint64, w *ecs.World, players *systems.PlayerIndex, proc *outcome.Processor) {
	var entityCount, heroCount, creepCount, towerCount int
	w.Each(func(e ecs.Entity) {
		entityCount++
		if _, ok := w.Hero(e); ok {
			heroCount++
		}
		if _, ok := w.Creep(e); ok {
			creepCount++
		}
		if _, ok := w.Tower(e); ok {
			towerCount++
		}
	})

	snapshot := players.Snapshot()
	summaries := make([]adminapi.PlayerSummary, 0, len(snapshot))
	for playerID, e := range snapshot {
		summary := adminapi.PlayerSummary{PlayerID: playerID}
		if w.Alive(e) {
			stats := w.CombatStats(e)
			pos := w.Position(e)
			summary.Alive = true
			summary.HP = stats.HP
			summary.MaxHP = stats.MaxHP
			summary.X = pos.X
			summary.Y = pos.Y
			if hero, ok := w.Hero(e); ok {
				summary.Level = hero.Level
			}
		}
		summaries = append(summaries, summary)
	}

	t.mu.Lock()
	t.stats = adminapi.Stats{
		TickNumber:       tick,
		EntityCount:      entityCount,
		HeroCount:        heroCount,
		CreepCount:       creepCount,
		TowerCount:       towerCount,
		CascadeOverflows: proc.CascadeOverflows,
	}
	t.players = summaries
	t.mu.Unlock()

	obslog.SetEntityCount(entityCount)
}
