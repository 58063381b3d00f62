package systems

import (
	"sync"
	"testing"

	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
	"mobacore/internal/skill"
	"mobacore/internal/worldstatic"
)

// testSink is a minimal ecs.Sink that records every pushed outcome in
// order, draining on demand. Good enough for a single-goroutine test tick
// loop; production wiring uses outcome.Queue for its per-worker shards.
type testSink struct {
	mu    sync.Mutex
	items []outcome.Outcome
}

func (s *testSink) Push(worker int, o any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if oc, ok := o.(outcome.Outcome); ok {
		s.items = append(s.items, oc)
	}
}

func (s *testSink) drain() []outcome.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.items
	s.items = nil
	return out
}

// bruteIndex is a brute-force stand-in for the real spatial index: every
// living entity within r of (cx, cy), no broad phase. Fine at the entity
// counts these scenario tests construct.
type bruteIndex struct{ w *ecs.World }

func (b bruteIndex) EntitiesInRadius(cx, cy, r float64) []ecs.Entity {
	var out []ecs.Entity
	r2 := r * r
	b.w.Each(func(e ecs.Entity) {
		p := b.w.Position(e)
		dx, dy := p.X-cx, p.Y-cy
		if dx*dx+dy*dy <= r2 {
			out = append(out, e)
		}
	})
	return out
}

// TestTowerKillsCreep is the literal end-to-end scenario: a tower at the
// origin (Attack{Damage:3, Range:300, CadencePerSecond:0.5}) against a
// stationary creep at (200,0) with 6 hp and no armor. At cadence 0.5/s and
// dt=0.1s the attack fires the instant cooldown residue reaches zero: tick
// 1 (residue starts at its zero value, already <=0) and again at tick 21
// (2.0s of decrement later), which is lethal.
func TestTowerKillsCreep(t *testing.T) {
	w := ecs.NewWorld(8)
	tower := w.Spawn(ecs.Position{X: 0, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionRadiant},
		ecs.CombatStats{HP: 1000, MaxHP: 1000}, ecs.Attack{Damage: 3, Range: 300, CadencePerSecond: 0.5})
	w.SetTower(tower, &ecs.Tower{})

	creep := w.Spawn(ecs.Position{X: 200, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire},
		ecs.CombatStats{HP: 6, MaxHP: 6, Armor: 0}, ecs.Attack{})

	raw := NewDamageSubQueue()
	towerSys := NewTower(bruteIndex{w}, raw)
	damageSys := NewDamage(raw)
	proc := outcome.NewProcessor(nil)
	sink := &testSink{}

	var diedAtTick int
	for tick := 1; tick <= 22; tick++ {
		ctx := &ecs.TickContext{World: w, Sink: sink, Worker: 0, DT: 0.1}
		towerSys.Run(ctx)
		damageSys.Run(ctx)
		events := proc.Drain(w, sink.drain())

		switch tick {
		case 1:
			if stats := w.CombatStats(creep); stats.HP != 3 {
				t.Fatalf("tick 1: expected creep hp 3 after first hit, got %v", stats.HP)
			}
		case 21:
			sawDeath := false
			for _, ev := range events {
				if ev.Kind == outcome.EventDied {
					sawDeath = true
				}
			}
			if !sawDeath {
				t.Fatalf("tick 21: expected the second tower hit to kill the creep, events=%+v", events)
			}
			diedAtTick = tick
		}
	}
	if diedAtTick != 21 {
		t.Fatalf("expected the creep to die on tick 21, died on %d", diedAtTick)
	}
	if w.Alive(creep) {
		t.Fatalf("expected the creep to be despawned by tick 22")
	}
}

// TestCreepWalksPathAndHitsBase walks a creep down a two-waypoint lane at
// MoveSpeed=100 (10 units per tick at dt=0.1): it must land exactly on
// each waypoint rather than oscillate past it, deliver the terminal hit to
// the lane's base exactly once, and request its own despawn.
func TestCreepWalksPathAndHitsBase(t *testing.T) {
	w := ecs.NewWorld(8)
	base := w.Spawn(ecs.Position{X: 100, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionRadiant},
		ecs.CombatStats{HP: 50, MaxHP: 50}, ecs.Attack{})

	static := worldstatic.New()
	static.SetPath(worldstatic.Path{
		ID:             "lane",
		Waypoints:      []ecs.Position{{X: 50, Y: 0}, {X: 100, Y: 0}},
		TerminalEntity: base,
	})

	creep := w.Spawn(ecs.Position{X: 0, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire},
		ecs.CombatStats{HP: 10, MaxHP: 10}, ecs.Attack{})
	w.SetCreep(creep, &ecs.Creep{PathID: "lane", MoveSpeed: 100, Bounty: 7})

	raw := NewDamageSubQueue()
	creepSys := NewCreep(bruteIndex{w}, static, raw, nil)
	proc := outcome.NewProcessor(nil)
	sink := &testSink{}

	var terminalHits int
	for tick := 1; tick <= 15; tick++ {
		ctx := &ecs.TickContext{World: w, Sink: sink, Worker: 0, DT: 0.1}
		creepSys.Run(ctx)
		for _, rd := range raw.DrainAll() {
			if rd.Target == base {
				terminalHits++
			}
		}
		proc.Drain(w, sink.drain())

		switch tick {
		case 5:
			if pos := w.Position(creep); pos.X != 50 || pos.Y != 0 {
				t.Fatalf("tick 5: expected the creep exactly on waypoint 0, got %+v", pos)
			}
		case 10:
			if pos := w.Position(creep); pos.X != 100 || pos.Y != 0 {
				t.Fatalf("tick 10: expected the creep exactly on the terminal waypoint, got %+v", pos)
			}
		}
	}

	if terminalHits != 1 {
		t.Fatalf("expected exactly one terminal hit on the base, got %d", terminalHits)
	}
	if w.Alive(creep) {
		t.Fatalf("expected the creep to be despawned after reaching the base")
	}
}

// TestCreepStopPinsCreepForDuration: a CreepStop outcome must hold the
// creep in place for its full duration, not just the tick it was applied
// on, even though the creep re-derives velocity from its path every tick.
func TestCreepStopPinsCreepForDuration(t *testing.T) {
	w := ecs.NewWorld(8)
	static := worldstatic.New()
	static.SetPath(worldstatic.Path{
		ID:        "lane",
		Waypoints: []ecs.Position{{X: 1000, Y: 0}},
	})
	creep := w.Spawn(ecs.Position{X: 0, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire},
		ecs.CombatStats{HP: 10, MaxHP: 10}, ecs.Attack{})
	w.SetCreep(creep, &ecs.Creep{PathID: "lane", MoveSpeed: 100})

	raw := NewDamageSubQueue()
	creepSys := NewCreep(bruteIndex{w}, static, raw, nil)
	buffSys := NewBuff()
	proc := outcome.NewProcessor(nil)
	sink := &testSink{}

	proc.Drain(w, []outcome.Outcome{outcome.CreepStop{Target: creep, Duration: 0.5}})

	for tick := 1; tick <= 5; tick++ {
		ctx := &ecs.TickContext{World: w, Sink: sink, Worker: 0, DT: 0.1}
		creepSys.Run(ctx)
		buffSys.Run(ctx)
		if pos := w.Position(creep); pos.X != 0 {
			t.Fatalf("tick %d: expected the stopped creep to hold position, got %+v", tick, pos)
		}
	}

	ctx := &ecs.TickContext{World: w, Sink: sink, Worker: 0, DT: 0.1}
	creepSys.Run(ctx)
	if pos := w.Position(creep); pos.X != 10 {
		t.Fatalf("expected the creep to resume moving once the stop expired, got %+v", pos)
	}
}

// TestWaveSpawnerEmitsAtScheduledTimes exercises the accumulator in
// WaveSpawner.Run directly: two scheduled spawns at 1.0s and 2.5s, walked
// tick-by-tick at dt=0.1s. Float64 accumulation of 0.1 ten times over
// lands just under 1.0, so the first spawn actually fires a tick later
// than a naive ceil(1.0/0.1) would suggest, asserted here rather than
// assumed.
func TestWaveSpawnerEmitsAtScheduledTimes(t *testing.T) {
	world := worldstatic.New()
	world.SetPath(worldstatic.Path{
		ID:        "lane1",
		Waypoints: []ecs.Position{{X: 0, Y: 0}, {X: 100, Y: 0}},
		Faction:   ecs.FactionDire,
	})
	world.SetWaves([]worldstatic.Wave{
		{StartTimeSeconds: 0, Spawns: []worldstatic.WaveSpawn{
			{TimeSeconds: 1.0, ArchetypeID: "creep_basic", PathID: "lane1"},
			{TimeSeconds: 2.5, ArchetypeID: "creep_basic", PathID: "lane1"},
		}},
	})

	spawner := NewWaveSpawner(world)
	sink := &testSink{}

	var spawnTicks []int
	for tick := 1; tick <= 30; tick++ {
		ctx := &ecs.TickContext{Sink: sink, Worker: 0, DT: 0.1}
		spawner.Run(ctx)
		for range sink.drain() {
			spawnTicks = append(spawnTicks, tick)
		}
	}

	if len(spawnTicks) != 2 {
		t.Fatalf("expected exactly 2 spawns over 30 ticks, got %v", spawnTicks)
	}
	if spawnTicks[0] != 11 || spawnTicks[1] != 25 {
		t.Fatalf("unexpected spawn tick numbers: %v", spawnTicks)
	}
	if !spawner.Done() {
		t.Fatalf("expected the spawner to report done once its schedule is exhausted")
	}
}

// scriptedRoller replays a fixed sequence of draws, standing in for a real
// rng.Stream in the passive-proc scenario below.
type scriptedRoller struct {
	rolls []float64
	i     int
}

func (s *scriptedRoller) Float64() float64 {
	v := s.rolls[s.i]
	s.i++
	return v
}

// TestPassiveProcMultiplierSequence is the rain-of-projectiles passive
// scenario: a 0.45 proc chance rolled against {0.2, 0.6, 0.1} must proc,
// miss, proc, applying 1+bonus_vs_creeps as the final damage multiplier
// (bonus_vs_creeps is additive: 1.0 means "+100%").
func TestPassiveProcMultiplierSequence(t *testing.T) {
	reg, err := skill.NewRegistry([]skill.Ability{
		{
			ID: "rain_iron_cannon", Behavior: skill.Passive, TargetKind: skill.TargetPassive, MaxLevel: 1,
			PerLevel: []skill.LevelConfig{
				{Properties: map[string]float64{"proc_chance": 0.45, "bonus_vs_creeps": 1.0}},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	w := ecs.NewWorld(4)
	attacker := w.Spawn(ecs.Position{}, ecs.Velocity{}, ecs.Faction{}, ecs.CombatStats{}, ecs.Attack{})
	w.SetAbilityBook(attacker, &ecs.AbilityBook{Slots: map[string]string{"P": "rain_iron_cannon"}})
	slot := w.Spawn(ecs.Position{}, ecs.Velocity{}, ecs.Faction{}, ecs.CombatStats{}, ecs.Attack{})
	w.SetSkill(slot, &ecs.Skill{AbilityID: "rain_iron_cannon", Level: 1, Owner: attacker})

	creepTarget := w.Spawn(ecs.Position{}, ecs.Velocity{}, ecs.Faction{}, ecs.CombatStats{}, ecs.Attack{})
	w.SetCreep(creepTarget, &ecs.Creep{})

	proc := &PassiveProc{Registry: reg, Roll: &scriptedRoller{rolls: []float64{0.2, 0.6, 0.1}}}

	want := []float64{2.0, 1, 2.0}
	for i, expect := range want {
		got := resolveMultiplier(w, proc, attacker, creepTarget)
		if got != expect {
			t.Fatalf("roll %d: expected multiplier %v, got %v", i, expect, got)
		}
	}
}

// TestPickTargetTieBreakOrder covers the shared targeting tie-break:
// lowest hp, then
// closest, then lowest entity index.
func TestPickTargetTieBreakOrder(t *testing.T) {
	w := ecs.NewWorld(8)
	from := w.Spawn(ecs.Position{X: 0, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionRadiant}, ecs.CombatStats{}, ecs.Attack{})

	lowHP := w.Spawn(ecs.Position{X: 500, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire}, ecs.CombatStats{HP: 1, MaxHP: 10}, ecs.Attack{})
	closer := w.Spawn(ecs.Position{X: 10, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire}, ecs.CombatStats{HP: 10, MaxHP: 10}, ecs.Attack{})
	farther := w.Spawn(ecs.Position{X: 100, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire}, ecs.CombatStats{HP: 10, MaxHP: 10}, ecs.Attack{})

	got, ok := pickTarget(w, from, []ecs.Entity{farther, closer, lowHP})
	if !ok {
		t.Fatalf("expected a target")
	}
	if got != lowHP {
		t.Fatalf("expected lowest-hp candidate to win regardless of distance, got %+v", got)
	}

	got, ok = pickTarget(w, from, []ecs.Entity{farther, closer})
	if !ok || got != closer {
		t.Fatalf("expected the closer of two equal-hp candidates to win, got %+v", got)
	}
}

// TestHostileCandidatesExcludesDeadAndSameFaction is the filtering half of
// targeting: same-faction, death-marked and non-combatant (MaxHP 0,
// e.g. an in-flight projectile) entities never qualify, and neither does
// anything out of range.
func TestHostileCandidatesExcludesDeadAndSameFaction(t *testing.T) {
	w := ecs.NewWorld(8)
	from := w.Spawn(ecs.Position{X: 0, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionRadiant}, ecs.CombatStats{}, ecs.Attack{})

	stats := ecs.CombatStats{HP: 10, MaxHP: 10}
	ally := w.Spawn(ecs.Position{X: 50, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionRadiant}, stats, ecs.Attack{})
	dead := w.Spawn(ecs.Position{X: 50, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire}, stats, ecs.Attack{})
	w.SetDeathMark(dead, &ecs.DeathMark{})
	outOfRange := w.Spawn(ecs.Position{X: 9000, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire}, stats, ecs.Attack{})
	noBody := w.Spawn(ecs.Position{X: 50, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire}, ecs.CombatStats{}, ecs.Attack{})
	valid := w.Spawn(ecs.Position{X: 50, Y: 0}, ecs.Velocity{}, ecs.Faction{ID: ecs.FactionDire}, stats, ecs.Attack{})

	got := hostileCandidatesInRange(w, from, []ecs.Entity{ally, dead, outOfRange, noBody, valid}, 300)
	if len(got) != 1 || got[0] != valid {
		t.Fatalf("expected exactly the valid hostile candidate, got %+v", got)
	}
}
