package systems

import (
	"sort"

	"mobacore/internal/ecs"
	"mobacore/internal/outcome"
	"mobacore/internal/worldstatic"
)

// WaveSpawner emits a Spawn outcome for each scheduled creep once the
// running clock passes its wave time. It touches no ecs components (its
// only state is its own spawn cursor) so it carries an empty Access and
// can run in any stage.
//
// The flat, time-sorted spawn list is precomputed once at construction;
// each tick only walks the cursor forward.
type WaveSpawner struct {
	World   *worldstatic.World
	spawns  []worldstatic.WaveSpawn // flattened across waves, ascending by time
	next    int
	elapsed float64
}

func NewWaveSpawner(world *worldstatic.World) *WaveSpawner {
	var flat []worldstatic.WaveSpawn
	for _, w := range world.Waves() {
		flat = append(flat, w.Spawns...)
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].TimeSeconds < flat[j].TimeSeconds })
	return &WaveSpawner{World: world, spawns: flat}
}

func (w *WaveSpawner) Name() string { return "wave" }

func (w *WaveSpawner) Access() ecs.Access { return ecs.Access{} }

func (w *WaveSpawner) Run(ctx *ecs.TickContext) {
	w.elapsed += ctx.DT
	for w.next < len(w.spawns) && w.spawns[w.next].TimeSeconds <= w.elapsed {
		s := w.spawns[w.next]
		w.next++

		path, ok := w.World.Path(s.PathID)
		if !ok || len(path.Waypoints) == 0 {
			continue
		}
		ctx.Sink.Push(ctx.Worker, outcome.Spawn{
			ArchetypeID: s.ArchetypeID,
			Position:    path.Waypoints[0],
			Faction:     ecs.Faction{ID: path.Faction},
			PathID:      s.PathID,
		})
	}
}

// Done reports whether every scheduled wave has been spawned.
func (w *WaveSpawner) Done() bool { return w.next >= len(w.spawns) }
