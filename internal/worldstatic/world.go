// Package worldstatic holds the immutable-after-load world resource: map
// waypoints, paths, obstacle polygons, tower sites, and the creep spawn
// schedule. It is populated once by internal/assets at bootstrap and read
// concurrently by every system thereafter; after bootstrap the loader's
// setters are not called again (SetObstacles bumps the world epoch).
package worldstatic

import "mobacore/internal/ecs"

// CheckpointClass is the closed checkpoint class enum of the map file
// (`Start`, `CheckPoint`, `End`).
type CheckpointClass int

const (
	ClassStart CheckpointClass = iota
	ClassCheckPoint
	ClassEnd
)

type Checkpoint struct {
	Name  string
	Class CheckpointClass
	X, Y  float64
}

// Path is an ordered sequence of world points creeps follow from Start to
// End.
type Path struct {
	ID             string
	Waypoints      []ecs.Position
	TerminalSiteID string        // the TowerSite spawned as this lane's base
	TerminalEntity ecs.Entity    // patched in by bootstrap once that site is spawned
	Faction        ecs.FactionID // the side whose creeps walk this lane
}

// WaveSpawn is one `{Time, Creep}` entry of a CreepWave in the map file.
type WaveSpawn struct {
	TimeSeconds float64
	ArchetypeID string
	PathID      string
}

// Wave is one scheduled creep wave.
type Wave struct {
	StartTimeSeconds float64
	Spawns           []WaveSpawn
}

// ObstacleKind is the closed set of obstacle shapes the shadow caster
// handles.
type ObstacleKind int

const (
	ObstacleCircle ObstacleKind = iota
	ObstacleRectangle
	ObstacleTerrain
)

type Obstacle struct {
	Kind    ObstacleKind
	X, Y    float64
	Radius  float64 // circle
	HalfW   float64 // rectangle
	HalfH   float64 // rectangle
	Polygon []ecs.Position // terrain silhouette
	Height  float64
	Opacity float64
}

// TowerSite is a buildable/prebuilt tower location referenced by entity
// archetype placement at bootstrap: ID doubles as the entities.json
// archetype id spawned there.
type TowerSite struct {
	ID      string
	X, Y    float64
	Faction ecs.FactionID
}

// World is the immutable static-world resource.
type World struct {
	paths      map[string]Path
	waves      []Wave
	obstacles  []Obstacle
	towerSites map[string]TowerSite
	epoch      uint64 // bumped only when obstacles change; keys the vision cache
}

func New() *World {
	return &World{
		paths:      make(map[string]Path),
		towerSites: make(map[string]TowerSite),
		epoch:      1,
	}
}

func (w *World) SetPath(p Path) { w.paths[p.ID] = p }

func (w *World) Path(id string) (Path, bool) {
	p, ok := w.paths[id]
	return p, ok
}

// Paths returns every lane, for bootstrap code that needs to enumerate
// them all (e.g. to patch in a spawned TerminalEntity).
func (w *World) Paths() []Path {
	out := make([]Path, 0, len(w.paths))
	for _, p := range w.paths {
		out = append(out, p)
	}
	return out
}

func (w *World) SetWaves(waves []Wave) { w.waves = waves }

func (w *World) Waves() []Wave { return w.waves }

func (w *World) SetObstacles(obstacles []Obstacle) {
	w.obstacles = obstacles
	w.epoch++
}

func (w *World) Obstacles() []Obstacle { return w.obstacles }

func (w *World) SetTowerSite(t TowerSite) { w.towerSites[t.ID] = t }

func (w *World) TowerSite(id string) (TowerSite, bool) {
	t, ok := w.towerSites[id]
	return t, ok
}

// TowerSites returns every site, for bootstrap code that spawns one
// entity per site once at startup.
func (w *World) TowerSites() []TowerSite {
	out := make([]TowerSite, 0, len(w.towerSites))
	for _, t := range w.towerSites {
		out = append(out, t)
	}
	return out
}

// Epoch is the static-world epoch folded into every vision fingerprint: it
// only changes when obstacles change, never per tick under normal play.
func (w *World) Epoch() uint64 { return w.epoch }
