package assets

import (
	"encoding/json"
	"fmt"
	"os"

	"mobacore/internal/ecs"
	"mobacore/internal/worldstatic"
)

// mapFile is the on-disk map record: Path[], CheckPoint[], Creep[], Tower[],
// CreepWave[]. "Creep" here only names the creep archetype a checkpoint's
// wave entry spawns; the actual creep stats live in the entity file.
type mapFile struct {
	Checkpoints []checkpointRecord `json:"checkpoints"`
	Paths       []pathRecord       `json:"paths"`
	Towers      []towerSiteRecord  `json:"towers"`
	Obstacles   []obstacleRecord   `json:"obstacles"`
	Waves       []waveRecord       `json:"waves"`
}

type checkpointRecord struct {
	Name  string  `json:"name"`
	Class string  `json:"class"` // Start | CheckPoint | End
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type pathRecord struct {
	ID             string   `json:"id"`
	Faction        string   `json:"faction"` // radiant | dire, the lane's owning side
	Checkpoints    []string `json:"checkpoints"` // ordered checkpoint names
	TerminalSiteID string   `json:"terminal_tower_site,omitempty"` // base entity spawned at bootstrap
}

type towerSiteRecord struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Faction string  `json:"faction,omitempty"` // radiant | dire | empty (neutral, e.g. roshan-style camps)
}

type obstacleRecord struct {
	Kind    string       `json:"kind"` // circle | rectangle | terrain
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Radius  float64      `json:"radius,omitempty"`
	HalfW   float64      `json:"half_w,omitempty"`
	HalfH   float64      `json:"half_h,omitempty"`
	Polygon [][2]float64 `json:"polygon,omitempty"`
	Height  float64      `json:"height"`
	Opacity float64      `json:"opacity"`
}

type waveRecord struct {
	StartTime float64            `json:"start_time"`
	Detail    []waveDetailRecord `json:"detail"`
}

type waveDetailRecord struct {
	Path   string             `json:"path"`
	Creeps []waveSpawnRecord  `json:"creeps"`
}

type waveSpawnRecord struct {
	Time  float64 `json:"time"`
	Creep string  `json:"creep"` // archetype id
}

// loadMap parses path into a worldstatic.World. TerminalEntity on each
// Path is left ecs.Nil; the server wires it to a concrete base entity
// during bootstrap, after that entity has been spawned.
func loadMap(path string) (*worldstatic.World, []waveRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("assets: reading map file %s: %w", path, err)
	}

	var mf mapFile
	if err := json.Unmarshal(stripJSONComments(raw), &mf); err != nil {
		return nil, nil, fmt.Errorf("assets: parsing map file %s: %w", path, err)
	}

	byName := make(map[string]checkpointRecord, len(mf.Checkpoints))
	for _, c := range mf.Checkpoints {
		byName[c.Name] = c
	}

	world := worldstatic.New()

	for _, p := range mf.Paths {
		waypoints := make([]ecs.Position, 0, len(p.Checkpoints))
		for _, name := range p.Checkpoints {
			cp, ok := byName[name]
			if !ok {
				return nil, nil, fmt.Errorf("assets: path %q references unknown checkpoint %q", p.ID, name)
			}
			waypoints = append(waypoints, ecs.Position{X: cp.X, Y: cp.Y})
		}
		faction, ok := factionFromString(p.Faction)
		if !ok {
			return nil, nil, fmt.Errorf("assets: path %q has unknown faction %q", p.ID, p.Faction)
		}
		world.SetPath(worldstatic.Path{
			ID:             p.ID,
			Waypoints:      waypoints,
			TerminalSiteID: p.TerminalSiteID,
			TerminalEntity: ecs.Nil,
			Faction:        faction,
		})
	}

	for _, t := range mf.Towers {
		siteFaction := ecs.FactionNeutral
		if t.Faction != "" {
			parsed, ok := factionFromString(t.Faction)
			if !ok {
				return nil, nil, fmt.Errorf("assets: tower site %q has unknown faction %q", t.ID, t.Faction)
			}
			siteFaction = parsed
		}
		world.SetTowerSite(worldstatic.TowerSite{ID: t.ID, X: t.X, Y: t.Y, Faction: siteFaction})
	}

	obstacles := make([]worldstatic.Obstacle, 0, len(mf.Obstacles))
	for _, o := range mf.Obstacles {
		kind, ok := obstacleKind(o.Kind)
		if !ok {
			return nil, nil, fmt.Errorf("assets: obstacle has unknown kind %q", o.Kind)
		}
		poly := make([]ecs.Position, 0, len(o.Polygon))
		for _, pt := range o.Polygon {
			poly = append(poly, ecs.Position{X: pt[0], Y: pt[1]})
		}
		obstacles = append(obstacles, worldstatic.Obstacle{
			Kind:    kind,
			X:       o.X,
			Y:       o.Y,
			Radius:  o.Radius,
			HalfW:   o.HalfW,
			HalfH:   o.HalfH,
			Polygon: poly,
			Height:  o.Height,
			Opacity: o.Opacity,
		})
	}
	world.SetObstacles(obstacles)

	return world, mf.Waves, nil
}

func factionFromString(s string) (ecs.FactionID, bool) {
	switch s {
	case "radiant":
		return ecs.FactionRadiant, true
	case "dire":
		return ecs.FactionDire, true
	default:
		return 0, false
	}
}

func obstacleKind(s string) (worldstatic.ObstacleKind, bool) {
	switch s {
	case "circle":
		return worldstatic.ObstacleCircle, true
	case "rectangle":
		return worldstatic.ObstacleRectangle, true
	case "terrain":
		return worldstatic.ObstacleTerrain, true
	default:
		return 0, false
	}
}

// buildWaves flattens the map file's {StartTime, Detail:[{Path, Creeps}]}
// shape into worldstatic.Wave records, one WaveSpawn per {Time, Creep}
// entry with its governing path attached.
func buildWaves(records []waveRecord, pathExists, creepArchetypeExists func(id string) bool) ([]worldstatic.Wave, error) {
	waves := make([]worldstatic.Wave, 0, len(records))
	for _, w := range records {
		var spawns []worldstatic.WaveSpawn
		lastTime := -1.0
		for _, detail := range w.Detail {
			if !pathExists(detail.Path) {
				return nil, fmt.Errorf("assets: wave references unknown path %q", detail.Path)
			}
			for _, s := range detail.Creeps {
				if s.Time < lastTime {
					return nil, fmt.Errorf("assets: wave on path %q has non-monotonic spawn times", detail.Path)
				}
				if !creepArchetypeExists(s.Creep) {
					return nil, fmt.Errorf("assets: wave references unknown creep archetype %q", s.Creep)
				}
				lastTime = s.Time
				spawns = append(spawns, worldstatic.WaveSpawn{
					TimeSeconds: w.StartTime + s.Time,
					ArchetypeID: s.Creep,
					PathID:      detail.Path,
				})
			}
		}
		waves = append(waves, worldstatic.Wave{StartTimeSeconds: w.StartTime, Spawns: spawns})
	}
	return waves, nil
}
