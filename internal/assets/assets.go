package assets

import (
	"mobacore/internal/config"
	"mobacore/internal/outcome"
	"mobacore/internal/skill"
	"mobacore/internal/worldstatic"
)

// Bundle is everything bootstrap needs from the three static file
// families: the immutable world, the ability registry, and the
// archetype lookup the outcome processor consumes.
type Bundle struct {
	World      *worldstatic.World
	Abilities  *skill.Registry
	Archetypes *Archetypes
	Engine     *skill.Engine
	Waves      []worldstatic.Wave
}

// Load reads the three file families at paths, parses them (stripping
// C-style comments first), cross-validates every name reference, and
// returns the assembled Bundle. Any failure here is a config error: fatal
// at load, the server refuses to start.
func Load(paths config.AssetPaths) (*Bundle, error) {
	world, waveRecords, err := loadMap(paths.MapFile)
	if err != nil {
		return nil, err
	}

	abilities, err := loadAbilities(paths.AbilityFile)
	if err != nil {
		return nil, err
	}

	archetypes, err := loadEntities(paths.EntityFile)
	if err != nil {
		return nil, err
	}

	if err := validate(abilities, archetypes); err != nil {
		return nil, err
	}

	waves, err := buildWaves(waveRecords,
		func(id string) bool { _, ok := world.Path(id); return ok },
		func(id string) bool { return archetypes.Role(id) == outcome.RoleCreep },
	)
	if err != nil {
		return nil, err
	}
	world.SetWaves(waves)

	generators := skill.BuiltinGenerators()
	engine := skill.NewEngine(abilities, generators)

	return &Bundle{
		World:      world,
		Abilities:  abilities,
		Archetypes: archetypes,
		Engine:     engine,
		Waves:      waves,
	}, nil
}
