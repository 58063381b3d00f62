package skill

import "mobacore/internal/ecs"

// ResolvePassive looks up the ability bound in the caster's "P" (passive)
// slot. Passive abilities never go through Request/Validate/Commit; a
// Passive behavior is always active, so the only thing a caller
// needs from the engine is this level's tunables, read fresh each time a
// proc check (basic-attack cadence, typically) wants to roll against them.
func ResolvePassive(w *ecs.World, reg *Registry, caster ecs.Entity) (Ability, LevelConfig, bool) {
	book, ok := w.AbilityBook(caster)
	if !ok {
		return Ability{}, LevelConfig{}, false
	}
	id, ok := book.Slots["P"]
	if !ok {
		return Ability{}, LevelConfig{}, false
	}
	ability, ok := reg.Get(id)
	if !ok || ability.Behavior != Passive {
		return Ability{}, LevelConfig{}, false
	}

	level := 0
	for _, se := range w.Skills(caster) {
		s, _ := w.Skill(se)
		if s.AbilityID == id {
			level = s.Level
			break
		}
	}
	if level < 1 {
		return Ability{}, LevelConfig{}, false
	}
	lvl, ok := ability.LevelConfig(level)
	if !ok {
		return Ability{}, LevelConfig{}, false
	}
	return ability, lvl, true
}
