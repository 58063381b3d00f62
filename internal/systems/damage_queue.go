package systems

import (
	"sync"

	"mobacore/internal/ecs"
)

// RawDamage is one entry of the damage sub-queue: a pre-mitigation
// packet pushed by an attack/skill/projectile source, consumed once per
// tick by the damage system, which resolves armor/resist and re-emits the
// mitigated amount as outcome.Damage.
type RawDamage struct {
	Target ecs.Entity
	Packet ecs.DamagePacket
}

// DamageSubQueue collects RawDamage entries across the tick's damage-source
// systems (skill, hero, creep, tower, projectile). Those systems currently
// run in strictly sequential stages (each has a stage of its own in the
// server's stage plan), so a mutex here is a safety margin rather than a
// hot path.
type DamageSubQueue struct {
	mu      sync.Mutex
	pending []RawDamage
}

func NewDamageSubQueue() *DamageSubQueue { return &DamageSubQueue{} }

func (q *DamageSubQueue) Push(r RawDamage) {
	q.mu.Lock()
	q.pending = append(q.pending, r)
	q.mu.Unlock()
}

func (q *DamageSubQueue) DrainAll() []RawDamage {
	q.mu.Lock()
	out := q.pending
	q.pending = nil
	q.mu.Unlock()
	return out
}
