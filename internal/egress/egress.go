// Package egress implements the outbound half of the broker boundary:
// batching each tick's outcome events and filtering them per
// recipient by that recipient's own computed vision, before publishing
// one subject per connected player.
package egress

import (
	"encoding/json"
	"fmt"
	"sync"

	"mobacore/internal/broker"
	"mobacore/internal/ecs"
	"mobacore/internal/obslog"
	"mobacore/internal/outcome"
	"mobacore/internal/skill"
	"mobacore/internal/systems"
	"mobacore/internal/vision"
)

// globalKinds are event kinds shown to every connected player regardless
// of vision, matching the common kill-feed/level-up announcement
// convention rather than strict fog-of-war, and, for died/despawned,
// because the dying entity's own Position component is already cleared
// by the time Despawn runs, leaving no coordinate left to filter by.
var globalKinds = map[outcome.EventKind]bool{
	outcome.EventDied:      true,
	outcome.EventDespawned: true,
	outcome.EventLevelUp:   true,
	outcome.EventSkillCast: true,
}

// wireEvent is the outbound record shape, one per batch entry.
type wireEvent struct {
	Kind   outcome.EventKind `json:"kind"`
	Entity uint32            `json:"entity"`
	Data   map[string]any    `json:"data,omitempty"`
}

// Adapter fans a tick's drained events out to every connected player,
// publishing one (subject, payload) batch per recipient on the bus.
type Adapter struct {
	Bus         broker.Bus
	Players     *systems.PlayerIndex
	Vision      *systems.VisionStore
	World       *ecs.World
	SubjectBase string // e.g. "mobacore.events": published as "<base>.<player_id>"
}

func NewAdapter(bus broker.Bus, players *systems.PlayerIndex, vision *systems.VisionStore, world *ecs.World, subjectBase string) *Adapter {
	if subjectBase == "" {
		subjectBase = "mobacore.events"
	}
	return &Adapter{Bus: bus, Players: players, Vision: vision, World: world, SubjectBase: subjectBase}
}

// Publish filters and sends this tick's events to every connected player.
// An empty batch for a given recipient is not published (no "nothing
// happened" noise on the wire every 100ms).
func (a *Adapter) Publish(events []outcome.Event) {
	if len(events) == 0 {
		return
	}
	for playerID, hero := range a.Players.Snapshot() {
		region, ok := a.Vision.Get(hero)
		batch := a.filter(events, region, ok)
		if len(batch) == 0 {
			continue
		}
		payload, err := json.Marshal(batch)
		if err != nil {
			obslog.Warnf("egress: marshal batch for player %s: %v", playerID, err)
			continue
		}
		subject := fmt.Sprintf("%s.%s", a.SubjectBase, playerID)
		if err := a.Bus.Publish(subject, payload); err != nil {
			obslog.Warnf("egress: publish to %s: %v", subject, err)
		}
	}
}

func (a *Adapter) filter(events []outcome.Event, region *vision.VisibleRegion, hasRegion bool) []wireEvent {
	out := make([]wireEvent, 0, len(events))
	for _, ev := range events {
		if globalKinds[ev.Kind] || a.visible(ev, region, hasRegion) {
			out = append(out, wireEvent{Kind: ev.Kind, Entity: ev.Entity.Index, Data: ev.Data})
		}
	}
	return out
}

func (a *Adapter) visible(ev outcome.Event, region *vision.VisibleRegion, hasRegion bool) bool {
	if !hasRegion || region == nil {
		return false
	}
	pos, ok := eventPosition(ev, a.World)
	if !ok {
		return false
	}
	return region.Contains(pos.X, pos.Y)
}

// eventPosition resolves where an event happened: from its own Data when
// the outcome carried one (spawn, move), otherwise from the live world if
// the entity is still alive (damaged, healed, vision_update).
func eventPosition(ev outcome.Event, w *ecs.World) (ecs.Position, bool) {
	if raw, ok := ev.Data["position"]; ok {
		if pos, ok := raw.(ecs.Position); ok {
			return pos, true
		}
	}
	if w.Alive(ev.Entity) {
		return w.Position(ev.Entity), true
	}
	return ecs.Position{}, false
}

// rejectReasons mirrors the wire vocabulary for skill_rejected. Kept as
// strings on the wire rather than the engine's int enum
// so a client never needs to know the enum's numeric assignment.
var rejectReasons = map[skill.RejectionReason]string{
	skill.RejectUnknownAbility: "unknown_ability",
	skill.RejectNotLearned:     "not_learned",
	skill.RejectOnCooldown:     "on_cooldown",
	skill.RejectInsufficientMP: "insufficient_mp",
	skill.RejectWrongTargetKind: "wrong_target_kind",
	skill.RejectOutOfRange:     "out_of_range",
}

type wireRejection struct {
	Kind   string `json:"kind"`
	Slot   string `json:"slot"`
	Reason string `json:"reason"`
}

// RejectionNotifier implements systems.RejectionSink: it turns a typed
// cast rejection back into the one player who issued it (via the reverse
// lookup PlayerIndex keeps for exactly this purpose). Reject is called
// from inside the tick, so it only resolves and marshals; the broker
// publish happens in Flush, which the tick loop calls after the tick body
// so the tick never touches the transport itself.
type RejectionNotifier struct {
	Bus         broker.Bus
	Players     *systems.PlayerIndex
	SubjectBase string

	mu      sync.Mutex
	pending []pendingRejection
}

type pendingRejection struct {
	subject string
	payload []byte
}

func NewRejectionNotifier(bus broker.Bus, players *systems.PlayerIndex, subjectBase string) *RejectionNotifier {
	if subjectBase == "" {
		subjectBase = "mobacore.events"
	}
	return &RejectionNotifier{Bus: bus, Players: players, SubjectBase: subjectBase}
}

func (r *RejectionNotifier) Reject(rej skill.Rejection) {
	playerID, ok := r.Players.PlayerID(rej.Caster)
	if !ok {
		return // caster has no owning player (an NPC cast): nobody to notify
	}
	reason, ok := rejectReasons[rej.Reason]
	if !ok {
		reason = "unknown"
	}
	payload, err := json.Marshal(wireRejection{Kind: "skill_rejected", Slot: rej.Slot, Reason: reason})
	if err != nil {
		obslog.Warnf("egress: marshal rejection for player %s: %v", playerID, err)
		return
	}
	subject := fmt.Sprintf("%s.%s", r.SubjectBase, playerID)
	r.mu.Lock()
	r.pending = append(r.pending, pendingRejection{subject: subject, payload: payload})
	r.mu.Unlock()
}

// Flush publishes every rejection buffered since the last call.
func (r *RejectionNotifier) Flush() {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, p := range batch {
		if err := r.Bus.Publish(p.subject, p.payload); err != nil {
			obslog.Warnf("egress: publish rejection to %s: %v", p.subject, err)
		}
	}
}
