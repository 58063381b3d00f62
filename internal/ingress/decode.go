package ingress

import (
	"encoding/json"
	"fmt"
)

// wireCommand mirrors the wire schema `{player_id, action, data}`
// before it is resolved into a typed Command. data is kept raw since its
// shape depends on action.
type wireCommand struct {
	PlayerID string          `json:"player_id"`
	Action   string          `json:"action"`
	Data     json.RawMessage `json:"data"`
}

type moveData struct {
	MoveTo [2]float64 `json:"move_to"`
}

type attackData struct {
	Target string `json:"target"`
}

type upgradeData struct {
	Slot string `json:"slot"`
}

// castData is the cast payload `{slot, target}`; target carries exactly
// one of unit/point/dir, mirroring CastData's mutually-exclusive fields.
type castData struct {
	Slot   string `json:"slot"`
	Target struct {
		Unit  string      `json:"unit,omitempty"`
		Point *[2]float64 `json:"point,omitempty"`
		Dir   *[2]float64 `json:"dir,omitempty"`
	} `json:"target"`
}

// ParseCommand decodes one broker message payload into a Command. An
// unrecognized action or malformed data is a command error: discarded,
// never a fatal path for the broker's ingress goroutine.
func ParseCommand(payload []byte) (Command, error) {
	var wire wireCommand
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Command{}, fmt.Errorf("ingress: malformed command: %w", err)
	}
	if wire.PlayerID == "" {
		return Command{}, fmt.Errorf("ingress: command missing player_id")
	}
	action, ok := GetAction(wire.Action)
	if !ok {
		return Command{}, fmt.Errorf("ingress: unknown action %q", wire.Action)
	}

	cmd := Command{PlayerID: wire.PlayerID, Action: action}

	switch action {
	case ActionMove:
		var d moveData
		if err := unmarshalData(wire.Data, &d); err != nil {
			return Command{}, err
		}
		cmd.MoveTo = d.MoveTo
	case ActionAttack:
		var d attackData
		if err := unmarshalData(wire.Data, &d); err != nil {
			return Command{}, err
		}
		cmd.AttackTarget = d.Target
	case ActionCast:
		var d castData
		if err := unmarshalData(wire.Data, &d); err != nil {
			return Command{}, err
		}
		slot, ok := GetSlot(d.Slot)
		if !ok {
			return Command{}, fmt.Errorf("ingress: unknown cast slot %q", d.Slot)
		}
		cmd.Cast.Slot = slot
		switch {
		case d.Target.Unit != "":
			cmd.Cast.UnitTarget = d.Target.Unit
			cmd.Cast.HasUnitTarget = true
		case d.Target.Point != nil:
			cmd.Cast.PointTarget = *d.Target.Point
			cmd.Cast.HasPointTarget = true
		case d.Target.Dir != nil:
			cmd.Cast.DirTarget = *d.Target.Dir
			cmd.Cast.HasDirTarget = true
		}
	case ActionUpgrade:
		var d upgradeData
		if err := unmarshalData(wire.Data, &d); err != nil {
			return Command{}, err
		}
		cmd.UpgradeSlot = d.Slot
	case ActionPing:
		// no payload
	}

	return cmd, nil
}

func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("ingress: malformed data for command: %w", err)
	}
	return nil
}
