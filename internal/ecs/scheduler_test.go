package ecs

import "testing"

type stubSystem struct {
	name string
	acc  Access
	ran  *bool
}

func (s stubSystem) Name() string  { return s.name }
func (s stubSystem) Access() Access { return s.acc }
func (s stubSystem) Run(ctx *TickContext) {
	if s.ran != nil {
		*s.ran = true
	}
}

type nullSink struct{}

func (nullSink) Push(worker int, o any) {}

func TestSchedulerRejectsOverlappingReadWrite(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected NewScheduler to panic on a system declaring a component in both Read and Write")
		}
	}()
	NewScheduler([][]System{{
		stubSystem{name: "bad", acc: Access{Read: []ComponentID{CPosition}, Write: []ComponentID{CPosition}}},
	}})
}

func TestSchedulerRejectsConflictingStage(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected NewScheduler to panic when two same-stage systems conflict on a component")
		}
	}()
	NewScheduler([][]System{{
		stubSystem{name: "writer", acc: Access{Write: []ComponentID{CPosition}}},
		stubSystem{name: "reader", acc: Access{Read: []ComponentID{CPosition}}},
	}})
}

func TestSchedulerAllowsDisjointStage(t *testing.T) {
	var ranA, ranB bool
	s := NewScheduler([][]System{{
		stubSystem{name: "a", acc: Access{Write: []ComponentID{CPosition}}, ran: &ranA},
		stubSystem{name: "b", acc: Access{Write: []ComponentID{CVelocity}}, ran: &ranB},
	}})
	w := NewWorld(1)
	s.RunTick(w, nullSink{}, 0.1)
	if !ranA || !ranB {
		t.Fatalf("expected both disjoint systems to run: a=%v b=%v", ranA, ranB)
	}
}

func TestSchedulerRunsStagesInOrder(t *testing.T) {
	var seq []string
	makeSys := func(name string) System {
		return recordingSystem{name: name, seq: &seq}
	}
	s := NewScheduler([][]System{
		{makeSys("first")},
		{makeSys("second")},
	})
	w := NewWorld(1)
	s.RunTick(w, nullSink{}, 0.1)
	if len(seq) != 2 || seq[0] != "first" || seq[1] != "second" {
		t.Fatalf("expected stages to run in declared order, got %v", seq)
	}
}

type recordingSystem struct {
	name string
	seq  *[]string
}

func (r recordingSystem) Name() string   { return r.name }
func (r recordingSystem) Access() Access { return Access{} }
func (r recordingSystem) Run(ctx *TickContext) {
	*r.seq = append(*r.seq, r.name)
}
