package ecs

import (
	"fmt"
	"runtime"
	"sync"
)

// Access declares the components a System touches. Read and Write must be
// disjoint; the Scheduler rejects registration otherwise.
type Access struct {
	Read  []ComponentID
	Write []ComponentID
}

// Sink is where a system pushes outcomes: the only legal path for
// lifecycle changes and cross-system mutation. Declared as `any` here (not
// outcome.Outcome) so ecs has no import-time dependency on the outcome
// package; concrete Sink implementations still only ever carry outcome.Outcome
// values, and the processor type-asserts on drain.
type Sink interface {
	Push(worker int, o any)
}

// TickContext is what a System's Run receives: the world, this tick's ΔT,
// the outcome sink, and the worker slot the system happens to be running on
// (used only to pick an outcome-queue shard with no cross-goroutine
// contention; each worker writes only its own local buffer).
type TickContext struct {
	World  *World
	Sink   Sink
	Worker int
	DT     float64
}

// System is one tick's worth of pure behavior over the World. Run must not
// perform I/O and must not block on anything but the stage barrier. Any
// resource beyond components/outcomes (command queues, the spatial index,
// the ability registry, the static world) is wired into the concrete System
// via constructor injection, not through this interface.
type System interface {
	Name() string
	Access() Access
	Run(ctx *TickContext)
}

// Scheduler partitions registered systems into stages such that concurrent
// systems within a stage never conflict: for every pair S, T running in the
// same stage, Write(S) ∩ (Read(T) ∪ Write(T)) = ∅. It does not attempt to
// maximize parallelism, only to avoid ever violating that rule.
type Scheduler struct {
	stages [][]System
	pool   int
}

// NewScheduler builds a scheduler from an explicit stage list. Each inner
// slice is one stage: systems named together must satisfy the disjointness
// rule or registration panics at startup, never at runtime.
func NewScheduler(stages [][]System) *Scheduler {
	s := &Scheduler{stages: stages, pool: workerCount()}
	for _, stage := range stages {
		validateStage(stage)
	}
	return s
}

// WorkerCount reports the pool size a caller should size per-worker
// resources (e.g. the outcome queue's shard count) against.
func (s *Scheduler) WorkerCount() int { return s.pool }

func workerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		n = 2
	}
	return n
}

func validateStage(stage []System) {
	for i, a := range stage {
		acc := a.Access()
		reads := toSet(acc.Read)
		writes := toSet(acc.Write)
		for c := range reads {
			if writes[c] {
				panic(fmt.Sprintf("system %q declares %s in both Read and Write", a.Name(), c))
			}
		}
		for j, b := range stage {
			if i == j {
				continue
			}
			bAcc := b.Access()
			if conflicts(writes, bAcc.Read) || conflicts(writes, bAcc.Write) {
				panic(fmt.Sprintf("systems %q and %q conflict on a component within the same stage", a.Name(), b.Name()))
			}
		}
	}
}

func toSet(ids []ComponentID) map[ComponentID]bool {
	m := make(map[ComponentID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func conflicts(writes map[ComponentID]bool, other []ComponentID) bool {
	for _, c := range other {
		if writes[c] {
			return true
		}
	}
	return false
}

// RunTick executes every stage in order; systems within a stage run
// concurrently on a bounded worker pool and the stage does not advance
// until every system in it has returned (the stage barrier).
func (s *Scheduler) RunTick(w *World, sink Sink, dt float64) {
	for _, stage := range s.stages {
		runStage(stage, w, sink, dt, s.pool)
	}
}

func runStage(stage []System, w *World, sink Sink, dt float64, poolSize int) {
	if len(stage) == 0 {
		return
	}
	if len(stage) == 1 {
		stage[0].Run(&TickContext{World: w, Sink: sink, Worker: 0, DT: dt})
		return
	}

	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup
	for i, sys := range stage {
		wg.Add(1)
		sem <- struct{}{}
		go func(sys System, worker int) {
			defer wg.Done()
			defer func() { <-sem }()
			sys.Run(&TickContext{World: w, Sink: sink, Worker: worker % poolSize, DT: dt})
		}(sys, i)
	}
	wg.Wait()
}
