package outcome

import "mobacore/internal/spatial"

// Queue is the per-tick outcome buffer: multi-producer during a tick,
// single-consumer at end-of-tick, with per-worker local buffers merged at
// the stage barrier to avoid cross-thread contention. Each worker gets its
// own lock-free ring (spatial.LockFreeQueue's Disruptor-style transport)
// so producers in different stage goroutines never
// contend with each other.
type Queue struct {
	shards []*spatial.LockFreeQueue[Outcome]
}

const defaultShardCapacity = 1024

// NewQueue allocates one shard per worker. workers should match the
// scheduler's worker-pool size; a system run on worker i must push to
// shard i.
func NewQueue(workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	shards := make([]*spatial.LockFreeQueue[Outcome], workers)
	for i := range shards {
		shards[i] = spatial.NewLockFreeQueue[Outcome](defaultShardCapacity)
	}
	return &Queue{shards: shards}
}

// Push enqueues an outcome onto the given worker's shard. Safe for any
// number of producers targeting distinct shards concurrently; two
// producers targeting the same shard serialize via the shard's own CAS.
// Push implements ecs.Sink; o must be an Outcome, since every call site is
// a system pushing through the typed helpers in systems/*.go.
func (q *Queue) Push(worker int, o any) {
	out, ok := o.(Outcome)
	if !ok {
		return
	}
	shard := q.shards[worker%len(q.shards)]
	if !shard.TryPush(out) {
		// Shard full: spin-push rather than drop, since dropping a live
		// outcome would violate the outcome-only lifecycle invariant.
		shard.Push(out)
	}
}

// Merge drains every shard into one ordered slice. Shard order is stable
// (worker 0's outcomes first), giving the deterministic secondary ordering
// replay needs: outcomes from the same system-stage tie-break by
// worker id then shard-local enqueue order.
func (q *Queue) Merge() []Outcome {
	out := make([]Outcome, 0, len(q.shards)*4)
	for _, shard := range q.shards {
		out = append(out, shard.Drain(shard.Cap())...)
	}
	return out
}
