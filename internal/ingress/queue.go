package ingress

import (
	"sync/atomic"
	"time"

	"mobacore/internal/obslog"
)

// CommandQueue is the bounded inbound command FIFO: produced by the broker's
// ingress goroutine, drained by the player system once per tick. Draining
// is non-blocking and bounded, keeping the tick body wait-free on external
// resources. It never waits for the broker, it only takes whatever
// is already buffered. Enqueue is non-blocking with drop-and-log on a
// full queue, and an EMA tracks how long commands sit buffered.
type CommandQueue struct {
	commands chan Command

	enqueued    atomic.Uint64
	dropped     atomic.Uint64
	drained     atomic.Uint64
	avgWaitNs   atomic.Int64
}

func NewCommandQueue(bufferSize int) *CommandQueue {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &CommandQueue{commands: make(chan Command, bufferSize)}
}

// Enqueue is called from the broker's subscription handler goroutine, never
// from inside a tick. Returns false if the queue is full: discard, and let
// the caller emit a per-client error event.
func (q *CommandQueue) Enqueue(cmd Command) bool {
	cmd.ReceivedAt = time.Now()
	select {
	case q.commands <- cmd:
		q.enqueued.Add(1)
		return true
	default:
		n := q.dropped.Add(1)
		obslog.RecordCommandRejected("invalid")
		if n%100 == 1 {
			obslog.Warnf("ingress: command queue full, dropped command from player %s (total dropped: %d)", cmd.PlayerID, n)
		}
		return false
	}
}

// DrainAvailable pulls up to max commands currently buffered, without
// blocking. Called once per tick by the player system.
func (q *CommandQueue) DrainAvailable(max int) []Command {
	out := make([]Command, 0, max)
	for len(out) < max {
		select {
		case cmd := <-q.commands:
			q.updateAvgWait(time.Since(cmd.ReceivedAt))
			q.drained.Add(1)
			out = append(out, cmd)
		default:
			return out
		}
	}
	return out
}

func (q *CommandQueue) updateAvgWait(wait time.Duration) {
	current := q.avgWaitNs.Load()
	newAvg := (current*9 + wait.Nanoseconds()) / 10
	q.avgWaitNs.Store(newAvg)
}

// Stats reports queue health for the admin API / metrics.
type Stats struct {
	Enqueued   uint64
	Dropped    uint64
	Drained    uint64
	Pending    int
	BufferSize int
	AvgWaitMs  float64
}

func (q *CommandQueue) Stats() Stats {
	return Stats{
		Enqueued:   q.enqueued.Load(),
		Dropped:    q.dropped.Load(),
		Drained:    q.drained.Load(),
		Pending:    len(q.commands),
		BufferSize: cap(q.commands),
		AvgWaitMs:  float64(q.avgWaitNs.Load()) / 1e6,
	}
}
