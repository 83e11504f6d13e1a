package dispatch

import (
	"errors"
	"sync/atomic"
)

var ErrQueueFull = errors.New("command queue full")

// DefaultQueueSize must be a power of two.
const DefaultQueueSize = 64

// Queue is a lock-free ring of raw command payloads.
// Thread-Safety:
//   - Push: CAS on the tail, any number of producers (MQTT, websocket)
//   - Drain: single consumer (the tick loop)
//   - published flags keep the consumer off half-written slots
//
// Overflow: Push refuses new payloads while the ring is full.
type Queue struct {
	slots     [][]byte
	published []atomic.Bool
	mask      uint64
	head      atomic.Uint64
	tail      atomic.Uint64
	dropped   atomic.Uint64
}

func NewQueue(size int) *Queue {
	if size <= 0 || size&(size-1) != 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		slots:     make([][]byte, size),
		published: make([]atomic.Bool, size),
		mask:      uint64(size - 1),
	}
}

func (q *Queue) Push(payload []byte) error {
	for {
		tail := q.tail.Load()
		if tail-q.head.Load() > q.mask {
			q.dropped.Add(1)
			return ErrQueueFull
		}
		if q.tail.CompareAndSwap(tail, tail+1) {
			idx := tail & q.mask
			q.slots[idx] = payload
			q.published[idx].Store(true) // MUST be after write
			return nil
		}
	}
}

// Drain returns pending payloads in FIFO order. It stops early at a slot
// whose writer has not finished; that payload is picked up next time.
func (q *Queue) Drain() [][]byte {
	head := q.head.Load()
	tail := q.tail.Load()
	if head == tail {
		return nil
	}
	out := make([][]byte, 0, tail-head)
	for i := head; i < tail; i++ {
		idx := i & q.mask
		if !q.published[idx].Load() {
			break
		}
		out = append(out, q.slots[idx])
		q.slots[idx] = nil
		q.published[idx].Store(false)
	}
	q.head.Store(head + uint64(len(out)))
	return out
}

func (q *Queue) Len() int { return int(q.tail.Load() - q.head.Load()) }

// Dropped counts payloads refused because the ring was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
