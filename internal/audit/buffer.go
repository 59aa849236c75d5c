package audit

import (
	"sync"

	"phishsim/internal/models"
)

// RingBuffer is a bounded, thread-safe queue of committed audit entries.
// When full, the oldest entries are dropped to make room.
type RingBuffer struct {
	mu       sync.Mutex
	entries  []*models.AuditLog
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	dropped  int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 10000
	}
	return &RingBuffer{
		entries:  make([]*models.AuditLog, capacity),
		capacity: capacity,
	}
}

// Enqueue adds entries, dropping the oldest when necessary.
func (b *RingBuffer) Enqueue(entries ...*models.AuditLog) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range entries {
		if b.count >= b.capacity {
			b.entries[b.tail] = nil
			b.tail = (b.tail + 1) % b.capacity
			b.count--
			b.dropped++
		}
		b.entries[b.head] = e
		b.head = (b.head + 1) % b.capacity
		b.count++
	}
}

// DequeueBatch removes up to n entries, oldest first.
func (b *RingBuffer) DequeueBatch(n int) []*models.AuditLog {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	n = min(n, b.count)
	out := make([]*models.AuditLog, n)
	for i := range n {
		out[i] = b.entries[b.tail]
		b.entries[b.tail] = nil
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of entries evicted before delivery.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
