package status

import "github.com/sweeney/soil-sensor/internal/logic"

// recordRing is a fixed-capacity FIFO of the most recent cycle records.
// Not safe for concurrent use; the Tracker holds the lock.
type recordRing struct {
	buf      []logic.CycleRecord
	capacity int
	head     int // next write position
	count    int
}

func newRecordRing(capacity int) *recordRing {
	if capacity < 1 {
		capacity = 1
	}
	return &recordRing{
		buf:      make([]logic.CycleRecord, capacity),
		capacity: capacity,
	}
}

func (r *recordRing) push(rec logic.CycleRecord) {
	r.buf[r.head] = rec
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
	// when full, the oldest was just overwritten and count stays at capacity
}

// items returns a copy of the stored records, oldest first.
func (r *recordRing) items() []logic.CycleRecord {
	if r.count == 0 {
		return nil
	}

	result := make([]logic.CycleRecord, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}
	return result
}

func (r *recordRing) len() int {
	return r.count
}
