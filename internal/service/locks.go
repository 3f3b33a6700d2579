package service

import (
	"sync"

	"github.com/google/uuid"
)

// driverLocks serializes ledger mutations per driver. The append-only
// ordering check (no event earlier than the latest) is read-then-write, so
// two concurrent appends for the same driver must not interleave between the
// check and the insert. Locks are cheap and never released from the map;
// the key space is bounded by the number of active drivers in a process.
type driverLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newDriverLocks() *driverLocks {
	return &driverLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// get returns the mutex for the given driver, creating it on first use.
func (d *driverLocks) get(driverID uuid.UUID) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[driverID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[driverID] = l
	}
	return l
}
