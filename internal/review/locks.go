package review

import "sync"

// keyedLocks serializes operations on the same (user, sheet) pair. Different
// pairs proceed in parallel. Mutexes are kept for the process lifetime; the
// set of pairs a single instance touches is small enough that no eviction is
// needed.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the key and returns the unlock function
func (k *keyedLocks) acquire(userID, sheet string) func() {
	key := userID + "\x00" + sheet

	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
