package service

import "sync"

// userLocks serializes the send pipeline per user so that concurrent sends
// from one wallet can't fetch the same chain nonce. In-process guarantee only.
type userLocks struct {
	locks sync.Map // user_id -> *sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{}
}

// lock acquires the mutex for userID and returns its release func.
func (l *userLocks) lock(userID string) func() {
	v, _ := l.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
