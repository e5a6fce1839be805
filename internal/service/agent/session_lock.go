package agent

import "sync"

// sessionLock serializes agent turns per conversation. Two concurrent
// messages for the same (user, session) would interleave their tool
// rounds in the shared history, so the second waits for the first.
// Distinct conversations proceed independently. Entries are refcounted
// and removed once the last holder releases, so the map only holds
// conversations with a turn in flight.
type sessionLock struct {
	mu    sync.Mutex
	locks map[string]*sessionLockEntry
}

type sessionLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLock() *sessionLock {
	return &sessionLock{locks: make(map[string]*sessionLockEntry)}
}

// acquire blocks until the conversation's lock is held and returns the
// release function. Callers must release exactly once.
func (s *sessionLock) acquire(userID, sessionID string) func() {
	key := userID + "\x00" + sessionID

	s.mu.Lock()
	entry, ok := s.locks[key]
	if !ok {
		entry = &sessionLockEntry{}
		s.locks[key] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		s.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}
