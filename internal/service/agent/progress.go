package agent

import "sync"

// ProgressBroker fans out stage labels from a running agent turn to
// observers watching the same conversation. Subscribers that fall
// behind miss labels rather than block the turn.
type ProgressBroker struct {
	mu   sync.Mutex
	subs map[string][]chan string
}

func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{subs: make(map[string][]chan string)}
}

// Subscribe starts observing a conversation's progress. The returned
// cancel function must be called when the observer is done.
func (b *ProgressBroker) Subscribe(userID, sessionID string) (<-chan string, func()) {
	key := userID + "\x00" + sessionID
	ch := make(chan string, 16)

	b.mu.Lock()
	b.subs[key] = append(b.subs[key], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		channels := b.subs[key]
		for i, c := range channels {
			if c == ch {
				b.subs[key] = append(channels[:i], channels[i+1:]...)
				break
			}
		}
		if len(b.subs[key]) == 0 {
			delete(b.subs, key)
		}
	}
	return ch, cancel
}

// Publish delivers a label to every current subscriber without blocking.
func (b *ProgressBroker) Publish(userID, sessionID, label string) {
	key := userID + "\x00" + sessionID

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[key] {
		select {
		case ch <- label:
		default:
		}
	}
}
