package chat

import "sync"

// Locks serializes event handling per chat identity. A read-modify-
// write of per-chat state is not atomic against its store, so
// concurrent deliveries for the same chat must queue; different chats
// proceed in parallel. The step engine and the login flow each hold
// their own instance.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-chat mutex, creating it on first use. Locks
// live for the process lifetime; the set of chats is small enough that
// they are never reclaimed.
func (c *Locks) Lock(chatID string) {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[chatID] = l
	}
	c.mu.Unlock()
	l.Lock()
}

func (c *Locks) Unlock(chatID string) {
	c.mu.Lock()
	l := c.locks[chatID]
	c.mu.Unlock()
	if l != nil {
		l.Unlock()
	}
}
