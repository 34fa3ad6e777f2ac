package usecase

import "sync"

// gameLocks - one mutex per game id. The game aggregate is the unit of
// locking; different games never contend.
type gameLocks struct {
	mu   sync.Mutex
	byID map[string]*sync.Mutex
}

func newGameLocks() *gameLocks {
	return &gameLocks{
		byID: make(map[string]*sync.Mutex),
	}
}

// lock - acquires the mutex for one game id, creating it on first use.
// Returns the unlock func.
func (that *gameLocks) lock(id string) func() {
	that.mu.Lock()
	gameMu, ok := that.byID[id]
	if !ok {
		gameMu = &sync.Mutex{}
		that.byID[id] = gameMu
	}
	that.mu.Unlock()

	gameMu.Lock()

	return gameMu.Unlock
}
