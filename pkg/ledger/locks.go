package ledger

import "sync"

// projectLocks hands out one mutex per project id. Locks are never released
// back; the map grows with the number of distinct projects touched, which is
// bounded by the project table size.
type projectLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func (l *projectLocks) forProject(projectId int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[int]*sync.Mutex)
	}
	if _, exists := l.locks[projectId]; !exists {
		l.locks[projectId] = &sync.Mutex{}
	}
	return l.locks[projectId]
}
