package services

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CarLocker serializes booking writes per car within this process. Entries
// are reference counted and dropped once nobody holds or waits on them.
type CarLocker struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*carLock
}

type carLock struct {
	mu   sync.Mutex
	refs int
}

func NewCarLocker() *CarLocker {
	return &CarLocker{locks: make(map[primitive.ObjectID]*carLock)}
}

// Lock blocks until the caller holds carID and returns the release func.
func (l *CarLocker) Lock(carID primitive.ObjectID) func() {
	l.mu.Lock()
	entry, ok := l.locks[carID]
	if !ok {
		entry = &carLock{}
		l.locks[carID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, carID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *CarLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
