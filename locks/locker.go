// Package locks serialises multi-record updates on one entity across requests.
package locks

import (
	"context"
	"fmt"
	"sync"
)

// Locker grants exclusive access to a key until unlock is called
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// BookingKey is the lock key for a booking
func BookingKey(bookingID uint) string {
	return fmt.Sprintf("booking:%d", bookingID)
}

// MemoryLocker serialises holders within one process
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch      chan struct{}
	waiters int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*entry)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.waiters++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, e, true) })
	}, nil
}

func (l *MemoryLocker) release(key string, e *entry, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held {
		<-e.ch
	}
	e.waiters--
	if e.waiters == 0 {
		delete(l.locks, key)
	}
}
