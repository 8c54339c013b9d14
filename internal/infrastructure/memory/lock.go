package memory

import (
	"context"
	"sync"
)

// Locker is an in-process lock over the habits table
type Locker struct {
	sem chan struct{}
}

// NewLocker creates an unlocked Locker
func NewLocker() *Locker {
	return &Locker{sem: make(chan struct{}, 1)}
}

// Lock waits for the lock or for ctx to be done
func (l *Locker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.sem })
	}, nil
}
