package lock

import (
	"context"
	"hash/fnv"
	"sync"
)

const localStripes = 256

// LocalLocker serializes keys inside one process with a fixed set of striped
// mutexes. Distinct keys may share a stripe.
type LocalLocker struct {
	stripes [localStripes]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	l := &LocalLocker{}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	stripe := l.stripes[stripeFor(key)]
	select {
	case stripe <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-stripe }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func stripeFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % localStripes
}
