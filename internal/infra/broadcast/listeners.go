package broadcast

import "sync"

type listeners struct {
	mu     sync.RWMutex
	nextID uint64
	fns    map[uint64]func(string)
}

func newListeners() *listeners {
	return &listeners{fns: make(map[uint64]func(string))}
}

func (l *listeners) add(fn func(string)) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.fns[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners) notify(key string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.fns {
		fn(key)
	}
}
