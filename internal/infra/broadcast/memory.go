package broadcast

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is the single-process channel, used when redis is not reachable.
type Memory struct {
	mu   sync.Mutex
	data map[string]entry
	subs *listeners
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		subs: newListeners(),
		now:  time.Now,
	}
}

func (m *Memory) get(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(m.now()) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}

func (m *Memory) Write(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()

	m.subs.notify(key)
	return nil
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (m *Memory) WriteIfAbsent(_ context.Context, key string, value []byte) (bool, error) {
	m.mu.Lock()
	if _, ok := m.get(key); ok {
		m.mu.Unlock()
		return false, nil
	}
	m.data[key] = entry{value: append([]byte(nil), value...)}
	m.mu.Unlock()

	m.subs.notify(key)
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	_, ok := m.get(key)
	delete(m.data, key)
	m.mu.Unlock()

	if ok {
		m.subs.notify(key)
	}
	return nil
}

func (m *Memory) DeleteIfValue(_ context.Context, key string, value []byte) (bool, error) {
	m.mu.Lock()
	e, ok := m.get(key)
	if !ok || !bytes.Equal(e.value, value) {
		m.mu.Unlock()
		return false, nil
	}
	delete(m.data, key)
	m.mu.Unlock()

	m.subs.notify(key)
	return true, nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, ok := m.get(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) OnAnyWrite(fn func(key string)) func() {
	return m.subs.add(fn)
}

var _ Channel = (*Memory)(nil)
