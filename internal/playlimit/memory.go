package playlimit

import (
	"context"
	"sync"
	"time"
)

type Memory struct {
	played map[string]string
	sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{played: make(map[string]string)}
}

func (m *Memory) TryConsume(_ context.Context, wallet string, now time.Time) (bool, error) {
	m.Lock()
	defer m.Unlock()

	today := dayKey(now)
	if m.played[wallet] == today {
		return false, nil
	}
	m.played[wallet] = today

	return true, nil
}

func (m *Memory) Release(_ context.Context, wallet string, now time.Time) error {
	m.Lock()
	defer m.Unlock()

	if m.played[wallet] == dayKey(now) {
		delete(m.played, wallet)
	}
	return nil
}

func (m *Memory) Status(_ context.Context, wallet string, now time.Time) (Status, error) {
	m.Lock()
	defer m.Unlock()

	if m.played[wallet] == dayKey(now) {
		return Status{Available: false, NextAvailableAt: NextReset(now)}, nil
	}
	return Status{Available: true, NextAvailableAt: now}, nil
}
