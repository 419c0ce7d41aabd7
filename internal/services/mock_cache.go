package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCache is an in-memory Cache for tests. Values are stored as strings
// and expirations are recorded but not enforced. The Func hooks override the
// default behaviour when set.
type MockCache struct {
	mu     sync.Mutex
	values map[string]string

	PingErr error
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Track calls for testing
	GetCalls []string
	SetCalls []SetCall
}

type SetCall struct {
	Key        string
	Value      interface{}
	Expiration time.Duration
}

// NewMockCache creates an empty mock cache
func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string]string)}
}

var _ Cache = (*MockCache)(nil)

func (m *MockCache) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value, Expiration: expiration})
	hook := m.SetFunc
	m.mu.Unlock()

	if hook != nil {
		return hook(ctx, key, value, expiration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	default:
		m.values[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, key)
	hook := m.GetFunc
	m.mu.Unlock()

	if hook != nil {
		return hook(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *MockCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCache) Close() error { return nil }

func (m *MockCache) WaitForConnection(ctx context.Context) error { return nil }

// Len reports how many keys are stored.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
