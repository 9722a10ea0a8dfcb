// Package storage loads week requests and saves plan artifacts on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Object is a single named blob.
type Object interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// MemoryObject is a simple in-memory implementation for testing
type MemoryObject struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func NewMemoryObject(data []byte) *MemoryObject {
	return &MemoryObject{data: data}
}

func NewMemoryObjectWithError() *MemoryObject {
	return &MemoryObject{err: errors.New("not found")}
}

func (m *MemoryObject) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

func (m *MemoryObject) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), data...)
	return nil
}

// Bytes returns whatever was last saved.
func (m *MemoryObject) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}
