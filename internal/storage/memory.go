package storage

import (
	"fmt"
	"sync"

	"webweaver/internal/model"
)

type MemoryStorage struct {
	records []model.ChatRecord
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Append(record *model.ChatRecord) error {
	if record == nil {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, *record)
	return nil
}

func (m *MemoryStorage) List() ([]model.ChatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneRecords(m.records), nil
}

func (m *MemoryStorage) Get(index int) (*model.ChatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.records) {
		return nil, fmt.Errorf("%w: index %d", ErrRecordNotFound, index)
	}
	record := m.records[index]
	return &record, nil
}

func (m *MemoryStorage) Delete(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.records) {
		return fmt.Errorf("%w: index %d", ErrRecordNotFound, index)
	}
	m.records = append(m.records[:index:index], m.records[index+1:]...)
	return nil
}
