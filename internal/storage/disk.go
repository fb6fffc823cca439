package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"webweaver/internal/model"
	"webweaver/pkg/logger"
)

// DiskStorage 把全部历史保存为一个 JSON 数组文件（4 空格缩进）
type DiskStorage struct {
	path    string
	mu      sync.RWMutex
	records []model.ChatRecord
}

func NewDiskStorage(path string) *DiskStorage {
	return &DiskStorage{path: path}
}

func (d *DiskStorage) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	records, err := d.loadFromFile()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	d.records = records

	logger.Infof("History storage initialized: %s (%d records)", d.path, len(records))
	return nil
}

// 文件不存在视为空历史
func (d *DiskStorage) loadFromFile() ([]model.ChatRecord, error) {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return []model.ChatRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []model.ChatRecord{}, nil
	}

	var records []model.ChatRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return records, nil
}

func (d *DiskStorage) saveToFile(records []model.ChatRecord) error {
	tempPath := d.path + ".tmp"

	// HTML 响应原样保存，不转义 < > &
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, bytes.TrimRight(buf.Bytes(), "\n"), 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, d.path)
}

func (d *DiskStorage) Append(record *model.ChatRecord) error {
	if record == nil {
		return ErrInvalidData
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := append(cloneRecords(d.records), *record)
	if err := d.saveToFile(next); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	d.records = next
	return nil
}

func (d *DiskStorage) List() ([]model.ChatRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return cloneRecords(d.records), nil
}

func (d *DiskStorage) Get(index int) (*model.ChatRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if index < 0 || index >= len(d.records) {
		return nil, fmt.Errorf("%w: index %d", ErrRecordNotFound, index)
	}
	record := d.records[index]
	return &record, nil
}

func (d *DiskStorage) Delete(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.records) {
		return fmt.Errorf("%w: index %d", ErrRecordNotFound, index)
	}

	next := make([]model.ChatRecord, 0, len(d.records)-1)
	next = append(next, d.records[:index]...)
	next = append(next, d.records[index+1:]...)

	if err := d.saveToFile(next); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	d.records = next
	return nil
}

func (d *DiskStorage) Close() error {
	logger.Info("History storage closed")
	return nil
}

func cloneRecords(records []model.ChatRecord) []model.ChatRecord {
	out := make([]model.ChatRecord, len(records))
	copy(out, records)
	return out
}
