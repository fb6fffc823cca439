package storage

import (
	"webweaver/internal/model"
)

// HistoryStore 生成历史：按时间顺序追加，按下标读取和删除
type HistoryStore interface {
	Append(record *model.ChatRecord) error
	List() ([]model.ChatRecord, error)
	Get(index int) (*model.ChatRecord, error)
	Delete(index int) error

	// 存储管理
	Init() error
	Close() error
}
