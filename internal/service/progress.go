package service

import (
	"context"
	"sync"
	"time"

	"webweaver/pkg/logger"
)

// ProgressEvent 一次生成过程中的进度事件
type ProgressEvent struct {
	EventType string                 `json:"event_type"` // stage, tool_call, model_reply
	Stage     string                 `json:"stage"`
	GenID     string                 `json:"generation_id,omitempty"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

const (
	EventStage      = "stage"
	EventToolCall   = "tool_call"
	EventModelReply = "model_reply"
)

// ProgressManager 收集进度事件，供 SSE 推送
type ProgressManager struct {
	mu           sync.Mutex
	progressChan chan ProgressEvent
	genID        string
	closed       bool
}

func NewProgressManager(genID string) *ProgressManager {
	return &ProgressManager{
		progressChan: make(chan ProgressEvent, 100),
		genID:        genID,
	}
}

// SendEvent 非阻塞发送，通道满时丢弃
func (pm *ProgressManager) SendEvent(eventType, stage, message string, data map[string]interface{}, err error) {
	if pm == nil {
		return
	}
	event := ProgressEvent{
		EventType: eventType,
		Stage:     stage,
		GenID:     pm.genID,
		Message:   message,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err != nil {
		event.Error = err.Error()
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.closed {
		return
	}
	select {
	case pm.progressChan <- event:
	default:
		logger.Warn("progress channel is full, dropping event")
	}
}

func (pm *ProgressManager) Events() <-chan ProgressEvent {
	return pm.progressChan
}

// Close 可重复调用
func (pm *ProgressManager) Close() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if !pm.closed {
		pm.closed = true
		close(pm.progressChan)
	}
}

type progressKey struct{}

// WithProgress 把进度管理器挂到 ctx 上，Driver 和 SiteService 从这里取
func WithProgress(ctx context.Context, pm *ProgressManager) context.Context {
	return context.WithValue(ctx, progressKey{}, pm)
}

func progressFrom(ctx context.Context) *ProgressManager {
	pm, _ := ctx.Value(progressKey{}).(*ProgressManager)
	return pm
}
