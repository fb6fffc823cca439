package model

import (
	"time"

	"webweaver/internal/classify"
	"webweaver/internal/imagesearch"
)

// TimestampLayout 历史记录时间戳格式（ISO-8601，微秒精度，本地时间）
const TimestampLayout = "2006-01-02T15:04:05.000000"

// ChatRecord 一次成功生成的历史记录，只追加不修改
type ChatRecord struct {
	Timestamp string `json:"timestamp"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
}

func NewChatRecord(prompt, response string, now time.Time) *ChatRecord {
	return &ChatRecord{
		Timestamp: now.Format(TimestampLayout),
		Prompt:    prompt,
		Response:  response,
	}
}

type HistoryItem struct {
	Index     int    `json:"index"`
	Label     string `json:"label"`
	Timestamp string `json:"timestamp"`
}

type GenerationStatus string

const (
	StatusSucceeded GenerationStatus = "succeeded"
	StatusFailed    GenerationStatus = "failed"
)

// GenerationReport 一次生成的结果汇总
type GenerationReport struct {
	ID          string              `json:"id"`
	Status      GenerationStatus    `json:"status"`
	Message     string              `json:"message,omitempty"`
	Target      string              `json:"target,omitempty"`
	Domain      string              `json:"domain,omitempty"`
	Files       []string            `json:"files,omitempty"`
	Archive     string              `json:"archive,omitempty"`
	HeroImage   *imagesearch.Result `json:"hero_image,omitempty"`
	Fragments   map[string]int      `json:"fragments,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	PublishedTo string              `json:"published_to,omitempty"`
	DurationMs  int64               `json:"duration_ms"`
}

type HintsResponse struct {
	Domain       string               `json:"domain"`
	Placeholders classify.Placeholder `json:"placeholders"`
	Themes       []classify.Theme     `json:"themes"`
}

// PreviewResponse Content 为内联样式和脚本的完整文档
type PreviewResponse struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Prompt    string `json:"prompt"`
	HTML      string `json:"html"`
	CSS       string `json:"css"`
	JS        string `json:"js"`
	Content   string `json:"content"`
}
