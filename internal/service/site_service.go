package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"webweaver/internal/artifact"
	"webweaver/internal/classify"
	"webweaver/internal/fence"
	"webweaver/internal/metrics"
	"webweaver/internal/model"
	"webweaver/internal/page"
	"webweaver/internal/publish"
	"webweaver/internal/storage"
	"webweaver/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrAgentFailed    = errors.New("agent failed")
)

const (
	// LatestIndex Preview 中表示最新一条记录
	LatestIndex = -1

	labelRunes   = 30
	previewTitle = "Web Preview"
)

// SiteService 一次生成的完整流程：驱动 -> 提取 -> 写文件 -> 打包 -> 历史 -> 发布
type SiteService struct {
	mu        sync.Mutex
	driver    Driver
	writer    *artifact.Writer
	store     storage.HistoryStore
	publisher publish.Publisher
	timeout   time.Duration
	now       func() time.Time
}

// NewSiteService publisher 可以为 nil
func NewSiteService(driver Driver, writer *artifact.Writer, store storage.HistoryStore, publisher publish.Publisher, timeout time.Duration) *SiteService {
	return &SiteService{
		driver:    driver,
		writer:    writer,
		store:     store,
		publisher: publisher,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (s *SiteService) Workspace() artifact.Workspace {
	return s.writer.Workspace()
}

func validate(req *model.GenerateRequest) (classify.Theme, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	theme, err := classify.ParseTheme(req.Theme)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return theme, nil
}

// Generate 驱动失败时返回 status=failed 的报告和 ErrAgentFailed，不写文件也不记历史；
// 文件系统错误原样向上返回
func (s *SiteService) Generate(ctx context.Context, req *model.GenerateRequest) (*model.GenerationReport, error) {
	theme, err := validate(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	pm := progressFrom(ctx)
	report := &model.GenerationReport{
		ID:     uuid.New().String(),
		Domain: string(classify.DetectDomain(req.Prompt)),
	}
	log := logger.WithFields(logger.Fields{"generation_id": report.ID})
	log.Infof("generation started: domain=%s theme=%s", report.Domain, theme)

	finish := func(status model.GenerationStatus) {
		report.Status = status
		elapsed := time.Since(start)
		report.DurationMs = elapsed.Milliseconds()
		metrics.GenerationsTotal.WithLabelValues(string(status)).Inc()
		metrics.GenerationDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
	}

	pm.SendEvent(EventStage, "agent", "running generation agent", nil, nil)
	driverCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		driverCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	raw, err := s.driver.Generate(driverCtx, Instruction{
		Prompt: req.Prompt,
		Theme:  string(theme),
		Header: req.Header,
		Hero:   req.Hero,
		Footer: req.Footer,
	})
	if err != nil {
		report.Message = fmt.Sprintf("Agent failed to generate website: %v", err)
		finish(model.StatusFailed)
		log.Errorf("agent failed: %v", err)
		pm.SendEvent(EventStage, "agent", "agent failed", nil, err)
		return report, fmt.Errorf("%w: %v", ErrAgentFailed, err)
	}

	fragments := fence.Extract(raw)
	report.Fragments = fragments.Counts()
	pm.SendEvent(EventStage, "extract", "code blocks extracted", map[string]interface{}{
		"fragments": report.Fragments,
	}, nil)

	out, err := s.writer.Write(ctx, fragments, req.Prompt)
	if err != nil {
		finish(model.StatusFailed)
		return nil, err
	}
	report.Target = string(out.Target)
	report.Files = out.Manifest.BaseNames()
	report.Warnings = append(report.Warnings, out.Warnings...)
	hero := out.HeroImage
	report.HeroImage = &hero
	if hero.Degraded() {
		report.Warnings = append(report.Warnings, "hero image fallback: "+hero.Reason)
	}
	pm.SendEvent(EventStage, "write", "files written", map[string]interface{}{"files": report.Files}, nil)

	archive, err := s.writer.Workspace().Package(out.Manifest)
	if err != nil {
		finish(model.StatusFailed)
		return nil, err
	}
	report.Archive = archive
	pm.SendEvent(EventStage, "package", "archive created", nil, nil)

	if err := s.store.Append(model.NewChatRecord(req.Prompt, raw, s.now())); err != nil {
		finish(model.StatusFailed)
		return nil, err
	}

	if s.publisher != nil {
		location, err := s.publisher.Publish(ctx, report.ID, archive)
		if err != nil {
			log.Warnf("publish failed: %v", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("publish failed: %v", err))
		} else {
			report.PublishedTo = location
			pm.SendEvent(EventStage, "publish", "archive published", map[string]interface{}{"location": location}, nil)
		}
	}

	report.Message = "Website generated successfully"
	finish(model.StatusSucceeded)
	log.WithFields(logger.Fields{
		"target":      report.Target,
		"files":       len(report.Files),
		"duration_ms": report.DurationMs,
	}).Info("generation finished")
	return report, nil
}

// History 历史记录标签：prompt 前 30 个字符加 "..."
func (s *SiteService) History() ([]model.HistoryItem, error) {
	records, err := s.store.List()
	if err != nil {
		return nil, err
	}
	items := make([]model.HistoryItem, 0, len(records))
	for i, r := range records {
		items = append(items, model.HistoryItem{
			Index:     i,
			Label:     label(r.Prompt),
			Timestamp: r.Timestamp,
		})
	}
	return items, nil
}

func label(prompt string) string {
	if utf8.RuneCountInString(prompt) > labelRunes {
		prompt = string([]rune(prompt)[:labelRunes])
	}
	return prompt + "..."
}

func (s *SiteService) Record(index int) (*model.ChatRecord, error) {
	return s.store.Get(index)
}

func (s *SiteService) DeleteRecord(index int) error {
	return s.store.Delete(index)
}

func (s *SiteService) resolveIndex(index int) (int, error) {
	if index != LatestIndex {
		return index, nil
	}
	records, err := s.store.List()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, storage.ErrRecordNotFound
	}
	return len(records) - 1, nil
}

// Preview 在内存中重放一条历史记录，不覆盖已写出的文件
func (s *SiteService) Preview(index int) (*model.PreviewResponse, error) {
	index, err := s.resolveIndex(index)
	if err != nil {
		return nil, err
	}
	record, err := s.store.Get(index)
	if err != nil {
		return nil, err
	}

	fragments := fence.Extract(record.Response)
	html := fragments.Join(fence.KeyHTML, artifact.FragmentSeparator)
	css := fragments.Join(fence.KeyCSS, artifact.FragmentSeparator)
	js := fragments.Join(fence.KeyJS, artifact.FragmentSeparator)
	body := strings.NewReplacer("```html", "", "```", "").Replace(html)

	return &model.PreviewResponse{
		Index:     index,
		Timestamp: record.Timestamp,
		Prompt:    record.Prompt,
		HTML:      html,
		CSS:       css,
		JS:        js,
		Content: page.Assemble(page.Spec{
			Title: previewTitle,
			Body:  body,
			CSS:   css,
			JS:    js,
		}, page.Inline),
	}, nil
}

// Hints 前端表单的领域提示
func (s *SiteService) Hints(prompt string) *model.HintsResponse {
	domain := classify.DetectDomain(prompt)
	return &model.HintsResponse{
		Domain:       string(domain),
		Placeholders: classify.Placeholders(domain),
		Themes:       classify.Themes,
	}
}

// Reset 新会话：删除主页面文件
func (s *SiteService) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Workspace().Remove(artifact.IndexFile)
}
