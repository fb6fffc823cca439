package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"webweaver/internal/config"
	"webweaver/pkg/logger"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// SiteSummary 参考站点的摘要
type SiteSummary struct {
	URL         string
	Title       string
	Description string
	Keywords    []string
	Headings    []string
}

// String 拼成给模型阅读的文本块
func (s *SiteSummary) String() string {
	var b strings.Builder
	b.WriteString(s.URL)
	if s.Title != "" {
		fmt.Fprintf(&b, "\nTitle: %s", s.Title)
	}
	summary := s.Description
	if summary == "" {
		summary = "no description"
	}
	fmt.Fprintf(&b, "\nSummary: %s", summary)
	fmt.Fprintf(&b, "\nKeywords: [%s]", strings.Join(s.Keywords, ", "))
	if len(s.Headings) > 0 {
		fmt.Fprintf(&b, "\nHeadings: %s", strings.Join(s.Headings, " | "))
	}
	return b.String()
}

// SiteAnalyzer 抓取单个站点并生成摘要
type SiteAnalyzer interface {
	Analyze(ctx context.Context, url string) (*SiteSummary, error)
}

// CollyAnalyzer 基于 colly 的单页抓取
type CollyAnalyzer struct {
	timeout         time.Duration
	randomUserAgent bool
	maxHeadings     int
}

func NewCollyAnalyzer(cfg config.CrawlConfig) *CollyAnalyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxHeadings := cfg.MaxHeadings
	if maxHeadings <= 0 {
		maxHeadings = 8
	}
	return &CollyAnalyzer{
		timeout:         timeout,
		randomUserAgent: cfg.RandomUserAgent,
		maxHeadings:     maxHeadings,
	}
}

func (a *CollyAnalyzer) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(a.timeout)
	if a.randomUserAgent {
		extensions.RandomUserAgent(c)
	}
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	return c
}

func (a *CollyAnalyzer) Analyze(ctx context.Context, url string) (*SiteSummary, error) {
	summary := &SiteSummary{URL: url}
	var visitErr error

	c := a.newCollector(ctx)

	c.OnHTML("head > title", func(e *colly.HTMLElement) {
		if summary.Title == "" {
			summary.Title = strings.TrimSpace(e.Text)
		}
	})

	c.OnHTML("meta[name]", func(e *colly.HTMLElement) {
		content := strings.TrimSpace(e.Attr("content"))
		switch strings.ToLower(e.Attr("name")) {
		case "description":
			if summary.Description == "" {
				summary.Description = content
			}
		case "keywords":
			for _, kw := range strings.Split(content, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					summary.Keywords = append(summary.Keywords, kw)
				}
			}
		}
	})

	c.OnHTML("h1, h2", func(e *colly.HTMLElement) {
		if len(summary.Headings) >= a.maxHeadings {
			return
		}
		text := strings.Join(strings.Fields(e.Text), " ")
		if text != "" {
			summary.Headings = append(summary.Headings, text)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(url); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	c.Wait()

	if visitErr != nil {
		return nil, visitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"url":      url,
		"title":    summary.Title,
		"headings": len(summary.Headings),
	}).Debug("reference site analyzed")

	return summary, nil
}
