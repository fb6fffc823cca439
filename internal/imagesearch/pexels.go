// Package imagesearch 为首屏背景查找图片，任何失败都退回固定的占位图
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"webweaver/internal/config"
	"webweaver/internal/metrics"
	"webweaver/internal/utils"
	"webweaver/pkg/logger"
)

const DefaultFallbackURL = "https://picsum.photos/800/400"

type Source string

const (
	SourceLookup   Source = "lookup"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Result 查找结果，URL 总是可用
type Result struct {
	URL    string `json:"url"`
	Source Source `json:"source"`
	Reason string `json:"reason,omitempty"`
}

// Degraded 是否使用了占位图
func (r Result) Degraded() bool {
	return r.Source == SourceFallback
}

type Searcher interface {
	Lookup(ctx context.Context, query string) Result
}

type Client struct {
	apiKey       string
	baseURL      string
	fallbackURL  string
	defaultQuery string
	httpClient   *http.Client
	cache        Cache
	cacheTTL     time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

func NewClient(cfg config.ImageConfig, opts ...Option) *Client {
	c := &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		fallbackURL:  cfg.FallbackURL,
		defaultQuery: cfg.DefaultQuery,
		httpClient:   utils.NewHTTPClient(cfg.Timeout),
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.pexels.com"
	}
	if c.fallbackURL == "" {
		c.fallbackURL = DefaultFallbackURL
	}
	if c.defaultQuery == "" {
		c.defaultQuery = "modern website"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Photos []struct {
		Src struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// Lookup 不返回错误：缺少密钥、请求失败、无结果都会得到占位图
func (c *Client) Lookup(ctx context.Context, query string) Result {
	res := c.lookup(ctx, query)
	metrics.ImageLookups.WithLabelValues(string(res.Source)).Inc()
	if res.Degraded() {
		logger.Warnf("Hero image lookup degraded to fallback: %s", res.Reason)
	}
	return res
}

func (c *Client) lookup(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		query = c.defaultQuery
	}

	if c.apiKey == "" {
		return c.fallback("missing image search api key")
	}

	key := cacheKey(query)
	if c.cache != nil {
		if cached, ok, err := c.cache.Get(ctx, key); err != nil {
			logger.Debugf("Image cache get failed: %v", err)
		} else if ok {
			return Result{URL: cached, Source: SourceCache}
		}
	}

	imageURL, err := c.search(ctx, query)
	if err != nil {
		return c.fallback(err.Error())
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, imageURL, c.cacheTTL); err != nil {
			logger.Debugf("Image cache set failed: %v", err)
		}
	}
	return Result{URL: imageURL, Source: SourceLookup}
}

func (c *Client) search(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/search?query=%s&per_page=1", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(sr.Photos) == 0 || sr.Photos[0].Src.Large == "" {
		return "", fmt.Errorf("no photos found for %q", query)
	}
	return sr.Photos[0].Src.Large, nil
}

func (c *Client) fallback(reason string) Result {
	return Result{URL: c.fallbackURL, Source: SourceFallback, Reason: reason}
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
