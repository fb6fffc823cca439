package model

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"webweaver/pkg/logger"
)

var (
	sensitiveHeaders = []string{"authorization", "x-api-key", "x-auth-token", "cookie"}
	sensitiveFields  = regexp.MustCompile(`(?i)"(api_key|apikey|password|secret|token)"\s*:\s*"[^"]*"`)
)

// QwenDebugTransport 打印请求体的 RoundTripper，调试 DashScope 兼容接口用
type QwenDebugTransport struct {
	base         http.RoundTripper
	debugEnabled bool
}

func NewQwenDebugTransport(base http.RoundTripper, debugEnabled bool) *QwenDebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &QwenDebugTransport{base: base, debugEnabled: debugEnabled}
}

func (t *QwenDebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.debugEnabled && req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil && t.debugEnabled {
		logger.Errorf("qwen request failed: %v", err)
	}
	return resp, err
}

func (t *QwenDebugTransport) logRequest(req *http.Request) {
	headers := make(map[string]string, len(req.Header))
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			headers[name] = "[REDACTED]"
			continue
		}
		headers[name] = strings.Join(values, ", ")
	}

	var body string
	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			logger.Errorf("qwen debug: read request body: %v", err)
			return
		}
		// 读完后放回去
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		body = sanitizeBody(string(bodyBytes))
	}

	logger.WithFields(logger.Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": headers,
		"size":    len(body),
	}).Debugf("qwen request body: %s", body)
}

func sanitizeBody(body string) string {
	return sensitiveFields.ReplaceAllString(body, `"$1": "[REDACTED]"`)
}

func isSensitiveHeader(name string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
