package tools

import (
	"context"
	"fmt"
	"strings"

	"webweaver/internal/classify"
	"webweaver/internal/config"
	"webweaver/pkg/logger"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const AnalyseWebsitesToolName = "analyse_websites"

var defaultReferenceSites = map[classify.Domain][]string{
	classify.DomainRestaurant: {"https://sweetgreen.com", "https://chipotle.com"},
	classify.DomainPortfolio:  {"https://brittanychiang.com"},
	classify.DomainEcommerce:  {"https://zara.com"},
	classify.DomainAgency:     {"https://ustwo.com"},
}

// AnalyseWebsitesTool 抓取同领域的参考站点，给模型提供设计灵感
type AnalyseWebsitesTool struct {
	analyzer SiteAnalyzer
	enabled  bool
	sites    map[classify.Domain][]string
}

type analyseWebsitesInput struct {
	Domain string `json:"domain"`
}

// NewAnalyseWebsitesTool 配置中的站点列表按领域覆盖默认值
func NewAnalyseWebsitesTool(analyzer SiteAnalyzer, cfg config.CrawlConfig) *AnalyseWebsitesTool {
	sites := make(map[classify.Domain][]string, len(defaultReferenceSites))
	for d, urls := range defaultReferenceSites {
		sites[d] = urls
	}
	for name, urls := range cfg.Sites {
		sites[classify.Domain(strings.ToLower(strings.TrimSpace(name)))] = urls
	}
	return &AnalyseWebsitesTool{
		analyzer: analyzer,
		enabled:  cfg.Enabled,
		sites:    sites,
	}
}

func (t *AnalyseWebsitesTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: AnalyseWebsitesToolName,
		Desc: "Analyze well-known websites in a given domain and return their titles, descriptions, keywords and headings as design and content inspiration.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"domain": {
				Type:     schema.String,
				Desc:     "Website category, e.g. restaurant, portfolio, ecommerce, agency",
				Required: true,
			},
		}),
	}, nil
}

func (t *AnalyseWebsitesTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in analyseWebsitesInput
	if msg, ok := parseArgs(AnalyseWebsitesToolName, argumentsInJSON, &in); !ok {
		return msg, nil
	}
	return t.Analyse(ctx, in.Domain), nil
}

// Analyse 单个站点失败只影响它自己的文本块
func (t *AnalyseWebsitesTool) Analyse(ctx context.Context, domain string) string {
	if !t.enabled || t.analyzer == nil {
		observe(AnalyseWebsitesToolName, outcomeOK)
		return "Reference site analysis is disabled."
	}

	urls := t.sites[classify.Domain(strings.ToLower(strings.TrimSpace(domain)))]
	if len(urls) == 0 {
		observe(AnalyseWebsitesToolName, outcomeOK)
		return "No reference websites found for this domain."
	}

	blocks := make([]string, 0, len(urls))
	failed := 0
	for _, url := range urls {
		summary, err := t.analyzer.Analyze(ctx, url)
		if err != nil {
			failed++
			logger.Warnf("analyse %s failed: %v", url, err)
			blocks = append(blocks, fmt.Sprintf("Failed to analyze %s: %v", url, err))
			continue
		}
		blocks = append(blocks, summary.String())
	}

	if failed == len(urls) {
		observe(AnalyseWebsitesToolName, outcomeError)
	} else {
		observe(AnalyseWebsitesToolName, outcomeOK)
	}
	return strings.Join(blocks, "\n\n")
}
