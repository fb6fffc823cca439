package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const SEOTagsToolName = "generate_seo_tags"

// SEOTagsTool implements tool.InvokableTool for basic meta tag generation
type SEOTagsTool struct{}

type seoTagsInput struct {
	Title string `json:"title"`
}

func (t *SEOTagsTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: SEOTagsToolName,
		Desc: "Generate basic SEO meta tags (title, description, keywords, author) for a page title.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {
				Type:     schema.String,
				Desc:     "Site or page title",
				Required: true,
			},
		}),
	}, nil
}

func (t *SEOTagsTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in seoTagsInput
	if msg, ok := parseArgs(SEOTagsToolName, argumentsInJSON, &in); !ok {
		return msg, nil
	}

	observe(SEOTagsToolName, outcomeOK)
	return SEOTags(in.Title), nil
}

// SEOTags 固定四行的 meta 块
func SEOTags(title string) string {
	lines := []string{
		fmt.Sprintf("<title>%s</title>", title),
		fmt.Sprintf(`<meta name="description" content="%s - modern responsive website.">`, title),
		fmt.Sprintf(`<meta name="keywords" content="%s, website, modern, responsive">`, strings.ToLower(title)),
		`<meta name="author" content="AI Website Builder Agent">`,
	}
	return strings.Join(lines, "\n")
}
