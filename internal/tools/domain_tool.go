package tools

import (
	"context"

	"webweaver/internal/classify"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const DomainToolName = "domain"

// DomainTool implements tool.InvokableTool for website category detection
type DomainTool struct{}

type domainInput struct {
	Prompt string `json:"prompt"`
}

func (t *DomainTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: DomainToolName,
		Desc: "Identify the website category from the user prompt. Returns one of: restaurant, portfolio, blog, ecommerce, agency, generic.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"prompt": {
				Type:     schema.String,
				Desc:     "The user's website description",
				Required: true,
			},
		}),
	}, nil
}

func (t *DomainTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in domainInput
	if msg, ok := parseArgs(DomainToolName, argumentsInJSON, &in); !ok {
		return msg, nil
	}

	observe(DomainToolName, outcomeOK)
	return string(classify.DetectDomain(in.Prompt)), nil
}
