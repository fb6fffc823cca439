package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"webweaver/internal/config"
	"webweaver/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const (
	nodeInstruction = "InstructionTemplate"
	nodeSiteModel   = "SiteModel"
	nodeTools       = "ToolsNode"

	defaultMaxSteps = 12
)

var ErrEmptyReply = errors.New("model returned an empty reply")

// Instruction 一次生成的输入
type Instruction struct {
	Prompt string
	Theme  string
	Header string
	Hero   string
	Footer string
}

func (in Instruction) variables() map[string]any {
	return map[string]any{
		"prompt": in.Prompt,
		"theme":  in.Theme,
		"header": in.Header,
		"hero":   in.Hero,
		"footer": in.Footer,
	}
}

// Driver 把指令交给生成后端，返回原始回复文本
type Driver interface {
	Generate(ctx context.Context, in Instruction) (string, error)
}

const fenceMarker = "```"

// DefaultInstructionPrompt 内置指令模板（Go template）
var DefaultInstructionPrompt = `You are a website building AI.

Your task is to generate a complete, clean, and modern website using HTML, CSS, and JavaScript for the following input:

Theme: {{.theme}}
Header Text: {{.header}}
Hero Section Text: {{.hero}}
Footer Text: {{.footer}}
User Prompt: {{.prompt}}

Steps to follow:
1. Use the ` + "`domain`" + ` tool to identify the website category.
2. Use ` + "`analyse_websites`" + ` to get design/content inspiration.
3. Use ` + "`generate_seo_tags`" + ` to create meta tags.
4. Generate a modern website with 3 fully connected files: HTML, CSS, and JavaScript.
5. Ensure the navbar links (e.g., Home, About, Contact) work using smooth JS transitions.
6. Include at least 1 interactive JavaScript feature: e.g., dark mode, scroll animation, or form validation.

Your response must include 3 code blocks ONLY in this exact format:

` + fenceMarker + `html
<!-- Full HTML including <head>, SEO tags, and complete <body> -->
` + fenceMarker + `

` + fenceMarker + `css
/* Full CSS for layout, theme, responsiveness */
` + fenceMarker + `

` + fenceMarker + `js
// JavaScript must be included
` + fenceMarker + `

Do NOT skip any of the 3 sections.
Do NOT include markdown, explanations, or additional comments outside the code blocks.
`

type agentState struct {
	history []*schema.Message
}

// AgentDriver eino Graph：指令模板 -> 模型 <-> 工具，模型不再调用工具时结束
type AgentDriver struct {
	runnable compose.Runnable[map[string]any, *schema.Message]
	maxSteps int
}

func newInstructionTemplate(cfg config.AgentConfig) prompt.ChatTemplate {
	instruction := cfg.InstructionPrompt
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstructionPrompt
	}

	msgs := []schema.MessagesTemplate{}
	if cfg.SystemPrompt != "" {
		msgs = append(msgs, schema.SystemMessage(cfg.SystemPrompt))
	}
	msgs = append(msgs, schema.UserMessage(instruction))
	return prompt.FromMessages(schema.GoTemplate, msgs...)
}

// NewAgentDriver tools 为空或 EnableTools=false 时退化为单次模型调用
func NewAgentDriver(ctx context.Context, cm einoModel.ChatModel, tools []tool.BaseTool, cfg config.AgentConfig) (*AgentDriver, error) {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	if !cfg.EnableTools {
		tools = nil
	}

	runnable, err := composeGraph(ctx, cm, tools, cfg)
	if err != nil {
		return nil, fmt.Errorf("compose agent graph: %w", err)
	}
	return &AgentDriver{runnable: runnable, maxSteps: maxSteps}, nil
}

func composeGraph(ctx context.Context, cm einoModel.ChatModel, tools []tool.BaseTool, cfg config.AgentConfig) (compose.Runnable[map[string]any, *schema.Message], error) {
	g := compose.NewGraph[map[string]any, *schema.Message](compose.WithGenLocalState(func(ctx context.Context) *agentState {
		return &agentState{}
	}))

	err := g.AddChatTemplateNode(nodeInstruction, newInstructionTemplate(cfg))
	if err != nil {
		return nil, err
	}

	err = g.AddChatModelNode(
		nodeSiteModel,
		cm,
		compose.WithStatePreHandler(func(ctx context.Context, in []*schema.Message, state *agentState) ([]*schema.Message, error) {
			state.history = append(state.history, in...)
			return state.history, nil
		}),
		compose.WithStatePostHandler(func(ctx context.Context, out *schema.Message, state *agentState) (*schema.Message, error) {
			state.history = append(state.history, out)
			if cfg.LogDetail {
				logger.Debugf("model reply: tool_calls=%d content_len=%d", len(out.ToolCalls), len(out.Content))
			}
			progressFrom(ctx).SendEvent(EventModelReply, nodeSiteModel, "model replied", map[string]interface{}{
				"tool_calls": len(out.ToolCalls),
			}, nil)
			return out, nil
		}),
	)
	if err != nil {
		return nil, err
	}

	err = g.AddEdge(compose.START, nodeInstruction)
	if err != nil {
		return nil, err
	}
	err = g.AddEdge(nodeInstruction, nodeSiteModel)
	if err != nil {
		return nil, err
	}

	if len(tools) == 0 {
		if err = g.AddEdge(nodeSiteModel, compose.END); err != nil {
			return nil, err
		}
		return g.Compile(ctx, compose.WithGraphName("site_agent"))
	}

	tn, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{Tools: tools})
	if err != nil {
		return nil, err
	}
	err = g.AddToolsNode(nodeTools, tn, compose.WithStatePreHandler(func(ctx context.Context, in *schema.Message, state *agentState) (*schema.Message, error) {
		last := state.history[len(state.history)-1]
		for _, tc := range last.ToolCalls {
			logger.WithFields(logger.Fields{
				"tool": tc.Function.Name,
				"args": tc.Function.Arguments,
			}).Info("agent tool call")
			progressFrom(ctx).SendEvent(EventToolCall, nodeTools, tc.Function.Name, map[string]interface{}{
				"arguments": tc.Function.Arguments,
			}, nil)
		}
		return last, nil
	}))
	if err != nil {
		return nil, err
	}

	err = g.AddEdge(nodeTools, nodeSiteModel)
	if err != nil {
		return nil, err
	}

	err = g.AddBranch(nodeSiteModel, compose.NewGraphBranch(func(ctx context.Context, in *schema.Message) (endNode string, err error) {
		if len(in.ToolCalls) > 0 {
			return nodeTools, nil
		}
		return compose.END, nil
	}, map[string]bool{nodeTools: true, compose.END: true}))
	if err != nil {
		return nil, err
	}

	return g.Compile(ctx, compose.WithGraphName("site_agent"))
}

// Generate 运行一次 Graph，返回模型的最终回复
func (d *AgentDriver) Generate(ctx context.Context, in Instruction) (string, error) {
	out, err := d.runnable.Invoke(ctx, in.variables(), compose.WithRuntimeMaxSteps(d.maxSteps))
	if err != nil {
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", ErrEmptyReply
	}
	return out.Content, nil
}
