package model

import (
	"context"
	"errors"
	"fmt"
	"io"

	"webweaver/internal/config"
	"webweaver/internal/utils"
	"webweaver/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

type openaiChatModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	tools       []openai.Tool
}

func newOpenAIChatModel(ctx context.Context, cfg config.OpenAIConfig) (*openaiChatModel, error) {
	logger.WithFields(logger.Fields{
		"model":   cfg.Model,
		"api_key": maskKey(cfg.APIKey),
	}).Info("using openai model")

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = utils.NewHTTPClient(cfg.Timeout)

	return &openaiChatModel{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (m *openaiChatModel) buildRequest(messages []*schema.Message, opts ...einoModel.Option) (openai.ChatCompletionRequest, error) {
	options := einoModel.GetCommonOptions(&einoModel.Options{
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
		Temperature: &m.temperature,
	}, opts...)

	req := openai.ChatCompletionRequest{
		Model:    *options.Model,
		Messages: convertMessages(messages),
		Tools:    m.tools,
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		req.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil && *options.Temperature > 0 {
		req.Temperature = *options.Temperature
	}
	if len(options.Tools) > 0 {
		tools, err := convertTools(options.Tools)
		if err != nil {
			return req, err
		}
		req.Tools = tools
	}
	return req, nil
}

// Generate 实现 eino ChatModel 接口
func (m *openaiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	req, err := m.buildRequest(messages, opts...)
	if err != nil {
		return nil, err
	}

	logger.Debugf("openai generate: model=%s messages=%d tools=%d", req.Model, len(req.Messages), len(req.Tools))

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	choice := resp.Choices[0].Message
	out := &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Content,
	}
	for i, tc := range choice.ToolCalls {
		idx := i
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			Index: &idx,
			ID:    tc.ID,
			Type:  string(tc.Type),
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out, nil
}

func (m *openaiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	req, err := m.buildRequest(messages, opts...)
	if err != nil {
		return nil, err
	}
	req.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	reader, writer := schema.Pipe[*schema.Message](100)
	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				writer.Send(nil, err)
				return
			}
			if len(response.Choices) == 0 {
				continue
			}

			delta := response.Choices[0].Delta
			msg := &schema.Message{Role: schema.Assistant, Content: delta.Content}
			for _, tc := range delta.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
					Index: tc.Index,
					ID:    tc.ID,
					Type:  string(tc.Type),
					Function: schema.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				continue
			}
			if closed := writer.Send(msg, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

// BindTools 工具以 function calling 形式随每次请求发送
func (m *openaiChatModel) BindTools(tools []*schema.ToolInfo) error {
	converted, err := convertTools(tools)
	if err != nil {
		return err
	}
	m.tools = converted
	return nil
}

func convertTools(tools []*schema.ToolInfo) ([]openai.Tool, error) {
	result := make([]openai.Tool, 0, len(tools))
	for _, info := range tools {
		def := &openai.FunctionDefinition{
			Name:        info.Name,
			Description: info.Desc,
		}
		if info.ParamsOneOf != nil {
			params, err := info.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return nil, fmt.Errorf("convert params of tool %s: %w", info.Name, err)
			}
			def.Parameters = params
		}
		result = append(result, openai.Tool{Type: openai.ToolTypeFunction, Function: def})
	}
	return result, nil
}

func convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out := openai.ChatCompletionMessage{Content: msg.Content}

		switch msg.Role {
		case schema.System:
			out.Role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			out.Role = openai.ChatMessageRoleAssistant
			for _, tc := range msg.ToolCalls {
				out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			// 空的 assistant 消息会被接口拒绝
			if out.Content == "" && len(out.ToolCalls) == 0 {
				continue
			}
		case schema.Tool:
			out.Role = openai.ChatMessageRoleTool
			out.ToolCallID = msg.ToolCallID
		default:
			out.Role = openai.ChatMessageRoleUser
		}
		result = append(result, out)
	}
	return result
}
