// Package llm wraps the Anthropic SDK for the single-shot completions the
// pipeline makes: classification, query synthesis, and the presentation
// calls. The multi-turn tool loop lives in internal/agent.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultModel = "claude-sonnet-4-6"

// Client is a thin wrapper holding the model and request budget.
type Client struct {
	api       *anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClient creates a client for Anthropic or a compatible provider.
func NewClient(apiKey, model, baseURL string, timeoutSec int) *Client {
	if model == "" {
		model = defaultModel
	}
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 2048,
		timeout:   time.Duration(timeoutSec) * time.Second,
	}
}

// Model returns the configured model ID.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one prompt and returns the text of the reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(c.maxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		}),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := c.api.Messages.New(callCtx, params)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}
	return text, nil
}

// ToolSpec describes the single tool handed to the model to force a
// structured reply.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// CompleteWithTool sends one prompt together with a tool definition and
// returns the raw JSON input of the tool invocation. When the model
// answers in plain text instead of calling the tool, the reply is scanned
// for an embedded JSON object as a fallback.
func (c *Client) CompleteWithTool(ctx context.Context, system, user string, tool ToolSpec) (json.RawMessage, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	toolParam := anthropic.ToolParam{
		Name:        anthropic.String(tool.Name),
		Description: anthropic.String(tool.Description),
		InputSchema: anthropic.F[interface{}](tool.InputSchema),
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(c.maxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		}),
		Tools: anthropic.F([]anthropic.ToolUnionUnionParam{toolParam}),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := c.api.Messages.New(callCtx, params)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.ToolUseBlock:
			if b.Name == tool.Name {
				return json.RawMessage(b.Input), nil
			}
		case anthropic.TextBlock:
			text += b.Text
		}
	}

	if raw := ExtractJSON(text); raw != "" {
		return json.RawMessage(raw), nil
	}
	return nil, fmt.Errorf("no %s tool call in model reply", tool.Name)
}

// ExtractJSON pulls the first JSON object out of model text, stripping
// any ``` fencing around it. Returns "" when no object is found.
func ExtractJSON(text string) string {
	// Prefer the content of a fenced block if one exists.
	if i := strings.Index(text, "```"); i != -1 {
		body := text[i+3:]
		if nl := strings.IndexByte(body, '\n'); nl != -1 {
			firstLine := strings.TrimSpace(body[:nl])
			if firstLine == "json" || firstLine == "JSON" || firstLine == "" {
				body = body[nl+1:]
			}
		}
		if end := strings.Index(body, "```"); end != -1 {
			text = body[:end]
		}
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	candidate := strings.TrimSpace(text[start : end+1])
	if !json.Valid([]byte(candidate)) {
		return ""
	}
	return candidate
}
