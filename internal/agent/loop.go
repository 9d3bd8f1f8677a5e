package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/insightdb/insightdb/internal/tools"
)

// ErrBudgetExceeded is the terminal failure of the reasoning loop: the
// step budget ran out before the model produced a final answer.
var ErrBudgetExceeded = errors.New("reasoning step budget exhausted")

// State of the bounded reasoning loop. Transitions are driven by parsed
// model output; the transition count is capped by the step budget.
type State string

const (
	StateThinking           State = "thinking"
	StateAwaitingToolResult State = "awaiting_tool_result"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// ToolCall is a tool invocation request parsed from the model reply.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// modelTurn is one parsed exchange with the model: the text it produced,
// the tool calls it requested, and the assistant message to replay on the
// next turn.
type modelTurn struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	Replay     anthropic.MessageParam
}

// turnClient performs a single model exchange. The SDK call and reply
// parsing live behind this seam so the loop can be driven by a scripted
// model in tests.
type turnClient interface {
	Turn(ctx context.Context, system string, messages []anthropic.MessageParam, toolParams []anthropic.ToolUnionUnionParam) (*modelTurn, error)
}

// Agent runs the multi-turn tool-calling loop against Anthropic Claude or
// a compatible provider.
type Agent struct {
	turns    turnClient
	maxSteps int
}

func NewAgent(apiKey, model, baseURL string, maxSteps int) *Agent {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	if maxSteps <= 0 {
		maxSteps = 10
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Agent{
		turns: &anthropicTurns{
			client:    anthropic.NewClient(opts...),
			model:     model,
			maxTokens: 4096,
		},
		maxSteps: maxSteps,
	}
}

// Run drives the state machine: Thinking → (tool calls) →
// AwaitingToolResult → Thinking … until Done or the budget fails the
// loop. Tool execution errors are recovered locally — they are fed back
// to the model as tool results, they never abort the loop. Returns
// (finalText, toolsUsed, error).
func (a *Agent) Run(ctx context.Context, systemPrompt, userPrompt string, agentTools []tools.Tool) (string, []string, error) {
	toolParams := make([]anthropic.ToolUnionUnionParam, len(agentTools))
	for i, t := range agentTools {
		toolParams[i] = anthropic.ToolParam{
			Name:        anthropic.String(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.F[interface{}](t.InputSchema),
		}
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}

	var toolsUsed []string
	state := StateThinking

	for step := 0; step < a.maxSteps; step++ {
		turn, err := a.turns.Turn(ctx, systemPrompt, messages, toolParams)
		if err != nil {
			return "", toolsUsed, fmt.Errorf("LLM call failed: %w", err)
		}

		log.Debug().
			Int("step", step).
			Str("state", string(state)).
			Str("stop_reason", turn.StopReason).
			Int("tool_calls", len(turn.ToolCalls)).
			Msg("agent step")

		if len(turn.ToolCalls) == 0 || turn.StopReason == "end_turn" {
			state = StateDone
			return turn.Text, toolsUsed, nil
		}

		state = StateAwaitingToolResult
		messages = append(messages, turn.Replay)

		var toolResults []anthropic.ContentBlockParamUnion
		for _, tc := range turn.ToolCalls {
			toolsUsed = append(toolsUsed, tc.Name)
			result, execErr := executeTool(ctx, tc, agentTools)
			if execErr != nil {
				log.Warn().Err(execErr).Str("tool", tc.Name).Msg("tool execution error")
				result = fmt.Sprintf("error: %v", execErr)
			}
			toolResults = append(toolResults, anthropic.NewToolResultBlock(tc.ID, result, execErr != nil))
		}
		messages = append(messages, anthropic.NewUserMessage(toolResults...))
		state = StateThinking
	}

	return "", toolsUsed, fmt.Errorf("%w (max %d steps)", ErrBudgetExceeded, a.maxSteps)
}

func executeTool(ctx context.Context, tc ToolCall, agentTools []tools.Tool) (string, error) {
	for _, t := range agentTools {
		if t.Name == tc.Name {
			return t.Execute(ctx, tc.Input)
		}
	}
	return "", fmt.Errorf("unknown tool: %s", tc.Name)
}

// anthropicTurns is the production turnClient backed by the SDK.
type anthropicTurns struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func (t *anthropicTurns) Turn(ctx context.Context, system string, messages []anthropic.MessageParam, toolParams []anthropic.ToolUnionUnionParam) (*modelTurn, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(t.model)),
		MaxTokens: anthropic.F(int64(t.maxTokens)),
		Messages:  anthropic.F(messages),
		Tools:     anthropic.F(toolParams),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := t.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	turn := &modelTurn{
		StopReason: string(resp.StopReason),
		Replay:     resp.ToParam(),
	}
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			turn.Text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if err := json.Unmarshal(b.Input, &input); err != nil {
				// recovered locally: the tool reports the bad input
				log.Warn().Err(err).Str("tool", b.Name).Msg("failed to parse tool input")
				input = map[string]interface{}{}
			}
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{
				ID:    b.ID,
				Name:  b.Name,
				Input: input,
			})
		}
	}
	return turn, nil
}
