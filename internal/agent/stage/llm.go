package stage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Completer sends one system+user prompt pair to a model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMExecutor runs a stage by prompting a model with the stage persona.
type LLMExecutor struct {
	completer Completer
	persona   Persona
	task      Task
	timeout   time.Duration
}

func NewLLMExecutor(c Completer, stageName string, timeout time.Duration) (*LLMExecutor, error) {
	persona, ok := personas[stageName]
	if !ok {
		return nil, fmt.Errorf("no persona for stage %q", stageName)
	}
	return &LLMExecutor{
		completer: c,
		persona:   persona,
		task:      tasks[stageName],
		timeout:   timeout,
	}, nil
}

func (e *LLMExecutor) Run(ctx context.Context, in Input) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	out, err := e.completer.Complete(ctx, SystemPrompt(e.persona, in.Query), UserPrompt(e.task, in))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty completion from %s", e.persona.Role)
	}
	return out, nil
}

type GeminiCompleter struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model, maxTokens: int32(maxTokens)}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			MaxOutputTokens:   g.maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return resp.Text(), nil
}

type OpenAICompleter struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAICompleter(apiKey, model string, maxTokens int) *OpenAICompleter {
	return &OpenAICompleter{client: openai.NewClient(apiKey), model: model, maxTokens: maxTokens}
}

func (o *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// reasoning models reject max_tokens
	if isReasoningModel(o.model) {
		req.MaxCompletionTokens = o.maxTokens
	} else {
		req.MaxTokens = o.maxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
