package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/gitforge/gitforge/core"
)

// OpenAIOptions configures the OpenAI agent adapter. BaseURL makes the
// adapter serve cursor-style OpenAI-compatible endpoints as well.
type OpenAIOptions struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
	System              string
}

// OpenAI serves the bgpt and cursor agent ids through the Chat Completions
// API.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI creates an OpenAI agent using the official client.
func NewOpenAI(optFns ...func(o *OpenAIOptions)) *OpenAI {
	opts := OpenAIOptions{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		System:              "You are a coding assistant embedded in a Git workspace. Answer concisely.",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAI{client: &client, opts: opts}
}

// NewOpenAIFromClient wraps an existing client, mainly for tests.
func NewOpenAIFromClient(client *openai.Client, optFns ...func(o *OpenAIOptions)) *OpenAI {
	opts := OpenAIOptions{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAI{client: client, opts: opts}
}

// Execute sends the command as a single user message and returns the first
// choice's content.
func (o *OpenAI) Execute(ctx context.Context, agent core.AgentID, command string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if o.opts.System != "" {
		messages = append(messages, openai.SystemMessage(o.opts.System))
	}
	messages = append(messages, openai.UserMessage(command))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               o.opts.Model,
		Messages:            messages,
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
