package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/parse"
	"github.com/leofalp/aigoflow/internal/utils"
	"github.com/leofalp/aigoflow/providers/observability"
)

// Type is the node type name.
const Type = "llm"

const (
	// DefaultModel is used when the node does not configure one.
	DefaultModel = openai.GPT4oMini
	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 60 * time.Second
)

// ErrNoChoices is returned when the endpoint answers without any choice.
var ErrNoChoices = errors.New("completion returned no choices")

// ChatClient is the subset of the go-openai client used by the node.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ResponseFormat selects how the reply is emitted.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Config is decoded from the node data.
type Config struct {
	Model          string         `mapstructure:"model"`
	Prompt         string         `mapstructure:"prompt"`
	SystemPrompt   string         `mapstructure:"systemPrompt"`
	Temperature    *float32       `mapstructure:"temperature"`
	MaxTokens      int            `mapstructure:"maxTokens"`
	ResponseFormat ResponseFormat `mapstructure:"responseFormat"`
	TimeoutSeconds int            `mapstructure:"timeoutSeconds"`
}

// Node calls the chat completion endpoint once per execution.
type Node struct {
	client ChatClient
	config Config
}

// NewConstructor returns an engine.Constructor bound to client.
func NewConstructor(client ChatClient) engine.Constructor {
	return func(scope engine.Scope) (engine.Node, error) {
		var config Config
		if err := engine.DecodeConfig(scope.Data(), &config); err != nil {
			return nil, err
		}
		return NewNode(client, config)
	}
}

// NewNode creates an llm node.
func NewNode(client ChatClient, config Config) (*Node, error) {
	if client == nil {
		return nil, errors.New("llm node requires a chat client; set OPENAI_API_KEY or provide one")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Prompt == "" {
		config.Prompt = utils.InputPlaceholder
	}
	switch config.ResponseFormat {
	case "":
		config.ResponseFormat = FormatText
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown response format %q", config.ResponseFormat)
	}
	return &Node{client: client, config: config}, nil
}

// Execute renders the prompt with input and returns the completion.
func (n *Node) Execute(ctx context.Context, input any) (any, error) {
	if engine.IsEmptyInput(input) {
		input = ""
	}
	request := n.buildRequest(utils.RenderTemplate(n.config.Prompt, input))

	timeout := DefaultTimeout
	if n.config.TimeoutSeconds > 0 {
		timeout = time.Duration(n.config.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMModel, request.Model))
	}

	response, err := n.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, ErrNoChoices
	}
	choice := response.Choices[0]

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMFinishReason, string(choice.FinishReason)),
			observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
		)
	}

	content := choice.Message.Content
	if n.config.ResponseFormat == FormatJSON {
		parsed, err := parse.ParseJSON(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completion as JSON: %w", err)
		}
		return parsed, nil
	}
	return content, nil
}

func (n *Node) buildRequest(prompt string) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if n.config.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: n.config.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	request := openai.ChatCompletionRequest{
		Model:     n.config.Model,
		Messages:  messages,
		MaxTokens: n.config.MaxTokens,
	}
	if n.config.Temperature != nil {
		request.Temperature = *n.config.Temperature
	}
	if n.config.ResponseFormat == FormatJSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return request
}

// NewClient builds a go-openai client. An empty baseURL keeps the default
// OpenAI endpoint.
func NewClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}
