package httpreq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/internal/utils"
)

// Type is the node type name.
const Type = "http"

const (
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent unless the node sets its own header.
	DefaultUserAgent = "aigoflow-http-node/1.0"
	// errorBodyPreview caps how much of a failed response ends up in the error.
	errorBodyPreview = 200
)

var (
	// ErrNoURL is returned when neither the config nor the input supplies a URL.
	ErrNoURL = errors.New("no URL configured and input is not a URL")
	// ErrStatus is wrapped by errors for non-2xx responses.
	ErrStatus = errors.New("unexpected HTTP status")
)

// ResponseType selects how the body is decoded.
type ResponseType string

const (
	// ResponseAuto decodes JSON content types as JSON and everything else as text.
	ResponseAuto     ResponseType = "auto"
	ResponseJSON     ResponseType = "json"
	ResponseText     ResponseType = "text"
	ResponseMarkdown ResponseType = "markdown"
)

// Config is decoded from the node data.
type Config struct {
	URL            string            `mapstructure:"url"`
	Method         string            `mapstructure:"method"`
	Headers        map[string]string `mapstructure:"headers"`
	Body           string            `mapstructure:"body"`
	ResponseType   ResponseType      `mapstructure:"responseType"`
	TimeoutSeconds int               `mapstructure:"timeoutSeconds"`
}

// Node performs the configured request.
type Node struct {
	client *http.Client
	config Config
}

// NewConstructor returns an engine.Constructor using client; nil means
// http.DefaultClient.
func NewConstructor(client *http.Client) engine.Constructor {
	return func(scope engine.Scope) (engine.Node, error) {
		var config Config
		if err := engine.DecodeConfig(scope.Data(), &config); err != nil {
			return nil, err
		}
		return NewNode(client, config)
	}
}

// NewNode creates an http node.
func NewNode(client *http.Client, config Config) (*Node, error) {
	switch config.ResponseType {
	case "":
		config.ResponseType = ResponseAuto
	case ResponseAuto, ResponseJSON, ResponseText, ResponseMarkdown:
	default:
		return nil, fmt.Errorf("unknown response type %q", config.ResponseType)
	}
	return &Node{client: client, config: config}, nil
}

// Execute performs the request. A string input is used as the URL when the
// node has none configured.
func (n *Node) Execute(ctx context.Context, input any) (any, error) {
	if engine.IsEmptyInput(input) {
		input = ""
	}

	target := strings.TrimSpace(utils.RenderTemplate(n.config.URL, input))
	if target == "" {
		if text, ok := input.(string); ok {
			target = strings.TrimSpace(text)
		}
	}
	if target == "" {
		return nil, ErrNoURL
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	headers := map[string]string{"User-Agent": DefaultUserAgent}
	for key, value := range n.config.Headers {
		headers[key] = value
	}

	timeout := DefaultTimeout
	if n.config.TimeoutSeconds > 0 {
		timeout = time.Duration(n.config.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	response, err := utils.DoRequest(ctx, n.client, utils.Request{
		Method:  n.config.Method,
		URL:     target,
		Headers: headers,
		Body:    utils.RenderTemplate(n.config.Body, input),
	})
	if err != nil {
		return nil, err
	}
	if !response.IsSuccess() {
		return nil, fmt.Errorf("%w %d from %s: %s", ErrStatus, response.StatusCode, target,
			utils.TruncateString(string(response.Body), errorBodyPreview))
	}

	return decode(n.config.ResponseType, response)
}

func decode(responseType ResponseType, response *utils.Response) (any, error) {
	if responseType == ResponseAuto {
		responseType = ResponseText
		if strings.Contains(strings.ToLower(response.ContentType), "json") {
			responseType = ResponseJSON
		}
	}

	switch responseType {
	case ResponseJSON:
		var value any
		if err := json.Unmarshal(response.Body, &value); err != nil {
			return nil, fmt.Errorf("failed to decode JSON response: %w", err)
		}
		return value, nil
	case ResponseMarkdown:
		if !response.IsHTML() {
			return string(response.Body), nil
		}
		markdown, err := htmltomarkdown.ConvertString(string(response.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
		}
		return strings.TrimSpace(markdown), nil
	default:
		return string(response.Body), nil
	}
}
