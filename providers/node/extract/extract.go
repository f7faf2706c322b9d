package extract

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/parse"
	"github.com/leofalp/aigoflow/internal/utils"
)

// Type is the node type name.
const Type = "extract"

// Mode selects the extraction method.
type Mode string

const (
	ModeJSON  Mode = "json"
	ModeRegex Mode = "regex"
	ModeHTML  Mode = "html"
)

// Config is decoded from the node data.
type Config struct {
	Mode Mode `mapstructure:"mode"`
	// Path is a dot path for json mode, e.g. "data.items.*.name".
	Path string `mapstructure:"path"`
	// Pattern and Group select the regex and capture group for regex mode.
	Pattern string `mapstructure:"pattern"`
	Group   int    `mapstructure:"group"`
	// Tag and Attribute select elements for html mode; an empty attribute
	// extracts the element text.
	Tag       string `mapstructure:"tag"`
	Attribute string `mapstructure:"attribute"`
	// First emits only the first match instead of the list.
	First bool `mapstructure:"first"`
}

// Node extracts values from its input.
type Node struct {
	config  Config
	pattern *regexp.Regexp
}

// New is the engine.Constructor for extract nodes.
func New(scope engine.Scope) (engine.Node, error) {
	var config Config
	if err := engine.DecodeConfig(scope.Data(), &config); err != nil {
		return nil, err
	}
	return NewNode(config)
}

// NewNode validates config and creates an extract node.
func NewNode(config Config) (*Node, error) {
	node := &Node{config: config}
	switch config.Mode {
	case "", ModeJSON:
		node.config.Mode = ModeJSON
	case ModeRegex:
		if config.Pattern == "" {
			return nil, errors.New("regex mode requires a pattern")
		}
		pattern, err := regexp.Compile(config.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		if config.Group < 0 || config.Group > pattern.NumSubexp() {
			return nil, fmt.Errorf("pattern has no group %d", config.Group)
		}
		node.pattern = pattern
	case ModeHTML:
		if config.Tag == "" {
			return nil, errors.New("html mode requires a tag")
		}
		node.config.Tag = strings.ToLower(config.Tag)
	default:
		return nil, fmt.Errorf("unknown extract mode %q", config.Mode)
	}
	return node, nil
}

// Execute returns the list of matches, or the first match when configured.
// With First set and nothing matched, the result is nil and propagation stops.
func (n *Node) Execute(_ context.Context, input any) (any, error) {
	var matches []any
	var err error
	switch n.config.Mode {
	case ModeRegex:
		matches = n.extractRegex(utils.Stringify(input))
	case ModeHTML:
		matches, err = n.extractHTML(utils.Stringify(input))
	default:
		matches, err = n.extractJSON(input)
	}
	if err != nil {
		return nil, err
	}

	if n.config.First {
		if len(matches) == 0 {
			return nil, nil
		}
		return matches[0], nil
	}
	if matches == nil {
		matches = []any{}
	}
	return matches, nil
}

func (n *Node) extractJSON(input any) ([]any, error) {
	if text, ok := input.(string); ok {
		parsed, err := parse.ParseJSON(text)
		if err != nil {
			return nil, fmt.Errorf("input is not JSON: %w", err)
		}
		input = parsed
	}
	if n.config.Path == "" {
		return []any{input}, nil
	}
	return walkPath(input, strings.Split(n.config.Path, ".")), nil
}

// walkPath follows segments through maps and lists. "*" fans out over every
// element of a list (or value of a map); a number indexes a list.
func walkPath(value any, segments []string) []any {
	if len(segments) == 0 {
		return []any{value}
	}
	segment, rest := segments[0], segments[1:]

	switch typed := value.(type) {
	case map[string]any:
		if segment == "*" {
			var matches []any
			for _, key := range slices.Sorted(maps.Keys(typed)) {
				matches = append(matches, walkPath(typed[key], rest)...)
			}
			return matches
		}
		child, ok := typed[segment]
		if !ok {
			return nil
		}
		return walkPath(child, rest)
	case []any:
		if segment == "*" {
			var matches []any
			for _, item := range typed {
				matches = append(matches, walkPath(item, rest)...)
			}
			return matches
		}
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(typed) {
			return nil
		}
		return walkPath(typed[index], rest)
	}
	return nil
}

func (n *Node) extractRegex(text string) []any {
	var matches []any
	for _, match := range n.pattern.FindAllStringSubmatch(text, -1) {
		matches = append(matches, match[n.config.Group])
	}
	return matches
}

func (n *Node) extractHTML(document string) ([]any, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var matches []any
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == n.config.Tag {
			if n.config.Attribute == "" {
				if text := strings.TrimSpace(textContent(node)); text != "" {
					matches = append(matches, text)
				}
			} else {
				for _, attr := range node.Attr {
					if attr.Key == n.config.Attribute {
						matches = append(matches, attr.Val)
						break
					}
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(root)
	return matches, nil
}

// textContent concatenates the text below node with whitespace collapsed.
func textContent(node *html.Node) string {
	var builder strings.Builder
	var collect func(*html.Node)
	collect = func(current *html.Node) {
		if current.Type == html.TextNode {
			builder.WriteString(current.Data)
			builder.WriteByte(' ')
		}
		if current.Type == html.ElementNode && (current.Data == "script" || current.Data == "style") {
			return
		}
		for child := current.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(node)
	return strings.Join(strings.Fields(builder.String()), " ")
}
