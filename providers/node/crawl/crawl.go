package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/internal/utils"
	"github.com/leofalp/aigoflow/providers/observability"
)

// Type is the node type name.
const Type = "crawl"

const (
	DefaultMaxPages = 10
	DefaultMaxDepth = 2
	// DefaultTimeout applies to each page request.
	DefaultTimeout = 15 * time.Second
	// maxPageSize caps the body read for a single page.
	maxPageSize = 2 * 1024 * 1024
)

// ErrNoURL is returned when neither the config nor the input supplies a URL.
var ErrNoURL = errors.New("no start URL configured and input is not a URL")

// Config is decoded from the node data. A zero MaxDepth means
// DefaultMaxDepth; a negative one visits only the start page. SameDomain
// defaults to true.
type Config struct {
	URL            string `mapstructure:"url"`
	MaxPages       int    `mapstructure:"maxPages"`
	MaxDepth       int    `mapstructure:"maxDepth"`
	SameDomain     *bool  `mapstructure:"sameDomain"`
	DelayMs        int    `mapstructure:"delayMs"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	IncludeContent bool   `mapstructure:"includeContent"`
}

// Page is the record emitted for each visited page.
type Page struct {
	URL        string `json:"url"`
	Depth      int    `json:"depth"`
	StatusCode int    `json:"statusCode"`
	Title      string `json:"title,omitempty"`
	Markdown   string `json:"markdown,omitempty"`
}

// Node crawls from the configured URL.
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
		return NewNode(client, config), nil
	}
}

// NewNode creates a crawl node, filling defaults.
func NewNode(client *http.Client, config Config) *Node {
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultMaxPages
	}
	if config.MaxDepth < 0 {
		config.MaxDepth = 0
	} else if config.MaxDepth == 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if config.SameDomain == nil {
		sameDomain := true
		config.SameDomain = &sameDomain
	}
	return &Node{client: client, config: config}
}

type pending struct {
	url   string
	depth int
}

// Execute crawls breadth first and returns the visited pages in visit order.
// A failure fetching the start page is an error; later failures are skipped.
func (n *Node) Execute(ctx context.Context, input any) (any, error) {
	if engine.IsEmptyInput(input) {
		input = ""
	}
	raw := strings.TrimSpace(utils.RenderTemplate(n.config.URL, input))
	if raw == "" {
		if text, ok := input.(string); ok {
			raw = strings.TrimSpace(text)
		}
	}
	start, err := normalizeURL(raw)
	if err != nil {
		return nil, err
	}

	span := observability.SpanFromContext(ctx)
	queue := []pending{{url: start.String(), depth: 0}}
	queued := map[string]bool{start.String(): true}
	pages := make([]any, 0, n.config.MaxPages)

	for len(queue) > 0 && len(pages) < n.config.MaxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		if len(pages) > 0 && n.config.DelayMs > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(n.config.DelayMs) * time.Millisecond):
			}
		}

		page, links, err := n.fetch(ctx, current)
		if err != nil {
			if len(pages) == 0 && current.depth == 0 {
				return nil, err
			}
			if span != nil {
				span.AddEvent("crawl.page.failed",
					observability.String(observability.AttrHTTPURL, current.url),
					observability.Error(err),
				)
			}
			continue
		}
		pages = append(pages, page)

		if current.depth >= n.config.MaxDepth {
			continue
		}
		for _, link := range links {
			if queued[link] || (*n.config.SameDomain && !sameDomain(start, link)) {
				continue
			}
			queued[link] = true
			queue = append(queue, pending{url: link, depth: current.depth + 1})
		}
	}
	return pages, nil
}

func (n *Node) fetch(ctx context.Context, target pending) (Page, []string, error) {
	timeout := DefaultTimeout
	if n.config.TimeoutSeconds > 0 {
		timeout = time.Duration(n.config.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	response, err := utils.DoRequest(ctx, n.client, utils.Request{URL: target.url, MaxBodySize: maxPageSize})
	if err != nil {
		return Page{}, nil, err
	}
	if !response.IsSuccess() {
		return Page{}, nil, fmt.Errorf("fetching %s: status %d", target.url, response.StatusCode)
	}

	page := Page{URL: response.FinalURL, Depth: target.depth, StatusCode: response.StatusCode}
	if !response.IsHTML() {
		return page, nil, nil
	}

	body := string(response.Body)
	title, links := scanDocument(body, response.FinalURL)
	page.Title = title
	if n.config.IncludeContent {
		markdown, err := htmltomarkdown.ConvertString(body)
		if err == nil {
			page.Markdown = strings.TrimSpace(markdown)
		}
	}
	return page, links, nil
}

// scanDocument returns the page title and the absolute http(s) links found
// in anchors, in document order.
func scanDocument(document, pageURL string) (string, []string) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", nil
	}

	var title string
	var links []string
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "title":
				if title == "" && node.FirstChild != nil && node.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(node.FirstChild.Data)
				}
			case "a":
				for _, attr := range node.Attr {
					if attr.Key == "href" {
						if link := resolveLink(base, attr.Val); link != "" {
							links = append(links, link)
						}
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
	return title, links
}

// resolveLink makes href absolute and drops fragments and non-http schemes.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// sameDomain compares hosts ignoring a leading "www.".
func sameDomain(start *url.URL, link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(parsed.Host, "www.") == strings.TrimPrefix(start.Host, "www.")
}

func normalizeURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrNoURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported protocol %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q", raw)
	}
	return parsed, nil
}
