package httpreq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func mustNode(t *testing.T, config Config) *Node {
	t.Helper()
	node, err := NewNode(nil, config)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}
	return node
}

func TestNode_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"q":%q}`, r.URL.Query().Get("q"))
	}))
	defer server.Close()

	node := mustNode(t, Config{URL: server.URL + "/search?q={{input}}"})
	result, err := node.Execute(context.Background(), "golang")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result, map[string]any{"q": "golang"}) {
		t.Errorf("result = %#v", result)
	}
}

func TestNode_InputAsURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "plain body")
	}))
	defer server.Close()

	result, err := mustNode(t, Config{}).Execute(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "plain body" {
		t.Errorf("result = %v", result)
	}
}

func TestNode_PostBodyAndHeaders(t *testing.T) {
	var gotMethod, gotBody, gotAuth, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	node := mustNode(t, Config{
		URL:          server.URL,
		Method:       "POST",
		Headers:      map[string]string{"Authorization": "Bearer t"},
		Body:         `{"text":"{{input}}"}`,
		ResponseType: ResponseText,
	})
	if _, err := node.Execute(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost || gotBody != `{"text":"hello"}` || gotAuth != "Bearer t" {
		t.Errorf("method=%s body=%s auth=%s", gotMethod, gotBody, gotAuth)
	}
	if gotAgent != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}

func TestNode_MarkdownResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>")
	}))
	defer server.Close()

	result, err := mustNode(t, Config{URL: server.URL, ResponseType: ResponseMarkdown}).Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	markdown := result.(string)
	if !strings.Contains(markdown, "# Title") || !strings.Contains(markdown, "**bold**") {
		t.Errorf("markdown = %q", markdown)
	}
}

func TestNode_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "missing")
	}))
	defer server.Close()

	_, err := mustNode(t, Config{URL: server.URL}).Execute(context.Background(), nil)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "missing") {
		t.Errorf("error should carry status and body preview: %v", err)
	}
}

func TestNode_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	if _, err := mustNode(t, Config{URL: server.URL, ResponseType: ResponseJSON}).Execute(context.Background(), nil); err == nil {
		t.Error("expected decode error")
	}
}

func TestNode_NoURL(t *testing.T) {
	if _, err := mustNode(t, Config{}).Execute(context.Background(), map[string]any{}); !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}
}

func TestNewNode_UnknownResponseType(t *testing.T) {
	if _, err := NewNode(nil, Config{ResponseType: "xml"}); err == nil {
		t.Error("expected error")
	}
}
