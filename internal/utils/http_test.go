package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestDoRequest_Success verifies that a 200 response is read fully and the
// request carries the configured method and headers.
func TestDoRequest_Success(t *testing.T) {
	var capturedMethod, capturedHeader, capturedBody, capturedContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedMethod = r.Method
		capturedHeader = r.Header.Get("X-Flow")
		capturedContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		capturedBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"value":42}`)
	}))
	defer server.Close()

	response, err := DoRequest(context.Background(), server.Client(), Request{
		Method:  "post",
		URL:     server.URL,
		Headers: map[string]string{"X-Flow": "yes"},
		Body:    `{"q":"test"}`,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !response.IsSuccess() {
		t.Errorf("expected success status, got %d", response.StatusCode)
	}
	if string(response.Body) != `{"value":42}` {
		t.Errorf("unexpected body %q", response.Body)
	}
	if capturedMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", capturedMethod)
	}
	if capturedHeader != "yes" {
		t.Errorf("expected custom header to be forwarded, got %q", capturedHeader)
	}
	if capturedContentType != "application/json" {
		t.Errorf("expected JSON content type for JSON body, got %q", capturedContentType)
	}
	if capturedBody != `{"q":"test"}` {
		t.Errorf("unexpected request body %q", capturedBody)
	}
}

// TestDoRequest_Non2xxIsNotAnError verifies that status handling is left to callers.
func TestDoRequest_Non2xxIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "bad request")
	}))
	defer server.Close()

	response, err := DoRequest(context.Background(), server.Client(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("expected no transport error, got %v", err)
	}
	if response.IsSuccess() {
		t.Error("expected IsSuccess() to be false for 400")
	}
	if response.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", response.StatusCode)
	}
}

// TestDoRequest_TruncatesBody verifies the body cap.
func TestDoRequest_TruncatesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer server.Close()

	response, err := DoRequest(context.Background(), nil, Request{URL: server.URL, MaxBodySize: 10})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !response.Truncated {
		t.Error("expected Truncated to be true")
	}
	if len(response.Body) != 10 {
		t.Errorf("expected 10 bytes, got %d", len(response.Body))
	}
}

// TestDoRequest_RequestCreateError verifies that an invalid URL fails early.
func TestDoRequest_RequestCreateError(t *testing.T) {
	_, err := DoRequest(context.Background(), nil, Request{URL: " bad url"})
	if err == nil {
		t.Fatal("expected request creation error, got nil")
	}
}

// TestDoRequest_ContextCanceled verifies that cancellation surfaces as a context error.
func TestDoRequest_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := DoRequest(ctx, server.Client(), Request{URL: server.URL})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestResponse_IsHTML(t *testing.T) {
	response := &Response{ContentType: "Text/HTML; charset=utf-8"}
	if !response.IsHTML() {
		t.Error("expected HTML content type to be detected case-insensitively")
	}
	response.ContentType = "application/json"
	if response.IsHTML() {
		t.Error("expected JSON content type not to be HTML")
	}
}
