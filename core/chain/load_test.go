package chain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leofalp/aigoflow/core/flow"
)

func TestLoadFile_ResolvesRelativeFlowFiles(t *testing.T) {
	dir := t.TempDir()
	flowYAML := `
nodes:
  - id: fetch
    type: http
edges: []
`
	if err := os.WriteFile(filepath.Join(dir, "fetch.yaml"), []byte(flowYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	chainYAML := `
flows:
  - id: first
    file: fetch.yaml
  - id: second
    flow:
      nodes:
        - id: summarize
          type: llm
    inputs:
      summarize: "Summarize ${result-flow-first}"
`
	path := filepath.Join(dir, "chain.yaml")
	if err := os.WriteFile(path, []byte(chainYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	items, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "first" || items[0].Flow.Nodes[0].ID != "fetch" {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].Inputs["summarize"] != "Summarize ${result-flow-first}" {
		t.Errorf("unexpected inputs %v", items[1].Inputs)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "missing id", data: `{"flows":[{"flow":{"nodes":[]}}]}`, wantErr: "has no id"},
		{name: "duplicate id", data: `{"flows":[{"id":"a","flow":{}},{"id":"a","flow":{}}]}`, wantErr: "duplicate"},
		{name: "no flow or file", data: `{"flows":[{"id":"a"}]}`, wantErr: "needs either flow or file"},
		{name: "missing file", data: `{"flows":[{"id":"a","file":"nope.json"}]}`, wantErr: `chain entry "a"`},
		{name: "invalid json", data: `{"flows":`, wantErr: "invalid chain definition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), flow.FormatJSON, t.TempDir())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
