package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/internal/utils"
)

const (
	outputAuto   = "auto"
	outputJSON   = "json"
	outputPretty = "pretty"
)

// printOutputs writes leaf outputs as indented JSON or as Markdown rendered
// for the terminal. auto picks pretty when stdout is a terminal.
func printOutputs(w io.Writer, format string, outputs []engine.Output) error {
	if outputs == nil {
		outputs = []engine.Output{}
	}
	switch format {
	case outputAuto:
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			return printPretty(w, outputs)
		}
		return printJSON(w, outputs)
	case outputJSON:
		return printJSON(w, outputs)
	case outputPretty:
		return printPretty(w, outputs)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printJSON(w io.Writer, outputs []engine.Output) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(outputs)
}

func printPretty(w io.Writer, outputs []engine.Output) error {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	rendered, err := renderer.Render(outputsMarkdown(outputs))
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// outputsMarkdown lays outputs out as one section per leaf. Text results are
// kept as Markdown, structured ones go in a JSON block.
func outputsMarkdown(outputs []engine.Output) string {
	if len(outputs) == 0 {
		return "_No successful leaf outputs._\n"
	}
	var builder strings.Builder
	for _, output := range outputs {
		fmt.Fprintf(&builder, "## %s\n\n`%s` · %s\n\n", output.NodeName, output.NodeID, output.NodeType)
		if text, ok := output.Result.(string); ok {
			builder.WriteString(text)
		} else {
			fmt.Fprintf(&builder, "```json\n%s\n```", utils.JSONToString(output.Result, true))
		}
		builder.WriteString("\n\n")
	}
	return builder.String()
}
