package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/providers/node"
	"github.com/leofalp/aigoflow/providers/node/llm"
	"github.com/leofalp/aigoflow/providers/observability/slogobs"
)

const (
	envOpenAIKey     = "OPENAI_API_KEY"
	envOpenAIBaseURL = "OPENAI_BASE_URL"
	envRedisAddr     = "AIGOFLOW_REDIS_ADDR"
)

var rootCmd = &cobra.Command{
	Use:           "aigoflow",
	Short:         "aigoflow runs node-graph flows",
	Long:          `aigoflow executes flow definitions (nodes and edges in JSON or YAML) depth first, chains flows together with ${result-flow-<id>} references, and serves both over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error); defaults to AIGOFLOW_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json); defaults to AIGOFLOW_LOG_FORMAT")
}

// newObserver builds the slog provider, letting flags override the environment.
func newObserver(cmd *cobra.Command) *slogobs.Observer {
	var opts []slogobs.Option
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		opts = append(opts, slogobs.WithLevel(slogobs.ParseLogLevel(level)))
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(format)))
	}
	return slogobs.New(opts...)
}

// newFactory builds the default node catalog. llm nodes get a client only
// when OPENAI_API_KEY is set.
func newFactory(logger *slog.Logger) *engine.Factory {
	deps := node.Dependencies{HTTPClient: &http.Client{Timeout: 2 * time.Minute}}
	if apiKey := os.Getenv(envOpenAIKey); apiKey != "" {
		deps.ChatClient = llm.NewClient(apiKey, os.Getenv(envOpenAIBaseURL))
	} else if logger != nil {
		logger.Debug("OPENAI_API_KEY not set, llm nodes will fail to instantiate")
	}
	return node.NewFactory(deps)
}
