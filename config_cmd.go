package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const defaultConfig = `# HTTP bind address
listen: ":5050"
# log level: debug, info, warn, error
log_level: "info"

engine:
  # synthesis backend: mock, exec, or http
  type: "exec"
  # worker command line for the exec backend
  command: "kitten-tts-worker"
  # synthesis server address for the http backend
  base_url: "http://localhost:8880"
  # per-request timeout for the http backend
  timeout: 45s
  # concurrent synthesis calls; 1 serializes access to the model
  concurrency: 1
  # synthesis deadline per text chunk
  chunk_timeout: 30s

# values filled in when a /generate request leaves them out
defaults:
  voice: "expr-voice-2-f"
  max_chars: 400
  max_words: 50
  format: "mp3"
  combine_method: "simple"
  bitrate: "128k"

assembly:
  # silence inserted between chunks
  pause_ms: 150
  # edge fade length for the advanced combine method
  fade_ms: 10
  segment_peak: 0.85
  final_peak: 0.95

cache:
  enabled: true
  capacity_bytes: 67108864

rate_limit:
  enabled: false
  rps: 5
  burst: 10
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default configuration",
	Long:  "Print the default configuration as YAML, suitable as a starting point for --config.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), defaultConfig)
		return err
	},
}
