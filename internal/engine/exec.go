package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"

	"github.com/charmbracelet/log"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
)

// Exec runs an external synthesis worker once per chunk. The worker
// reads a JSON request from stdin and writes raw little-endian float32
// PCM at the fixed sample rate to stdout. This is how the hosted model
// (a Python process owning the acoustic model) is driven.
type Exec struct {
	argv   []string
	logger *log.Logger
}

type execRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
}

// NewExec parses the worker command line. The command must name an
// executable; availability is probed via the path lookup.
func NewExec(command string, logger *log.Logger) (*Exec, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("engine command is empty")
	}
	return &Exec{argv: argv, logger: logger.WithPrefix("engine/exec")}, nil
}

// Synthesize implements Engine.
func (e *Exec) Synthesize(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	payload, err := json.Marshal(execRequest{Text: text, Voice: voice, SampleRate: audio.SampleRate})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Error("synthesis worker failed", "err", err, "stderr", stderr.String())
		return nil, fmt.Errorf("synthesis worker: %w", err)
	}

	raw := stdout.Bytes()
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("synthesis worker returned %d bytes, want non-empty float32 PCM", len(raw))
	}
	samples := make([]float64, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = float64(math.Float32frombits(bits))
	}
	return audio.NewBuffer(samples, audio.SampleRate), nil
}

// Available implements Engine. The worker binary must resolve on PATH
// (or be an absolute path); a missing binary is the explicit
// "model not loaded" state.
func (e *Exec) Available() bool {
	_, err := exec.LookPath(e.argv[0])
	return err == nil
}

// Close implements Engine. Workers are one-shot; nothing is held open.
func (e *Exec) Close() error { return nil }
