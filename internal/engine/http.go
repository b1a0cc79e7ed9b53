package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
)

// HTTP drives a remote synthesis server. The server accepts a JSON POST
// on /synthesize and answers with a WAV body.
type HTTP struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

type httpRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
}

// NewHTTP returns an engine backed by the synthesis server at baseURL.
func NewHTTP(baseURL string, timeout time.Duration, logger *log.Logger) *HTTP {
	return &HTTP{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.WithPrefix("engine/http"),
	}
}

// Synthesize implements Engine.
func (h *HTTP) Synthesize(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	payload, err := json.Marshal(httpRequest{Text: text, Voice: voice, SampleRate: audio.SampleRate})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		h.logger.Error("synthesis server error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("synthesis server returned status %d", resp.StatusCode)
	}

	wavBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	buf, err := audio.DecodeWAV(bytes.NewReader(wavBytes))
	if err != nil {
		return nil, fmt.Errorf("decode synthesis response: %w", err)
	}
	return buf, nil
}

// Available implements Engine by probing the server's health endpoint.
func (h *HTTP) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close implements Engine.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
