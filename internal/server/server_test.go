package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
	"github.com/CarbonComputed/TTSAPIGateway/internal/chunker"
	"github.com/CarbonComputed/TTSAPIGateway/internal/config"
	"github.com/CarbonComputed/TTSAPIGateway/internal/encoder"
	"github.com/CarbonComputed/TTSAPIGateway/internal/engine"
	"github.com/CarbonComputed/TTSAPIGateway/internal/pipeline"
)

func newTestServer(t *testing.T, mock *engine.Mock, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.Type = "mock"
	// WAV keeps tests independent of an ffmpeg binary.
	cfg.Defaults.Format = "wav"
	if mutate != nil {
		mutate(&cfg)
	}

	logger := log.New(io.Discard)
	pipe := pipeline.New(
		chunker.New(nil),
		mock,
		encoder.New(cfg.Defaults.Bitrate, logger),
		pipeline.Options{Assembly: cfg.AssemblyConfig()},
		logger,
	)
	return New(cfg, pipe, mock, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), nil)
	w := doJSON(t, s, http.MethodGet, "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
	if body["model_loaded"] != true {
		t.Errorf("model_loaded = %v, want true", body["model_loaded"])
	}
	voices, ok := body["available_voices"].([]any)
	if !ok || len(voices) != 8 {
		t.Errorf("available_voices = %v, want 8 entries", body["available_voices"])
	}
}

func TestHealthEngineDown(t *testing.T) {
	mock := engine.NewMock()
	mock.SetAvailable(false)
	s := newTestServer(t, mock, nil)
	w := doJSON(t, s, http.MethodGet, "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (health reports, it does not gate)", w.Code)
	}
	if body := decodeBody(t, w); body["model_loaded"] != false {
		t.Errorf("model_loaded = %v, want false", body["model_loaded"])
	}
}

func TestVoices(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), nil)
	w := doJSON(t, s, http.MethodGet, "/voices", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"] != float64(8) {
		t.Errorf("count = %v, want 8", body["count"])
	}
	voices, ok := body["voices"].([]any)
	if !ok || len(voices) != 8 {
		t.Fatalf("voices = %v, want 8 entries", body["voices"])
	}
	if voices[0] != "expr-voice-2-m" || voices[7] != "expr-voice-5-f" {
		t.Errorf("voice order changed: %v", voices)
	}
}

func TestGenerate(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), nil)
	w := doJSON(t, s, http.MethodPost, "/generate", map[string]any{
		"text": "Hello there. General Kenobi.",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q, want audio/wav", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "generated_audio_expr-voice-2-f.wav") {
		t.Errorf("Content-Disposition = %q, want default-voice wav filename", cd)
	}
	if _, err := audio.DecodeWAV(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Errorf("response is not decodable WAV: %v", err)
	}
}

func TestGenerateExplicitFields(t *testing.T) {
	mock := engine.NewMock()
	s := newTestServer(t, mock, nil)
	w := doJSON(t, s, http.MethodPost, "/generate", map[string]any{
		"text":           "First sentence here. Second sentence here. Third sentence here.",
		"voice":          "expr-voice-4-m",
		"max_chars":      25,
		"max_words":      50,
		"format":         "wav",
		"combine_method": "advanced",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "expr-voice-4-m") {
		t.Errorf("Content-Disposition = %q, want requested voice in filename", cd)
	}
	if got := mock.Calls(); got != 3 {
		t.Errorf("engine calls = %d, want 3 chunks", got)
	}
	if h := w.Header().Get("X-Chunk-Count"); h != "3" {
		t.Errorf("X-Chunk-Count = %q, want 3", h)
	}
}

func TestGenerateChunkingDisabled(t *testing.T) {
	mock := engine.NewMock()
	s := newTestServer(t, mock, nil)
	w := doJSON(t, s, http.MethodPost, "/generate", map[string]any{
		"text":         "First sentence here. Second sentence here.",
		"max_chars":    25,
		"use_chunking": false,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := mock.Calls(); got != 1 {
		t.Errorf("engine calls = %d, want 1", got)
	}
}

func TestGenerateValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing text", map[string]any{}},
		{"blank text", map[string]any{"text": "   "}},
		{"invalid voice", map[string]any{"text": "hi there", "voice": "nope"}},
		{"zero max chars", map[string]any{"text": "hi there", "max_chars": 0}},
		{"bad format", map[string]any{"text": "hi there", "format": "ogg"}},
		{"bad combine method", map[string]any{"text": "hi there", "combine_method": "bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := engine.NewMock()
			s := newTestServer(t, mock, nil)
			w := doJSON(t, s, http.MethodPost, "/generate", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
			if _, ok := decodeBody(t, w)["error"]; !ok {
				t.Errorf("400 body has no error field: %s", w.Body.String())
			}
			if got := mock.Calls(); got != 0 {
				t.Errorf("engine calls = %d, want 0 before validation passes", got)
			}
		})
	}
}

func TestGenerateMalformedJSON(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), nil)
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGenerateOversizedBody(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), nil)
	huge := map[string]any{"text": strings.Repeat("a", 2<<20)}
	w := doJSON(t, s, http.MethodPost, "/generate", huge)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a body over the size limit", w.Code)
	}
}

func TestGenerateSynthesisFailure(t *testing.T) {
	mock := engine.NewMock()
	mock.Fail(io.ErrUnexpectedEOF)
	s := newTestServer(t, mock, nil)
	w := doJSON(t, s, http.MethodPost, "/generate", map[string]any{"text": "hi there"})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500; body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "chunk 0") {
		t.Errorf("error = %v, want chunk index in message", body["error"])
	}
}

func TestGenerateEngineUnavailable(t *testing.T) {
	mock := engine.NewMock()
	mock.SetAvailable(false)
	s := newTestServer(t, mock, nil)
	w := doJSON(t, s, http.MethodPost, "/generate", map[string]any{"text": "hi there"})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), nil)
	w := doJSON(t, s, http.MethodGet, "/nope", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "endpoint not found" {
		t.Errorf("error = %v, want endpoint not found", body["error"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), nil)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Errorf("no X-Request-ID header on response")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want client-supplied fixed-id", got)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, engine.NewMock(), func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RPS = 1
		cfg.RateLimit.Burst = 1
	})

	first := doJSON(t, s, http.MethodGet, "/health", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}
	second := doJSON(t, s, http.MethodGet, "/health", nil)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
}
