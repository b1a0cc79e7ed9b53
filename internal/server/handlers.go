package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
	"github.com/CarbonComputed/TTSAPIGateway/internal/encoder"
	"github.com/CarbonComputed/TTSAPIGateway/internal/engine"
	"github.com/CarbonComputed/TTSAPIGateway/internal/pipeline"
)

// generateRequest is the /generate body. Pointer fields distinguish
// "absent" from "zero" so configured defaults only fill what the caller
// left out.
type generateRequest struct {
	Text          string  `json:"text"`
	Voice         *string `json:"voice"`
	MaxChars      *int    `json:"max_chars"`
	MaxWords      *int    `json:"max_words"`
	Format        *string `json:"format"`
	UseChunking   *bool   `json:"use_chunking"`
	CombineMethod *string `json:"combine_method"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"model_loaded":     s.engine.Available(),
		"available_voices": engine.Voices(),
	})
}

func (s *Server) handleVoices(c *gin.Context) {
	voices := engine.Voices()
	c.JSON(http.StatusOK, gin.H{
		"voices": voices,
		"count":  len(voices),
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	req := s.buildRequest(body)
	res, err := s.pipeline.Generate(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", res.Filename))
	c.Header("X-Chunk-Count", fmt.Sprintf("%d", res.Chunks))
	c.Data(http.StatusOK, res.MIME, res.Data)
}

// buildRequest fills absent fields from the configured defaults. Invalid
// values pass through untouched; the pipeline rejects them.
func (s *Server) buildRequest(body generateRequest) pipeline.Request {
	d := s.cfg.Defaults
	req := pipeline.Request{
		Text:        body.Text,
		Voice:       d.Voice,
		MaxChars:    d.MaxChars,
		MaxWords:    d.MaxWords,
		Format:      encoder.Format(d.Format),
		UseChunking: true,
		Strategy:    audio.Strategy(d.CombineMethod),
	}
	if body.Voice != nil {
		req.Voice = *body.Voice
	}
	if body.MaxChars != nil {
		req.MaxChars = *body.MaxChars
	}
	if body.MaxWords != nil {
		req.MaxWords = *body.MaxWords
	}
	if body.Format != nil {
		req.Format = encoder.Format(*body.Format)
	}
	if body.UseChunking != nil {
		req.UseChunking = *body.UseChunking
	}
	if body.CombineMethod != nil {
		req.Strategy = audio.Strategy(*body.CombineMethod)
	}
	return req
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if pipeline.IsClientError(err) {
		status = http.StatusBadRequest
	}

	var synthErr *pipeline.SynthesisError
	switch {
	case errors.As(err, &synthErr):
		s.logger.Error("synthesis failed", "chunk", synthErr.ChunkIndex, "err", synthErr.Err)
	case errors.Is(err, engine.ErrUnavailable):
		status = http.StatusServiceUnavailable
		s.logger.Error("engine unavailable")
	case status == http.StatusInternalServerError:
		s.logger.Error("generation failed", "err", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
