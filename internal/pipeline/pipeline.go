// Package pipeline orchestrates one generation request end to end:
// validate, chunk, synthesize per chunk, assemble, encode. A request
// either yields a complete encoded file or a structured error, never a
// truncated stream.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/CarbonComputed/TTSAPIGateway/internal/audio"
	"github.com/CarbonComputed/TTSAPIGateway/internal/chunker"
	"github.com/CarbonComputed/TTSAPIGateway/internal/encoder"
	"github.com/CarbonComputed/TTSAPIGateway/internal/engine"
)

// Request is a validated-on-entry generation request.
type Request struct {
	Text        string
	Voice       string
	MaxChars    int
	MaxWords    int
	Format      encoder.Format
	UseChunking bool
	Strategy    audio.Strategy
}

// Result carries the encoded audio and response metadata.
type Result struct {
	Data     []byte
	MIME     string
	Filename string
	Chunks   int
	Duration time.Duration
}

// Options configures a Pipeline.
type Options struct {
	// Assembly provides the pause/fade/peak parameters; the strategy
	// field is overridden per request.
	Assembly audio.AssemblyConfig
	// Concurrency bounds in-flight synthesis calls per request. 1 is
	// the reference behavior: strictly sequential.
	Concurrency int
	// ChunkTimeout is the synthesis deadline per chunk; 0 disables it.
	ChunkTimeout time.Duration
}

// Pipeline wires the chunker, engine and encoder together.
type Pipeline struct {
	chunker     *chunker.Chunker
	engine      engine.Engine
	encoder     *encoder.Encoder
	assembly    audio.AssemblyConfig
	concurrency int
	timeout     time.Duration
	logger      *log.Logger
}

// New builds a pipeline.
func New(ch *chunker.Chunker, eng engine.Engine, enc *encoder.Encoder, opts Options, logger *log.Logger) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		chunker:     ch,
		engine:      eng,
		encoder:     enc,
		assembly:    opts.Assembly,
		concurrency: opts.Concurrency,
		timeout:     opts.ChunkTimeout,
		logger:      logger.WithPrefix("pipeline"),
	}
}

// Generate runs one request to completion. Validation happens before any
// synthesis work; mid-pipeline failures abort the whole request.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}
	if !p.engine.Available() {
		return nil, engine.ErrUnavailable
	}

	chunks, err := p.chunk(req)
	if err != nil {
		return nil, err
	}

	segments, err := p.synthesize(ctx, chunks, req.Voice)
	if err != nil {
		return nil, err
	}

	cfg := p.assembly
	cfg.Strategy = req.Strategy
	asm, err := audio.ForStrategy(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStrategy, err)
	}
	assembled, err := asm.Assemble(segments, cfg)
	if err != nil {
		return nil, err
	}

	data, mime, ext, err := p.encoder.Encode(assembled, req.Format)
	if err != nil {
		return nil, err
	}

	p.logger.Info("generated audio",
		"voice", req.Voice,
		"chunks", len(chunks),
		"strategy", cfg.Strategy,
		"format", req.Format,
		"duration", assembled.Duration())

	return &Result{
		Data:     data,
		MIME:     mime,
		Filename: fmt.Sprintf("generated_audio_%s.%s", req.Voice, ext),
		Chunks:   len(chunks),
		Duration: assembled.Duration(),
	}, nil
}

func (p *Pipeline) validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	if !engine.ValidVoice(req.Voice) {
		return fmt.Errorf("%w: %q is not one of %v", ErrInvalidVoice, req.Voice, engine.Voices())
	}
	if req.MaxChars <= 0 || req.MaxWords <= 0 {
		return ErrInvalidLimits
	}
	if _, err := encoder.ParseFormat(string(req.Format)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if _, err := audio.ParseStrategy(string(req.Strategy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStrategy, err)
	}
	return nil
}

func (p *Pipeline) chunk(req Request) ([]chunker.TextChunk, error) {
	if !req.UseChunking {
		// One chunk equal to the whole text.
		return p.chunker.Chunk(req.Text, len(req.Text)+1, len(strings.Fields(req.Text))+1)
	}
	return p.chunker.Chunk(req.Text, req.MaxChars, req.MaxWords)
}

// synthesize renders every chunk, preserving chunk order in the result
// regardless of completion order: results land in an index-addressed
// slice, so chunk i is always assembled at position i. The first failure
// cancels the group and aborts the request.
func (p *Pipeline) synthesize(ctx context.Context, chunks []chunker.TextChunk, voice string) ([]*audio.Buffer, error) {
	segments := make([]*audio.Buffer, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, ch := range chunks {
		i, ch := i, ch
		g.Go(func() error {
			// An earlier failure cancels the group; later chunks must not
			// reach the engine at all.
			if err := gctx.Err(); err != nil {
				return &SynthesisError{ChunkIndex: i, Err: err}
			}
			cctx := gctx
			if p.timeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(gctx, p.timeout)
				defer cancel()
			}
			buf, err := p.engine.Synthesize(cctx, ch.Text, voice)
			if err != nil {
				return &SynthesisError{ChunkIndex: i, Err: err}
			}
			segments[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return segments, nil
}
