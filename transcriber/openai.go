package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"whisperkey/encoder"
)

// OpenAI talks to any server exposing the OpenAI audio transcription API:
// the hosted service, or a self-hosted faster-whisper server.
type OpenAI struct {
	client *openai.Client
	name   string
	model  string
	log    zerolog.Logger
}

func NewOpenAI(apiKey string, logger zerolog.Logger) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = newHTTPClient("openai")
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		name:   "openai",
		model:  openai.Whisper1,
		log:    logger,
	}
}

// NewLocal targets a self-hosted server at baseURL (for example
// http://127.0.0.1:8000/v1). model is passed through as the model name.
func NewLocal(baseURL, model string, logger zerolog.Logger) *OpenAI {
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = baseURL
	cfg.HTTPClient = newHTTPClient("local")
	if model == "" {
		model = "base"
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		name:   "local",
		model:  model,
		log:    logger,
	}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Transcribe(ctx context.Context, audio []float32, language string) ([]Segment, error) {
	enc := encoder.NewWav()
	payload, err := encoder.Encode(enc, audio)
	if err != nil {
		return nil, fmt.Errorf("encoding wav: %w", err)
	}

	start := time.Now()
	ctx, trace := withNetTrace(ctx)
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: enc.Filename(),
		Reader:   bytes.NewReader(payload),
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: languageParam(language),
	})
	if err != nil {
		return nil, fmt.Errorf("%s transcription: %w", o.name, err)
	}

	o.log.Info().
		Str("backend", o.name).
		Str("model", o.model).
		Int("upload_bytes", len(payload)).
		Str("detected_language", resp.Language).
		Dur("total", time.Since(start)).
		Dict("net", trace.Dict()).
		Msg("backend_request")

	segments := make([]Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, Segment{
			Text:         seg.Text,
			Start:        seg.Start,
			End:          seg.End,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogprob,
		})
	}
	if len(segments) == 0 && resp.Text != "" {
		segments = append(segments, Segment{Text: resp.Text, End: resp.Duration})
	}
	return segments, nil
}
