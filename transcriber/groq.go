package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog"

	"whisperkey/encoder"
)

const (
	groqURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	groqModel = "whisper-large-v3-turbo"
)

type Groq struct {
	client *http.Client
	apiURL string
	apiKey string
	log    zerolog.Logger
}

// NewGroq builds a Groq client. An empty apiURL selects the public endpoint.
func NewGroq(apiKey, apiURL string, logger zerolog.Logger) *Groq {
	if apiURL == "" {
		apiURL = groqURL
	}
	return &Groq{
		client: newHTTPClient("groq"),
		apiURL: apiURL,
		apiKey: apiKey,
		log:    logger,
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Warm() {
	if d := warmConnection(g.client, g.apiURL); d > 0 {
		g.log.Debug().Dur("tls", d).Msg("groq connection warmed")
	}
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, audio []float32, language string) ([]Segment, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}
	payload, err := encoder.Encode(enc, audio)
	if err != nil {
		return nil, fmt.Errorf("encoding flac: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", enc.Filename())
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, err
	}
	writer.WriteField("model", groqModel)
	writer.WriteField("response_format", "verbose_json")
	if lang := languageParam(language); lang != "" {
		writer.WriteField("language", lang)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	ctx, trace := withNetTrace(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq request: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("groq response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(respBody))
	}

	var gResp groqResponse
	if err := json.Unmarshal(respBody, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	g.log.Info().
		Int("upload_bytes", len(payload)).
		Float64("audio_s", gResp.Duration).
		Str("ratelimit", firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")+"/"+
			firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")).
		Dict("net", trace.Dict()).
		Msg("groq_request")

	segments := make([]Segment, 0, len(gResp.Segments))
	for _, seg := range gResp.Segments {
		segments = append(segments, Segment{
			Text:         seg.Text,
			Start:        seg.Start,
			End:          seg.End,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogProb,
		})
	}
	if len(segments) == 0 && gResp.Text != "" {
		segments = append(segments, Segment{Text: gResp.Text, End: gResp.Duration})
	}
	return segments, nil
}
