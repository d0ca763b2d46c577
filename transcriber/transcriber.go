package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

// Segment is one span of recognized text, in service order.
type Segment struct {
	Text         string
	Start        float64
	End          float64
	NoSpeechProb float64
	AvgLogProb   float64
}

// Transcriber turns a finished recording into text segments. audio is mono
// 16 kHz float32. language is an ISO code or "auto" to let the service
// detect it.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []float32, language string) ([]Segment, error)
}

// Warmer is implemented by backends that benefit from opening their
// connection before the first request.
type Warmer interface {
	Warm()
}

var ErrMissingKey = errors.New("missing API key")

// Config selects and parameterizes a backend.
type Config struct {
	Backend   string // local, openai, groq or fake
	ServerURL string
	Model     string
	GroqKey   string
	GroqURL   string // empty selects the public endpoint
	OpenAIKey string
	Logger    zerolog.Logger
}

func New(cfg Config) (Transcriber, error) {
	switch cfg.Backend {
	case "", "local":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("local backend: no server URL configured")
		}
		return NewLocal(cfg.ServerURL, cfg.Model, cfg.Logger), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai backend: %w (set OPENAI_API_KEY)", ErrMissingKey)
		}
		return NewOpenAI(cfg.OpenAIKey, cfg.Logger), nil
	case "groq":
		if cfg.GroqKey == "" {
			return nil, fmt.Errorf("groq backend: %w (set GROQ_API_KEY)", ErrMissingKey)
		}
		return NewGroq(cfg.GroqKey, cfg.GroqURL, cfg.Logger), nil
	case "fake":
		return NewFake("fake transcription"), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// languageParam maps the configured language onto the request field, where
// an empty value asks the service to detect the language.
func languageParam(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if lang == "auto" {
		return ""
	}
	return lang
}
