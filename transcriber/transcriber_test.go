package transcriber

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNetworkMetricsSum(t *testing.T) {
	m := &NetworkMetrics{
		ConnWait:   10 * time.Millisecond,
		DNS:        20 * time.Millisecond,
		TCP:        30 * time.Millisecond,
		TLS:        40 * time.Millisecond,
		ReqHeaders: 5 * time.Millisecond,
		ReqBody:    15 * time.Millisecond,
		TTFB:       50 * time.Millisecond,
		Download:   25 * time.Millisecond,
	}
	got := m.Sum()
	want := 195 * time.Millisecond
	if got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("X-Rate-Limit", "100")

	if got := firstNonEmpty(h, "X-Missing", "X-Rate-Limit"); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if got := firstNonEmpty(h, "X-A", "X-B"); got != "?" {
		t.Errorf("got %q, want %q", got, "?")
	}
}

func TestLanguageParam(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"auto", ""},
		{"AUTO", ""},
		{"", ""},
		{"en", "en"},
		{" De ", "de"},
	} {
		if got := languageParam(tt.in); got != tt.want {
			t.Errorf("languageParam(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  error
	}{
		{"local default", Config{ServerURL: "http://127.0.0.1:8000/v1"}, "local", nil},
		{"openai", Config{Backend: "openai", OpenAIKey: "sk"}, "openai", nil},
		{"groq", Config{Backend: "groq", GroqKey: "gsk"}, "groq", nil},
		{"fake", Config{Backend: "fake"}, "fake", nil},
		{"openai without key", Config{Backend: "openai"}, "", ErrMissingKey},
		{"groq without key", Config{Backend: "groq"}, "", ErrMissingKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if tr.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", tr.Name(), tt.wantName)
			}
		})
	}

	if _, err := New(Config{Backend: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := New(Config{Backend: "local"}); err == nil {
		t.Error("expected error for local backend without server URL")
	}
}
