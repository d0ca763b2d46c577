package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"whisperkey/hotkey"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid settings")

const (
	DefaultServerURL     = "http://127.0.0.1:8000/v1"
	DefaultBufferSeconds = 300
	MaxBufferSeconds     = 3600
)

// Settings is built once at startup and never mutated afterwards.
type Settings struct {
	DeviceName  string `json:"device_name"`
	ModelSize   string `json:"model_size"`
	ComputeType string `json:"compute_type"`
	Device      string `json:"device"`
	Language    string `json:"language"`

	Backend       string `json:"backend"`
	ServerURL     string `json:"server_url"`
	Hotkey        string `json:"hotkey"`
	Mode          string `json:"mode"`
	Output        string `json:"output"`
	Autopaste     bool   `json:"autopaste"`
	BufferSeconds int    `json:"buffer_time_seconds"`
}

func Default() Settings {
	return Settings{
		ModelSize:     "distil-small.en",
		ComputeType:   "int8",
		Device:        "cpu",
		Language:      "en",
		Backend:       "local",
		ServerURL:     DefaultServerURL,
		Hotkey:        hotkey.DefaultCombo,
		Mode:          string(hotkey.ModeHold),
		Output:        "clipboard",
		Autopaste:     true,
		BufferSeconds: DefaultBufferSeconds,
	}
}

// DefaultPath is <user config dir>/whisperkey/settings.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "whisperkey", "settings.json"), nil
}

// Load overlays the JSON file at path onto Default. found is false when the
// file does not exist. A malformed file yields the defaults together with
// the parse error so the caller can warn and carry on.
func Load(path string) (s Settings, found bool, err error) {
	s = Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("reading settings: %w", err)
	}
	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return s, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return loaded, true, nil
}

// Save writes s to path, creating parent directories. The file is replaced
// atomically.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("saving settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

var (
	computeTypes = []string{"float16", "int8"}
	devices      = []string{"cpu", "cuda"}
	backends     = []string{"local", "openai", "groq", "fake"}
	outputs      = []string{"clipboard", "type"}
)

func oneOf(field, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q (allowed: %s)", ErrInvalid, field, v, strings.Join(allowed, ", "))
}

// Validate checks every field and names the first offending one.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.ModelSize) == "" {
		return fmt.Errorf("%w: model_size is empty", ErrInvalid)
	}
	if err := oneOf("compute_type", s.ComputeType, computeTypes); err != nil {
		return err
	}
	if err := oneOf("device", s.Device, devices); err != nil {
		return err
	}
	if err := validateLanguage(s.Language); err != nil {
		return err
	}
	if err := oneOf("backend", s.Backend, backends); err != nil {
		return err
	}
	if s.Backend == "local" || s.ServerURL != "" {
		u, err := url.Parse(s.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: server_url %q is not an http(s) URL", ErrInvalid, s.ServerURL)
		}
	}
	if _, err := hotkey.ParseCombo(s.Hotkey); err != nil {
		return fmt.Errorf("%w: hotkey: %v", ErrInvalid, err)
	}
	if _, err := hotkey.ParseMode(s.Mode); err != nil {
		return fmt.Errorf("%w: mode: %v", ErrInvalid, err)
	}
	if err := oneOf("output", s.Output, outputs); err != nil {
		return err
	}
	if s.BufferSeconds < 1 || s.BufferSeconds > MaxBufferSeconds {
		return fmt.Errorf("%w: buffer_time_seconds %d (allowed 1..%d)", ErrInvalid, s.BufferSeconds, MaxBufferSeconds)
	}
	return nil
}

// validateLanguage accepts "auto" or a lowercase ISO 639-1/639-3 code.
func validateLanguage(lang string) error {
	if lang == "auto" {
		return nil
	}
	if n := len(lang); n < 2 || n > 3 {
		return fmt.Errorf("%w: language %q (want \"auto\" or an ISO 639 code)", ErrInvalid, lang)
	}
	for _, r := range lang {
		if r < 'a' || r > 'z' {
			return fmt.Errorf("%w: language %q (want \"auto\" or an ISO 639 code)", ErrInvalid, lang)
		}
	}
	return nil
}
