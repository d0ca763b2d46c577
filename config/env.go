package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no env file is named. It is optional.
const DefaultEnvFile = ".env"

// Env holds secrets and deployment knobs read from the process environment.
type Env struct {
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	GroqURL      string `env:"WHISPERKEY_GROQ_URL"`
	ServerURL    string `env:"WHISPERKEY_SERVER_URL"`

	SettingsPath string `env:"WHISPERKEY_SETTINGS"`
	LogPath      string `env:"WHISPERKEY_LOG_PATH"`
	MetricsAddr  string `env:"WHISPERKEY_METRICS_ADDR"`

	RequestTimeout time.Duration `env:"WHISPERKEY_REQUEST_TIMEOUT" envDefault:"60s"`
}

// LoadEnv reads envFile and then parses the environment. Variables already
// set in the process win over the file. An empty envFile reads
// DefaultEnvFile and skips it when absent; a named file must exist and
// parse.
func LoadEnv(envFile string) (*Env, error) {
	optional := envFile == ""
	if optional {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	e := &Env{}
	if err := env.Parse(e); err != nil {
		return nil, err
	}
	return e, nil
}
