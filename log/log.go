package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	diagName       = "diagnostics_log.txt"
	transcriptName = "transcribe_log.txt"
	timeFormat     = "2006-01-02 15:04:05"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

type Options struct {
	// Console, when set, also receives the diagnostic log (headless mode).
	Console io.Writer
	Debug   bool
}

// ResolveDir picks the log directory: the -logpath flag, then the
// WHISPERKEY_LOG_PATH value, then the OS default.
func ResolveDir(flagPath, envPath string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if envPath != "" {
		return absolute(envPath)
	}
	return defaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init(opts Options) error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagFile, err = os.OpenFile(filepath.Join(dir, diagName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribeFile, err = os.OpenFile(filepath.Join(dir, transcriptName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: diagFile, TimeFormat: timeFormat, NoColor: true}
	if opts.Console != nil {
		out = zerolog.MultiLevelWriter(out, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: "15:04:05"})
	}
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	diagLog = zerolog.New(out).Level(level).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
	diagLog = zerolog.Nop()
}

// Logger returns the diagnostic logger for packages that take one in their
// options. Before Init it discards everything.
func Logger() zerolog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	if !logReady {
		return zerolog.Nop()
	}
	return diagLog
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Transcript appends one "time\t[pid]\ttext" line to the transcript log.
func Transcript(text string) {
	logMu.Lock()
	defer logMu.Unlock()
	if !logReady || transcribeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format(timeFormat), pid, text)
	transcribeFile.WriteString(line)
}

type SessionInfo struct {
	Backend     string
	Model       string
	ComputeType string
	Device      string
	Language    string
	Mic         string
	Hotkey      string
	Mode        string
}

func SessionStart(s SessionInfo) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", s.Backend).
		Str("model", s.Model).
		Str("compute_type", s.ComputeType).
		Str("device", s.Device).
		Str("language", s.Language).
		Str("mic", s.Mic).
		Str("hotkey", s.Hotkey).
		Str("mode", s.Mode).
		Msg("session_start")
}

func SessionEnd(completed, noSpeech, failed int64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int64("completed", completed).
		Int64("no_speech", noSpeech).
		Int64("failed", failed).
		Msg("session_end")
}
