package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"whisperkey/audio"
	"whisperkey/config"
	"whisperkey/doctor"
	"whisperkey/hotkey"
	"whisperkey/log"
	"whisperkey/transcriber"
)

var version = "dev"

type cliFlags struct {
	settingsPath string
	envFile      string

	device        string
	model         string
	compute       string
	computeDevice string
	lang          string
	backend       string
	server        string
	hotkey        string
	mode          string
	longPress     time.Duration
	output        string
	autopaste     bool
	buffer        int

	setup   bool
	save    bool
	logPath string
	profile string
	metrics string
	tui     bool
	test    string
	doctor  bool
	version bool
	debug   bool
}

func bindFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{}
	fs.StringVar(&f.settingsPath, "settings", "", "settings file (default: <user config dir>/whisperkey/settings.json)")
	fs.StringVar(&f.envFile, "env", "", "dotenv file with API keys (default: ./.env when present)")

	fs.StringVar(&f.device, "device", "", "microphone name (exact or substring match)")
	fs.StringVar(&f.model, "model", "", "model name passed to the transcription server")
	fs.StringVar(&f.compute, "compute", "", "compute precision of the server: float16 or int8")
	fs.StringVar(&f.computeDevice, "compute-device", "", "compute device of the server: cpu or cuda")
	fs.StringVar(&f.lang, "lang", "", "language code, or auto to detect")
	fs.StringVar(&f.backend, "backend", "", "transcription backend: local, openai, groq or fake")
	fs.StringVar(&f.server, "server", "", "base URL of an OpenAI-compatible server for the local backend")
	fs.StringVar(&f.hotkey, "hotkey", "", "trigger combination, e.g. ctrl+shift+space")
	fs.StringVar(&f.mode, "mode", "", "hotkey mode: hold or toggle")
	fs.DurationVar(&f.longPress, "longpress", hotkey.DefaultLongPress, "toggle mode: presses longer than this act as push-to-talk")
	fs.StringVar(&f.output, "output", "", "output: clipboard or type")
	fs.BoolVar(&f.autopaste, "autopaste", true, "paste into the focused window after copying")
	fs.IntVar(&f.buffer, "buffer", 0, "maximum seconds of audio kept per recording")

	fs.BoolVar(&f.setup, "setup", false, "pick a microphone interactively and save it")
	fs.BoolVar(&f.save, "save", false, "save the effective settings and continue")
	fs.StringVar(&f.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.StringVar(&f.profile, "profile", "", "enable pprof server (e.g. localhost:6060)")
	fs.StringVar(&f.metrics, "metrics", "", "serve Prometheus metrics on addr (e.g. :9090)")
	fs.BoolVar(&f.tui, "tui", true, "run with terminal status view")
	fs.StringVar(&f.test, "test", "", "headless test mode: fake microphone fed from this WAV, commands on stdin")
	fs.BoolVar(&f.doctor, "doctor", false, "run interactive diagnostics and exit")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.BoolVar(&f.debug, "debug", false, "debug level logging")
	return f
}

// apply overlays the flags the user actually passed onto s.
func (f *cliFlags) apply(fs *flag.FlagSet, s config.Settings) config.Settings {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "device":
			s.DeviceName = f.device
		case "model":
			s.ModelSize = f.model
		case "compute":
			s.ComputeType = f.compute
		case "compute-device":
			s.Device = f.computeDevice
		case "lang":
			s.Language = f.lang
		case "backend":
			s.Backend = f.backend
		case "server":
			s.ServerURL = f.server
		case "hotkey":
			s.Hotkey = f.hotkey
		case "mode":
			s.Mode = f.mode
		case "output":
			s.Output = f.output
		case "autopaste":
			s.Autopaste = f.autopaste
		case "buffer":
			s.BufferSeconds = f.buffer
		}
	})
	return s
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func run() {
	code := execute(os.Args[1:])
	log.Close()
	os.Exit(code)
}

func execute(args []string) int {
	fs := flag.NewFlagSet("whisperkey", flag.ContinueOnError)
	f := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if f.version {
		fmt.Printf("whisperkey %s\n", version)
		return 0
	}

	env, err := config.LoadEnv(f.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: environment: %v\n", err)
		return 1
	}

	logPath, err := log.ResolveDir(f.logPath, env.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	} else {
		initCrashLog()
	}

	if f.profile != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", f.profile)
			if err := http.ListenAndServe(f.profile, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	settingsPath := firstSet(f.settingsPath, env.SettingsPath)
	if settingsPath == "" {
		if settingsPath, err = config.DefaultPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	settings, found, loadErr := config.Load(settingsPath)
	if loadErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring settings file: %v\n", loadErr)
	}
	if env.ServerURL != "" {
		settings.ServerURL = env.ServerURL
	}
	settings = f.apply(fs, settings)

	if f.setup {
		name, err := pickDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		settings.DeviceName = name
	}

	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if f.save || f.setup {
		if err := config.Save(settingsPath, settings); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Settings saved to %s\n", settingsPath)
	}

	headless := !f.tui || f.test != ""
	opts := log.Options{Debug: f.debug}
	if headless {
		opts.Console = os.Stderr
	}
	if err := log.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	logger := log.Logger()
	if loadErr != nil {
		logger.Warn().Err(loadErr).Str("path", settingsPath).Msg("settings_malformed")
	} else if !found {
		logger.Info().Str("path", settingsPath).Msg("no saved settings, using defaults")
	}

	trans, err := transcriber.New(transcriber.Config{
		Backend:   settings.Backend,
		ServerURL: settings.ServerURL,
		Model:     settings.ModelSize,
		GroqKey:   env.GroqAPIKey,
		GroqURL:   env.GroqURL,
		OpenAIKey: env.OpenAIAPIKey,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	combo := hotkey.MustParseCombo(settings.Hotkey)

	if f.doctor {
		return doctor.Run(doctor.Options{
			Combo:       combo,
			DeviceName:  settings.DeviceName,
			Transcriber: trans,
			Language:    settings.Language,
		})
	}

	r := runtimeConfig{
		settings:    settings,
		env:         env,
		combo:       combo,
		longPress:   f.longPress,
		transcriber: trans,
		metricsAddr: firstSet(f.metrics, env.MetricsAddr),
	}
	if f.test != "" {
		return runTestMode(f.test, r)
	}
	return runLive(r, f.tui)
}

func pickDevice() (string, error) {
	ctx, err := audio.NewContext()
	if err != nil {
		return "", fmt.Errorf("initializing audio: %w", err)
	}
	defer ctx.Close()
	dev, err := audio.SelectDevice(ctx)
	if err != nil {
		return "", err
	}
	return dev.Name, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
