package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"whisperkey/audio"
	"whisperkey/clipboard"
	"whisperkey/config"
	"whisperkey/hotkey"
	"whisperkey/log"
	"whisperkey/metrics"
	"whisperkey/output"
	"whisperkey/recorder"
	"whisperkey/shutdown"
	"whisperkey/transcriber"
)

const drainTimeout = 3 * time.Second

type runtimeConfig struct {
	settings    config.Settings
	env         *config.Env
	combo       hotkey.Combo
	longPress   time.Duration
	transcriber transcriber.Transcriber
	metricsAddr string
}

// deps are the pieces that differ between live and test mode.
type deps struct {
	audio  audio.Context
	device *audio.DeviceInfo
	hotkey hotkey.Hotkey
	sink   output.Sink
	events EventSink
	clock  recorder.Clock // nil means wall time
}

type app struct {
	cfg     runtimeConfig
	hk      hotkey.Hotkey
	trigger hotkey.Trigger
	ctrl    *recorder.Controller
	worker  *transcriber.Worker
	sink    output.Sink
	events  EventSink
	log     zerolog.Logger
}

func newApp(cfg runtimeConfig, d deps) (*app, error) {
	logger := log.Logger()
	events := d.events
	if events == nil {
		events = nopEvents{}
	}

	worker := transcriber.NewWorker(transcriber.WorkerOptions{
		Transcriber: cfg.transcriber,
		Sink:        d.sink,
		Language:    cfg.settings.Language,
		Timeout:     cfg.env.RequestTimeout,
		Logger:      logger,
		OnResult: func(res transcriber.Result) {
			if res.Text != "" {
				log.Transcript(res.Text)
			}
			events.Transcription(res)
		},
	})

	ctrl, err := recorder.New(recorder.Options{
		Audio:         d.audio,
		Device:        d.device,
		BufferSeconds: cfg.settings.BufferSeconds,
		Dispatcher:    worker,
		Listener:      recorderEvents{events},
		Clock:         d.clock,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	mode, err := hotkey.ParseMode(cfg.settings.Mode)
	if err != nil {
		return nil, err
	}
	if err := d.hotkey.Register(); err != nil {
		return nil, fmt.Errorf("registering hotkey %s: %w", cfg.combo.Label(), err)
	}

	return &app{
		cfg:     cfg,
		hk:      d.hotkey,
		trigger: hotkey.NewTrigger(d.hotkey, mode, cfg.longPress),
		ctrl:    ctrl,
		worker:  worker,
		sink:    d.sink,
		events:  events,
		log:     logger,
	}, nil
}

// loop turns trigger edges into controller calls until ctx is done. Each
// iteration waits for a start edge and then only for its stop edge.
func (a *app) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.trigger.Start():
		}
		if err := a.ctrl.Start(); err != nil {
			a.log.Error().Err(err).Msg("recording_error")
			a.events.Error(err)
		}

		select {
		case <-ctx.Done():
			return
		case <-a.trigger.Stop():
		}
		a.ctrl.Stop()
	}
}

// shutdown ends an open session through the normal debounce path, then
// gives in-flight jobs a bounded time to finish.
func (a *app) shutdown() {
	a.trigger.Close()
	a.hk.Unregister()
	a.ctrl.Stop()
	if !a.worker.Wait(drainTimeout) {
		a.log.Warn().Dur("timeout", drainTimeout).Msg("abandoning in-flight transcriptions")
	}
	if c, ok := a.sink.(*output.Clipboard); ok {
		c.Flush()
	}
	st := a.worker.Stats()
	log.SessionEnd(st.Completed, st.NoSpeech, st.Failed)
}

func (a *app) sessionInfo(mic string) log.SessionInfo {
	s := a.cfg.settings
	return log.SessionInfo{
		Backend:     a.cfg.transcriber.Name(),
		Model:       s.ModelSize,
		ComputeType: s.ComputeType,
		Device:      s.Device,
		Language:    s.Language,
		Mic:         mic,
		Hotkey:      a.cfg.combo.String(),
		Mode:        s.Mode,
	}
}

func modeLineText(cfg runtimeConfig) string {
	s := cfg.settings
	backend := cfg.transcriber.Name()
	if backend == "local" {
		backend += " " + s.ModelSize + " " + s.ComputeType + "/" + s.Device
	}
	return fmt.Sprintf("[%s | %s | %s → %s]", backend, s.Language, s.Mode, s.Output)
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func runLive(cfg runtimeConfig, withTUI bool) int {
	actx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		return 1
	}
	defer actx.Close()

	device, err := audio.Resolve(actx, cfg.settings.DeviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	hk, err := hotkey.New(cfg.combo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: hotkey: %v\n", err)
		return 1
	}

	if cfg.settings.Autopaste || cfg.settings.Output == "type" {
		if err := clipboard.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: keystroke init failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		}
	}
	sink, err := output.New(cfg.settings.Output, output.Options{
		Autopaste: cfg.settings.Autopaste,
		Logger:    log.Logger(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var a *app
	var program *tea.Program
	var events EventSink = nopEvents{}
	if withTUI {
		// the probe first runs after program.Run, by which time a is set
		program = NewTUIProgram(cfg.combo.Label(), func() float32 { return a.ctrl.Level() })
		events = newTUIEvents(program)
	}

	a, err = newApp(cfg, deps{audio: actx, device: device, hotkey: hk, sink: sink, events: events})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopSignals := shutdown.OnSignal(func(sig os.Signal) {
		a.log.Info().Stringer("signal", sig).Msg("shutdown")
		cancel()
	})
	defer stopSignals()

	if cfg.metricsAddr != "" {
		prometheus.MustRegister(metrics.NewCollector(a.ctrl))
		go func() {
			if err := metrics.Serve(ctx, cfg.metricsAddr); err != nil {
				a.log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	if w, ok := cfg.transcriber.(transcriber.Warmer); ok {
		go w.Warm()
	}

	mic := "system default"
	if device != nil {
		mic = device.Name
	}
	log.SessionStart(a.sessionInfo(mic))
	events.ModeLine(modeLineText(cfg))
	events.DeviceLine(deviceLineText(device))

	if program != nil {
		tuiDone := make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := program.Run(); err != nil {
				a.log.Error().Err(err).Msg("tui")
			}
			cancel()
		}()
		a.loop(ctx)
		program.Quit()
		<-tuiDone
	} else {
		fmt.Fprintf(os.Stderr, "whisperkey %s ready: %s to record (%s mode)\n", version, cfg.combo.Label(), cfg.settings.Mode)
		a.loop(ctx)
	}

	a.shutdown()
	return 0
}
