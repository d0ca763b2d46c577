package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"whisperkey/audio"
	"whisperkey/hotkey"
	"whisperkey/log"
	"whisperkey/output"
	"whisperkey/transcriber"
)

// testEvents reports every finished session on done: a debounced stop, or
// the result of a dispatched job.
type testEvents struct {
	nopEvents
	done chan struct{}
}

func (e testEvents) signal() {
	select {
	case e.done <- struct{}{}:
	default:
	}
}

func (e testEvents) RecordingStop(_ time.Duration, dispatched bool) {
	if !dispatched {
		e.signal()
	}
}

func (e testEvents) Transcription(transcriber.Result) { e.signal() }

// runTestMode drives the real controller, worker and trigger with a fake
// microphone and hotkey. Commands are read from stdin, one per line:
// KEYDOWN, KEYUP, SLEEP <ms>, WAIT and QUIT. Transcripts go to stdout.
func runTestMode(wavPath string, cfg runtimeConfig) int {
	fakeCtx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}

	hk := hotkey.NewFake()
	events := testEvents{done: make(chan struct{}, 16)}
	a, err := newApp(cfg, deps{
		audio:  fakeCtx,
		hotkey: hk,
		sink:   output.NewWriter(os.Stdout, "TRANSCRIPTION: ", log.Logger()),
		events: events,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.SessionStart(a.sessionInfo("fake"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		driveTest(os.Stdin, hk, events.done)
		cancel()
	}()

	a.loop(ctx)
	a.shutdown()
	return 0
}

// driveTest executes commands from r until QUIT or end of input.
func driveTest(r io.Reader, hk *hotkey.FakeHotkey, done <-chan struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "KEYDOWN":
			hk.SimKeydown()
		case cmd == "KEYUP":
			hk.SimKeyup()
		case cmd == "WAIT":
			<-done
		case cmd == "QUIT":
			return
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(strings.TrimSpace(cmd[6:])); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "":
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		}
	}
}
