package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"whisperkey/audio"
	"whisperkey/hotkey"
	"whisperkey/recorder"
	"whisperkey/transcriber"
)

const recordFor = 3 * time.Second

type Options struct {
	Combo       hotkey.Combo
	DeviceName  string
	Transcriber transcriber.Transcriber
	Language    string
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	tty := saveTerminal()
	stop := tty.exitOnInterrupt()
	defer stop()

	fmt.Println("whisperkey doctor - interactive system diagnostics")
	fmt.Println("==================================================")

	checks := []func(Options) bool{
		func(o Options) bool { return checkHotkey(o, tty) },
		checkMicAndTranscription,
		checkClipboardCopy,
		checkClipboardPaste,
	}

	allPass := true
	for _, check := range checks {
		if !check(opts) {
			allPass = false
			break
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(opts Options, tty *terminal) bool {
	fmt.Println()
	fmt.Println("[1/4] Hotkey detection")

	msg, err := hotkey.Diagnose(opts.Combo)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", msg)
	fmt.Printf("Press %s...\n", opts.Combo.Label())

	hk, err := hotkey.New(opts.Combo)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup to avoid triggering next step
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		tty.restore()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicAndTranscription(opts Options) bool {
	fmt.Println()
	fmt.Println("[2/4] Microphone and transcription")

	reader := bufio.NewReader(os.Stdin)

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	device, err := audio.Resolve(actx, opts.DeviceName)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	name := "system default"
	if device != nil {
		name = device.Name
	}
	fmt.Printf("Using device: %s\n", name)

	sessions := make(chan recorder.Session, 1)
	ctrl, err := recorder.New(recorder.Options{
		Audio:      actx,
		Device:     device,
		Dispatcher: recorder.DispatcherFunc(func(s recorder.Session) { sessions <- s }),
	})
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	fmt.Println()
	fmt.Printf("Press Enter and speak for %d seconds...", int(recordFor.Seconds()))
	reader.ReadString('\n')

	if err := ctrl.Start(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	fmt.Print("  Recording")
	var peak float32
	deadline := time.After(recordFor)
	ticker := time.NewTicker(500 * time.Millisecond)
recording:
	for {
		select {
		case <-ticker.C:
			if l := ctrl.Level(); l > peak {
				peak = l
			}
			fmt.Print(".")
		case <-deadline:
			break recording
		}
	}
	ticker.Stop()
	ctrl.Stop()
	fmt.Println(" done")

	var sess recorder.Session
	select {
	case sess = <-sessions:
	default:
		fmt.Println("  FAIL: session was not dispatched")
		return false
	}
	if len(sess.Samples) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}
	fmt.Printf("  Recorded %.1f s (input peak %.2f), transcribing with %s...\n",
		float64(len(sess.Samples))/audio.SampleRate, peak, opts.Transcriber.Name())
	if peak < 0.01 {
		fmt.Println("  Warning: input is nearly silent, check the microphone gain")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	segments, err := opts.Transcriber.Transcribe(ctx, sess.Samples, opts.Language)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	text := transcriber.JoinSegments(segments)
	if text == "" {
		text = "(no speech detected)"
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	// Fresh reader to clear any buffered input
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}

	fmt.Println("  FAIL: transcription not confirmed")
	return false
}
