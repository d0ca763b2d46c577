package main

import (
	"flag"
	"io"
	"testing"
	"time"

	"whisperkey/config"
	"whisperkey/hotkey"
)

func parseFlags(t *testing.T, args ...string) (*cliFlags, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("whisperkey", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return f, fs
}

func TestApplyOnlyOverridesSetFlags(t *testing.T) {
	base := config.Default()
	base.DeviceName = "USB Mic"
	base.Autopaste = false
	base.BufferSeconds = 120

	f, fs := parseFlags(t, "-lang", "de", "-mode", "toggle", "-buffer", "60")
	got := f.apply(fs, base)

	if got.Language != "de" || got.Mode != "toggle" || got.BufferSeconds != 60 {
		t.Errorf("flags not applied: %+v", got)
	}
	// -autopaste defaults to true but was not passed
	if got.Autopaste {
		t.Error("unset -autopaste overrode the saved value")
	}
	if got.DeviceName != "USB Mic" {
		t.Errorf("DeviceName = %q, want saved value", got.DeviceName)
	}
}

func TestApplyMapsEveryField(t *testing.T) {
	f, fs := parseFlags(t,
		"-device", "Blue Yeti",
		"-model", "large-v3",
		"-compute", "float16",
		"-compute-device", "cuda",
		"-lang", "auto",
		"-backend", "groq",
		"-server", "http://gpu:9000/v1",
		"-hotkey", "alt+f9",
		"-mode", "toggle",
		"-output", "type",
		"-autopaste=false",
		"-buffer", "30",
	)
	got := f.apply(fs, config.Default())

	want := config.Settings{
		DeviceName:    "Blue Yeti",
		ModelSize:     "large-v3",
		ComputeType:   "float16",
		Device:        "cuda",
		Language:      "auto",
		Backend:       "groq",
		ServerURL:     "http://gpu:9000/v1",
		Hotkey:        "alt+f9",
		Mode:          "toggle",
		Output:        "type",
		Autopaste:     false,
		BufferSeconds: 30,
	}
	if got != want {
		t.Errorf("apply:\n got %+v\nwant %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLongPressFlag(t *testing.T) {
	f, _ := parseFlags(t)
	if f.longPress != hotkey.DefaultLongPress {
		t.Errorf("default longpress = %v", f.longPress)
	}
	f, _ = parseFlags(t, "-longpress", "250ms")
	if f.longPress != 250*time.Millisecond {
		t.Errorf("longpress = %v, want 250ms", f.longPress)
	}
}

func TestExecuteVersionAndBadFlags(t *testing.T) {
	if code := execute([]string{"-version"}); code != 0 {
		t.Errorf("-version exit code = %d", code)
	}
	if code := execute([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("unknown flag exit code = %d, want 2", code)
	}
}

func TestFirstSet(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"", ""}, ""},
		{[]string{"", "b", "c"}, "b"},
		{[]string{"a", "b"}, "a"},
	}
	for _, tt := range tests {
		if got := firstSet(tt.in...); got != tt.want {
			t.Errorf("firstSet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
