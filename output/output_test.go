package output

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSystem struct {
	mu       sync.Mutex
	clip     string
	readErr  error
	writeErr error
	events   []string
	typed    []string
	delays   []time.Duration
}

func (f *fakeSystem) backend() *Backend {
	return &Backend{
		Read: func() (string, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.clip, f.readErr
		},
		Write: func(s string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.writeErr != nil {
				return f.writeErr
			}
			f.clip = s
			f.events = append(f.events, "write:"+s)
			return nil
		},
		Paste: func() error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.events = append(f.events, "paste:"+f.clip)
			return nil
		},
		Type: func(text string, delay time.Duration) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.typed = append(f.typed, text)
			f.delays = append(f.delays, delay)
			return nil
		},
	}
}

func (f *fakeSystem) Clip() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clip
}

func (f *fakeSystem) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func TestClipboardWithoutAutopaste(t *testing.T) {
	sys := &fakeSystem{clip: "before"}
	c := NewClipboard(Options{Backend: sys.backend(), Logger: zerolog.Nop()})

	c.Emit("hello world")
	c.Flush()

	assert.Equal(t, "hello world", sys.Clip())
	assert.Equal(t, []string{"write:hello world"}, sys.Events())
}

func TestClipboardAutopasteRestores(t *testing.T) {
	sys := &fakeSystem{clip: "user data"}
	c := NewClipboard(Options{
		Autopaste:    true,
		RestoreDelay: 20 * time.Millisecond,
		Backend:      sys.backend(),
		Logger:       zerolog.Nop(),
	})

	c.Emit("dictated")
	assert.Equal(t, "dictated", sys.Clip())

	require.Eventually(t, func() bool { return sys.Clip() == "user data" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"write:dictated", "paste:dictated", "write:user data"}, sys.Events())
}

func TestClipboardBackToBackKeepsOriginal(t *testing.T) {
	sys := &fakeSystem{clip: "original"}
	c := NewClipboard(Options{
		Autopaste:    true,
		RestoreDelay: time.Hour,
		Backend:      sys.backend(),
		Logger:       zerolog.Nop(),
	})

	c.Emit("first")
	c.Emit("second")
	c.Flush()

	assert.Equal(t, "original", sys.Clip())
	assert.Equal(t, []string{
		"write:first", "paste:first",
		"write:second", "paste:second",
		"write:original",
	}, sys.Events())
}

func TestClipboardEmptyClipboardNotRestored(t *testing.T) {
	sys := &fakeSystem{}
	c := NewClipboard(Options{Autopaste: true, RestoreDelay: time.Hour, Backend: sys.backend()})

	c.Emit("text")
	c.Flush()

	assert.Equal(t, "text", sys.Clip())
}

func TestClipboardWriteFailureIsSwallowed(t *testing.T) {
	sys := &fakeSystem{clip: "x", writeErr: errors.New("no display")}
	c := NewClipboard(Options{Autopaste: true, Backend: sys.backend(), Logger: zerolog.Nop()})

	assert.NotPanics(t, func() { c.Emit("text") })
	assert.Empty(t, sys.Events())
}

func TestClipboardReadFailureStillPastes(t *testing.T) {
	sys := &fakeSystem{clip: "x", readErr: errors.New("read failed")}
	c := NewClipboard(Options{Autopaste: true, RestoreDelay: time.Hour, Backend: sys.backend()})

	c.Emit("text")
	c.Flush()

	assert.Equal(t, []string{"write:text", "paste:text"}, sys.Events())
}

func TestTyperUsesFixedDelay(t *testing.T) {
	sys := &fakeSystem{}
	typer := NewTyper(Options{Backend: sys.backend(), Logger: zerolog.Nop()})

	typer.Emit("hello")
	typer.Emit("world")

	assert.Equal(t, []string{"hello", "world"}, sys.typed)
	assert.Equal(t, []time.Duration{DefaultCharDelay, DefaultCharDelay}, sys.delays)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(1)
	r.Emit("a")
	r.Emit("b")

	assert.Equal(t, []string{"a", "b"}, r.Texts())
	assert.Equal(t, "a", <-r.C())
}

func TestNew(t *testing.T) {
	sys := &fakeSystem{}
	s, err := New("type", Options{Backend: sys.backend()})
	require.NoError(t, err)
	assert.IsType(t, &Typer{}, s)

	s, err = New("clipboard", Options{Backend: sys.backend()})
	require.NoError(t, err)
	assert.IsType(t, &Clipboard{}, s)

	_, err = New("speaker", Options{})
	assert.Error(t, err)
}

func TestWriterPrintsLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "TRANSCRIPTION: ", zerolog.Nop())
	w.Emit("hello world")
	w.Emit("again")
	assert.Equal(t, "TRANSCRIPTION: hello world\nTRANSCRIPTION: again\n", buf.String())
}
