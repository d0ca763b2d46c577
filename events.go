package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"whisperkey/transcriber"
)

// EventSink abstracts the display layer. Calls come from the controller
// (with its lock held) and from worker goroutines, so implementations must
// not block.
type EventSink interface {
	RecordingStart(id string)
	RecordingStop(elapsed time.Duration, dispatched bool)
	Transcription(res transcriber.Result)
	Error(err error)
	ModeLine(text string)
	DeviceLine(text string)
}

type nopEvents struct{}

func (nopEvents) RecordingStart(string)             {}
func (nopEvents) RecordingStop(time.Duration, bool) {}
func (nopEvents) Transcription(transcriber.Result)  {}
func (nopEvents) Error(error)                       {}
func (nopEvents) ModeLine(string)                   {}
func (nopEvents) DeviceLine(string)                 {}

// recorderEvents adapts an EventSink to recorder.Listener.
type recorderEvents struct{ sink EventSink }

func (r recorderEvents) RecordingStarted(id string) { r.sink.RecordingStart(id) }

func (r recorderEvents) RecordingStopped(_ string, elapsed time.Duration, dispatched bool) {
	r.sink.RecordingStop(elapsed, dispatched)
}

// tuiEvents queues messages for the Bubble Tea program. The queue is drained
// by one goroutine so Send never runs on the caller; overflow is dropped.
type tuiEvents struct {
	ch chan tea.Msg
}

func newTUIEvents(p *tea.Program) *tuiEvents {
	e := &tuiEvents{ch: make(chan tea.Msg, 64)}
	go func() {
		for msg := range e.ch {
			p.Send(msg)
		}
	}()
	return e
}

func (e *tuiEvents) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
	}
}

func (e *tuiEvents) RecordingStart(string) { e.send(RecordingStartMsg{At: time.Now()}) }

func (e *tuiEvents) RecordingStop(elapsed time.Duration, dispatched bool) {
	e.send(RecordingStopMsg{Elapsed: elapsed, Dispatched: dispatched})
}

func (e *tuiEvents) Transcription(res transcriber.Result) {
	msg := TranscriptionMsg{Text: res.Text, Elapsed: res.Elapsed, NoSpeech: res.NoSpeech()}
	if res.Err != nil {
		msg.Err = res.Err.Error()
	}
	e.send(msg)
}

func (e *tuiEvents) Error(err error)        { e.send(TranscriptionMsg{Err: err.Error()}) }
func (e *tuiEvents) ModeLine(text string)   { e.send(ModeLineMsg{Text: text}) }
func (e *tuiEvents) DeviceLine(text string) { e.send(DeviceLineMsg{Text: text}) }
