package hotkey

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type Mode string

const (
	ModeHold   Mode = "hold"
	ModeToggle Mode = "toggle"
)

const DefaultLongPress = 400 * time.Millisecond

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeHold, ModeToggle:
		return m, nil
	case "":
		return ModeHold, nil
	}
	return "", fmt.Errorf("unknown hotkey mode %q (want hold or toggle)", s)
}

// Trigger turns raw key edges into recording start and stop requests.
type Trigger interface {
	Start() <-chan struct{}
	Stop() <-chan struct{}
	Close()
}

// NewTrigger wraps hk according to mode. longPress only applies to toggle.
func NewTrigger(hk Hotkey, mode Mode, longPress time.Duration) Trigger {
	if mode == ModeToggle {
		return NewHybrid(hk, longPress)
	}
	return hold{hk}
}

// hold starts on press and stops on release.
type hold struct{ hk Hotkey }

func (h hold) Start() <-chan struct{} { return h.hk.Keydown() }
func (h hold) Stop() <-chan struct{}  { return h.hk.Keyup() }
func (h hold) Close()                 {}

// Hybrid provides tap-to-toggle and hold-to-talk on the same key. Every
// press starts a recording. A release before the long-press threshold
// latches toggle mode and the next press-release stops it; a longer hold
// stops on release.
type Hybrid struct {
	startCh chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once
	toggle  atomic.Bool
}

func NewHybrid(hk Hotkey, longPress time.Duration) *Hybrid {
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	h := &Hybrid{
		startCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go h.run(hk, longPress)
	return h
}

func (h *Hybrid) Start() <-chan struct{} { return h.startCh }
func (h *Hybrid) Stop() <-chan struct{}  { return h.stopCh }

// IsToggle reports whether the current recording was latched by a tap.
func (h *Hybrid) IsToggle() bool { return h.toggle.Load() }

func (h *Hybrid) Close() {
	h.once.Do(func() { close(h.done) })
}

// wait blocks on ch and reports false once the hybrid is closed.
func (h *Hybrid) wait(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hybrid) run(hk Hotkey, longPress time.Duration) {
	for {
		if !h.wait(hk.Keydown()) {
			return
		}
		h.toggle.Store(false)
		notify(h.startCh)

		timer := time.NewTimer(longPress)
		select {
		case <-h.done:
			timer.Stop()
			return
		case <-timer.C:
			if !h.wait(hk.Keyup()) {
				return
			}
		case <-hk.Keyup():
			timer.Stop()
			h.toggle.Store(true)
			if !h.wait(hk.Keydown()) || !h.wait(hk.Keyup()) {
				return
			}
		}
		notify(h.stopCh)
	}
}
