package output

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whisperkey/clipboard"
)

const DefaultRestoreDelay = 600 * time.Millisecond

// Backend is the system surface the sinks drive. The zero value of Options
// uses the real clipboard and keyboard.
type Backend struct {
	Read  func() (string, error)
	Write func(string) error
	Paste func() error
	Type  func(text string, delay time.Duration) error
}

func systemBackend() Backend {
	return Backend{
		Read:  clipboard.Read,
		Write: clipboard.Copy,
		Paste: clipboard.Paste,
		Type:  clipboard.Type,
	}
}

type Options struct {
	Autopaste    bool
	RestoreDelay time.Duration // clipboard only; defaults to DefaultRestoreDelay
	CharDelay    time.Duration // typer only; defaults to DefaultCharDelay
	Backend      *Backend
	Logger       zerolog.Logger
}

func (o Options) backend() Backend {
	if o.Backend != nil {
		return *o.Backend
	}
	return systemBackend()
}

// Clipboard places text on the system clipboard. With autopaste it also
// sends the paste chord and puts the previous clipboard contents back
// shortly afterwards.
type Clipboard struct {
	b         Backend
	autopaste bool
	delay     time.Duration
	log       zerolog.Logger

	mu    sync.Mutex
	saved string
	held  bool // saved holds the user's clipboard awaiting restore
	gen   uint64
	timer *time.Timer
}

func NewClipboard(opts Options) *Clipboard {
	if opts.RestoreDelay <= 0 {
		opts.RestoreDelay = DefaultRestoreDelay
	}
	return &Clipboard{
		b:         opts.backend(),
		autopaste: opts.Autopaste,
		delay:     opts.RestoreDelay,
		log:       opts.Logger,
	}
}

func (c *Clipboard) Emit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A pending restore already holds the user's clipboard; reading now
	// would capture our own previous output.
	if c.autopaste && !c.held {
		prev, err := c.b.Read()
		if err != nil {
			c.log.Warn().Err(err).Msg("clipboard read failed, previous contents will not be restored")
		} else if prev != "" {
			c.saved = prev
			c.held = true
		}
	}

	if err := c.b.Write(text); err != nil {
		c.log.Error().Err(err).Msg("clipboard write failed")
		return
	}
	if !c.autopaste {
		return
	}

	if err := c.b.Paste(); err != nil {
		c.log.Error().Err(err).Msg("paste failed")
	}
	if c.held {
		c.scheduleRestore()
	}
}

func (c *Clipboard) scheduleRestore() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() { c.restore(gen) })
}

func (c *Clipboard) restore(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || !c.held {
		return
	}
	c.restoreLocked()
}

func (c *Clipboard) restoreLocked() {
	if err := c.b.Write(c.saved); err != nil {
		c.log.Warn().Err(err).Msg("clipboard restore failed")
	}
	c.saved = ""
	c.held = false
	c.timer = nil
}

// Flush performs any pending restore immediately.
func (c *Clipboard) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	c.restoreLocked()
}
