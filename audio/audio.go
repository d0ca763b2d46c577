package audio

import (
	"strings"
	"sync"
)

const (
	SampleRate = 16000
	Channels   = 1
	BlockSize  = 1024
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Status carries the driver flags reported alongside a delivered block.
type Status uint32

const (
	StatusInputUnderflow Status = 1 << iota
	StatusInputOverflow
)

func (s Status) String() string {
	if s == 0 {
		return ""
	}
	var parts []string
	if s&StatusInputUnderflow != 0 {
		parts = append(parts, "input underflow")
	}
	if s&StatusInputOverflow != 0 {
		parts = append(parts, "input overflow")
	}
	if rest := s &^ (StatusInputUnderflow | StatusInputOverflow); rest != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, ", ")
}

// DataCallback receives interleaved float32 samples. frameCount is the
// number of frames, so len(samples) == frameCount*channels. samples is only
// valid for the duration of the call.
type DataCallback func(samples []float32, frameCount uint32, status Status)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	BlockSize  uint32
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{SampleRate: SampleRate, Channels: Channels, BlockSize: BlockSize}
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig, cb DataCallback) (CaptureDevice, error)
	Close()
}

// CaptureDevice is a single open stream. Once Stop returns, the callback
// passed to NewCapture is not running and will not be invoked again until
// the next Start.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	DeviceName() string
}

// gate serializes callback delivery against Stop.
type gate struct {
	mu   sync.Mutex
	open bool
	cb   DataCallback
}

func newGate(cb DataCallback) *gate {
	return &gate{cb: cb}
}

func (g *gate) deliver(samples []float32, frameCount uint32, status Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open || g.cb == nil {
		return
	}
	g.cb(samples, frameCount, status)
}

func (g *gate) setOpen(open bool) {
	g.mu.Lock()
	g.open = open
	g.mu.Unlock()
}
