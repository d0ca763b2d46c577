//go:build portaudio

package audio

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/gordonklaus/portaudio"
)

type paContext struct{}

func NewContext() (Context, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	return &paContext{}, nil
}

func (p *paContext) inputDevices() ([]*portaudio.DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio devices: %w", err)
	}
	var inputs []*portaudio.DeviceInfo
	for _, d := range all {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

func (p *paContext) Devices() ([]DeviceInfo, error) {
	inputs, err := p.inputDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]DeviceInfo, 0, len(inputs))
	for i, d := range inputs {
		devices = append(devices, DeviceInfo{ID: strconv.Itoa(i), Name: d.Name})
	}
	return devices, nil
}

func (p *paContext) NewCapture(device *DeviceInfo, config CaptureConfig, cb DataCallback) (CaptureDevice, error) {
	var dev *portaudio.DeviceInfo
	if device != nil {
		inputs, err := p.inputDevices()
		if err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(device.ID)
		if err != nil || idx < 0 || idx >= len(inputs) {
			return nil, fmt.Errorf("portaudio: invalid device ID %q", device.ID)
		}
		dev = inputs[idx]
	} else {
		d, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("portaudio default input: %w", err)
		}
		dev = d
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = int(config.Channels)
	params.SampleRate = float64(config.SampleRate)
	params.FramesPerBuffer = int(config.BlockSize)

	c := &paCapture{name: dev.Name, gate: newGate(cb), channels: config.Channels}
	stream, err := portaudio.OpenStream(params, c.process)
	if err != nil {
		return nil, fmt.Errorf("portaudio open: %w", err)
	}
	c.stream = stream
	return c, nil
}

func (p *paContext) Close() {
	portaudio.Terminate()
}

type paCapture struct {
	stream   *portaudio.Stream
	name     string
	channels uint32
	gate     *gate

	mu      sync.Mutex
	started bool
}

func (c *paCapture) process(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	var status Status
	if flags&portaudio.InputUnderflow != 0 {
		status |= StatusInputUnderflow
	}
	if flags&portaudio.InputOverflow != 0 {
		status |= StatusInputOverflow
	}
	c.gate.deliver(in, uint32(len(in))/c.channels, status)
}

func (c *paCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.gate.setOpen(true)
	if err := c.stream.Start(); err != nil {
		c.gate.setOpen(false)
		return fmt.Errorf("portaudio start: %w", err)
	}
	c.started = true
	return nil
}

func (c *paCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate.setOpen(false)
	if c.started {
		c.stream.Stop()
		c.started = false
	}
}

func (c *paCapture) Close() {
	c.Stop()
	c.stream.Close()
}

func (c *paCapture) DeviceName() string {
	return c.name
}
