package encoder

import "fmt"

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder packs 16-bit mono PCM into an upload container.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	// Filename is the name the payload is uploaded under; providers sniff
	// the container from its extension.
	Filename() string
}

// FloatToPCM16 converts samples in [-1, 1] to signed 16-bit PCM, clamping
// anything outside that range.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// Encode feeds samples through enc in BlockSize chunks and closes it.
func Encode(enc Encoder, samples []float32) ([]byte, error) {
	pcm := FloatToPCM16(samples)
	for i := 0; i < len(pcm); i += BlockSize {
		if err := enc.EncodeBlock(pcm[i:min(i+BlockSize, len(pcm))]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return enc.Bytes(), nil
}
