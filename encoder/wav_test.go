package encoder

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/youpy/go-wav"
)

func TestWavEncoder(t *testing.T) {
	samples := sine(5000, 300)
	enc := NewWav()
	data, err := Encode(enc, samples)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q", data[:12])
	}
	if want := 44 + 2*len(samples); len(data) != want {
		t.Errorf("len = %d, want %d", len(data), want)
	}

	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if format.SampleRate != SampleRate || format.NumChannels != Channels || format.BitsPerSample != BitsPerSample {
		t.Errorf("format = %+v", format)
	}

	pcm := FloatToPCM16(samples)
	var got []int
	for {
		batch, err := r.ReadSamples(1024)
		for _, s := range batch {
			got = append(got, r.IntValue(s, 0))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples: %v", err)
		}
	}
	if len(got) != len(pcm) {
		t.Fatalf("read %d samples, want %d", len(got), len(pcm))
	}
	for i := range pcm {
		if got[i] != int(pcm[i]) {
			t.Fatalf("sample %d = %d, want %d", i, got[i], pcm[i])
		}
	}
}

func TestWavEncoderEmpty(t *testing.T) {
	enc := NewWav()
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(enc.Bytes()) != 44 {
		t.Errorf("empty wav = %d bytes, want 44", len(enc.Bytes()))
	}
	if enc.Filename() != "audio.wav" {
		t.Errorf("Filename = %q", enc.Filename())
	}
}

func TestFloatToPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16383},
		{2, 32767},
		{-3, -32768},
	}
	for _, tt := range tests {
		got := FloatToPCM16([]float32{tt.in})[0]
		if got != tt.want {
			t.Errorf("FloatToPCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
