package recorder

// Downmix reduces interleaved src to mono, appending to dst[:0]. Two channels
// are averaged; any other layout keeps the first channel of each frame.
func Downmix(dst, src []float32, channels int) []float32 {
	dst = dst[:0]
	if channels <= 1 {
		return append(dst, src...)
	}
	frames := len(src) / channels
	for i := 0; i < frames; i++ {
		base := i * channels
		if channels == 2 {
			dst = append(dst, (src[base]+src[base+1])/2)
		} else {
			dst = append(dst, src[base])
		}
	}
	return dst
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// Normalize scales samples in place so the loudest has magnitude 1 and returns
// the peak before scaling. An all-zero frame is left untouched.
func Normalize(samples []float32) float32 {
	peak := Peak(samples)
	if peak == 0 {
		return 0
	}
	for i := range samples {
		samples[i] /= peak
	}
	return peak
}
