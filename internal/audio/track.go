package audio

// Track is a decoded mono PCM32F signal. The caller owns Samples; nothing in
// this module mutates a Track after it has been built.
type Track struct {
	Samples    []float32
	SampleRate int
}

// DurationMs is the track length in whole milliseconds.
func (t *Track) DurationMs() int64 {
	if t == nil || t.SampleRate <= 0 {
		return 0
	}
	return int64(len(t.Samples)) * 1000 / int64(t.SampleRate)
}

// SampleIndex maps a millisecond offset to a sample index clamped to the track.
func (t *Track) SampleIndex(ms int64) int {
	if ms <= 0 || t.SampleRate <= 0 {
		return 0
	}
	i := ms * int64(t.SampleRate) / 1000
	if i > int64(len(t.Samples)) {
		return len(t.Samples)
	}
	return int(i)
}

// Slice returns the [startMs, endMs) range of the track. The returned Track
// shares its backing array with t.
func (t *Track) Slice(startMs, endMs int64) *Track {
	lo, hi := t.SampleIndex(startMs), t.SampleIndex(endMs)
	if hi < lo {
		hi = lo
	}
	return &Track{Samples: t.Samples[lo:hi], SampleRate: t.SampleRate}
}

// Resample returns a copy of the track at the given rate.
func (t *Track) Resample(rate int) *Track {
	return &Track{Samples: ResampleLinear(t.Samples, t.SampleRate, rate), SampleRate: rate}
}
