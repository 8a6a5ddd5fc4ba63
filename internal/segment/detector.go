package segment

import (
	"math"
	"time"

	"github.com/obiente/translate/gosegment/internal/audio"
)

// SpeechDetector finds the non-silent intervals of a track, in order.
// Returning no intervals means the whole track is silent.
type SpeechDetector interface {
	DetectSpeech(track *audio.Track, thresholdDB float64, minSilence time.Duration) ([]Interval, error)
}

// DefaultSeekStep is how far the energy window advances per probe.
const DefaultSeekStep = 100 * time.Millisecond

// EnergyDetector classifies audio by RMS level. A window of minSilence length
// slides across the track in SeekStep increments; windows whose RMS is at or
// below the threshold are silent, overlapping silent windows form silent
// ranges, and speech is everything in between.
type EnergyDetector struct {
	SeekStep time.Duration
}

func NewEnergyDetector(seekStep time.Duration) *EnergyDetector {
	if seekStep < time.Millisecond {
		seekStep = DefaultSeekStep
	}
	return &EnergyDetector{SeekStep: seekStep}
}

func (d *EnergyDetector) DetectSpeech(track *audio.Track, thresholdDB float64, minSilence time.Duration) ([]Interval, error) {
	total := track.DurationMs()
	if total == 0 {
		return nil, nil
	}
	silent := d.silentRanges(track, thresholdDB, minSilence.Milliseconds())
	if len(silent) == 0 {
		return []Interval{{StartMs: 0, EndMs: total}}, nil
	}
	if silent[0].StartMs == 0 && silent[0].EndMs == total {
		return nil, nil
	}

	speech := make([]Interval, 0, len(silent)+1)
	var prevEnd int64
	for _, s := range silent {
		if s.StartMs > prevEnd {
			speech = append(speech, Interval{StartMs: prevEnd, EndMs: s.StartMs})
		}
		prevEnd = s.EndMs
	}
	if prevEnd < total {
		speech = append(speech, Interval{StartMs: prevEnd, EndMs: total})
	}
	return speech, nil
}

func (d *EnergyDetector) silentRanges(track *audio.Track, thresholdDB float64, window int64) []Interval {
	total := track.DurationMs()
	if window <= 0 || total < window {
		return nil
	}
	step := d.SeekStep.Milliseconds()
	if step <= 0 {
		step = DefaultSeekStep.Milliseconds()
	}
	limit := math.Pow(10, thresholdDB/20)
	energy := newEnergyIndex(track, total)

	last := total - window
	var starts []int64
	probe := func(ms int64) {
		if energy.rms(ms, ms+window) <= limit {
			starts = append(starts, ms)
		}
	}
	for ms := int64(0); ms <= last; ms += step {
		probe(ms)
	}
	if last%step != 0 {
		probe(last)
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges []Interval
	prev := starts[0]
	rangeStart := prev
	for _, s := range starts[1:] {
		continuous := s == prev+step
		hasGap := s > prev+window
		if !continuous && hasGap {
			ranges = append(ranges, Interval{StartMs: rangeStart, EndMs: prev + window})
			rangeStart = s
		}
		prev = s
	}
	return append(ranges, Interval{StartMs: rangeStart, EndMs: prev + window})
}

// energyIndex holds cumulative sums of squared samples at millisecond
// boundaries so any window's RMS is O(1).
type energyIndex struct {
	cum   []float64
	count []int
}

func newEnergyIndex(track *audio.Track, total int64) energyIndex {
	idx := energyIndex{
		cum:   make([]float64, total+1),
		count: make([]int, total+1),
	}
	var acc float64
	pos := 0
	for ms := int64(1); ms <= total; ms++ {
		end := track.SampleIndex(ms)
		for ; pos < end; pos++ {
			s := float64(track.Samples[pos])
			acc += s * s
		}
		idx.cum[ms] = acc
		idx.count[ms] = end
	}
	return idx
}

func (e energyIndex) rms(from, to int64) float64 {
	n := e.count[to] - e.count[from]
	if n <= 0 {
		return 0
	}
	sum := e.cum[to] - e.cum[from]
	if sum <= 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
