// Package segment splits a decoded audio track into contiguous chunks of
// bounded duration, cutting inside silence gaps whenever the track has them.
package segment

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/gosegment/internal/audio"
)

// minChunkMs is the shortest chunk emitted after the first; shorter pieces are
// folded into the chunk before them.
const minChunkMs = 1000

// Segmenter is read-only after New and may be shared between goroutines.
type Segmenter struct {
	cfg      Config
	detector SpeechDetector

	targetMs     int64
	minMs        int64
	maxMs        int64
	minSilenceMs int64
}

type Option func(*Segmenter)

// WithDetector replaces the default EnergyDetector.
func WithDetector(d SpeechDetector) Option {
	return func(s *Segmenter) {
		if d != nil {
			s.detector = d
		}
	}
}

// New validates cfg and returns a Segmenter. Configuration problems are
// reported here and never from Segment.
func New(cfg Config, opts ...Option) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Segmenter{
		cfg:          cfg,
		detector:     NewEnergyDetector(DefaultSeekStep),
		targetMs:     cfg.TargetDuration.Milliseconds(),
		minMs:        cfg.MinDuration.Milliseconds(),
		maxMs:        cfg.MaxDuration.Milliseconds(),
		minSilenceMs: cfg.MinSilenceDuration.Milliseconds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Segmenter) Config() Config { return s.cfg }

// Segment returns the ordered chunks covering track with no gaps or overlaps.
// A zero-length track yields no chunks. The only error source is the detector.
func (s *Segmenter) Segment(track *audio.Track) ([]AudioChunk, error) {
	total := track.DurationMs()
	if total == 0 {
		return nil, nil
	}
	if total <= s.minMs {
		return []AudioChunk{{StartMs: 0, EndMs: total}}, nil
	}

	speech, err := s.detector.DetectSpeech(track, s.cfg.SilenceThresholdDB, s.cfg.MinSilenceDuration)
	if err != nil {
		return nil, fmt.Errorf("detect speech: %w", err)
	}

	var splits []int64
	if len(speech) == 0 {
		log.Debug().Int64("duration_ms", total).Msg("segment: no speech detected, using fixed-length chunks")
		splits = s.fixedSplits(total)
	} else {
		splits = s.silenceSplits(speech)
	}

	bounds := finalizeBounds(splits, total)
	bounds = mergeShort(bounds)
	bounds = s.enforceMax(bounds)

	chunks := make([]AudioChunk, 0, len(bounds)-1)
	for i := 1; i < len(bounds); i++ {
		chunks = append(chunks, AudioChunk{StartMs: bounds[i-1], EndMs: bounds[i]})
	}

	log.Debug().
		Int64("duration_ms", total).
		Int("speech_intervals", len(speech)).
		Int("natural_splits", len(splits)).
		Int("chunks", len(chunks)).
		Msg("segment: track segmented")
	return chunks, nil
}

func (s *Segmenter) fixedSplits(total int64) []int64 {
	var splits []int64
	for p := s.targetMs; p < total; p += s.targetMs {
		splits = append(splits, p)
	}
	return splits
}

// silenceSplits cuts at the midpoint of the gap before a speech interval once
// that interval starts a full target length after the previous cut, provided
// the gap is long enough to count as silence.
func (s *Segmenter) silenceSplits(speech []Interval) []int64 {
	var (
		splits []int64
		pos    int64
	)
	for i, iv := range speech {
		if i == 0 || iv.StartMs-pos < s.targetMs {
			continue
		}
		prevEnd := speech[i-1].EndMs
		gap := iv.StartMs - prevEnd
		if gap < s.minSilenceMs {
			continue
		}
		split := prevEnd + gap/2
		splits = append(splits, split)
		pos = split
	}
	return splits
}

// enforceMax breaks every span longer than the max into floor(span/target)+1
// equal parts, so each part is shorter than the target.
func (s *Segmenter) enforceMax(bounds []int64) []int64 {
	out := make([]int64, 0, len(bounds))
	out = append(out, bounds[0])
	for i := 1; i < len(bounds); i++ {
		start, end := bounds[i-1], bounds[i]
		span := end - start
		if span > s.maxMs {
			n := span / s.targetMs
			for j := int64(1); j <= n; j++ {
				out = append(out, start+span*j/(n+1))
			}
			log.Debug().
				Int64("start_ms", start).
				Int64("span_ms", span).
				Int64("forced_splits", n).
				Msg("segment: span exceeds max duration, forcing even splits")
		}
		out = append(out, end)
	}
	return out
}

// finalizeBounds adds 0 and total, drops anything outside (0, total), sorts
// and deduplicates.
func finalizeBounds(splits []int64, total int64) []int64 {
	bounds := make([]int64, 0, len(splits)+2)
	bounds = append(bounds, 0, total)
	for _, p := range splits {
		if p > 0 && p < total {
			bounds = append(bounds, p)
		}
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })

	out := bounds[:1]
	for _, b := range bounds[1:] {
		if b != out[len(out)-1] {
			out = append(out, b)
		}
	}
	return out
}

// mergeShort extends the previous chunk over any following piece shorter than
// minChunkMs. The first chunk is kept as is since nothing precedes it.
func mergeShort(bounds []int64) []int64 {
	out := make([]int64, 0, len(bounds))
	out = append(out, bounds[0])
	for _, b := range bounds[1:] {
		if len(out) > 1 && b-out[len(out)-1] < minChunkMs {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
