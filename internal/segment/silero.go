//go:build silero

package segment

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streamer45/silero-vad-go/speech"

	"github.com/obiente/translate/gosegment/internal/audio"
)

const sileroSampleRate = 16000

// SileroDetector runs the Silero VAD model instead of energy thresholding.
// The dB threshold is ignored; Threshold is the model's speech probability cutoff.
type SileroDetector struct {
	modelPath string
	Threshold float32
}

func NewSileroDetector(modelPath string) (*SileroDetector, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: silero model path is empty", ErrDetectorUnavailable)
	}
	return &SileroDetector{modelPath: modelPath, Threshold: 0.5}, nil
}

func (d *SileroDetector) DetectSpeech(track *audio.Track, _ float64, minSilence time.Duration) ([]Interval, error) {
	total := track.DurationMs()
	if total == 0 {
		return nil, nil
	}
	samples := track.Samples
	if track.SampleRate != sileroSampleRate {
		samples = audio.ResampleLinear(samples, track.SampleRate, sileroSampleRate)
	}

	// The ONNX session is not safe for concurrent use; each call owns one.
	sd, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            d.modelPath,
		SampleRate:           sileroSampleRate,
		Threshold:            d.Threshold,
		MinSilenceDurationMs: int(minSilence.Milliseconds()),
		SpeechPadMs:          0,
	})
	if err != nil {
		return nil, fmt.Errorf("create silero detector: %w", err)
	}
	defer func() {
		if err := sd.Destroy(); err != nil {
			log.Warn().Err(err).Msg("segment: silero destroy failed")
		}
	}()

	segs, err := sd.Detect(samples)
	if err != nil {
		return nil, fmt.Errorf("silero detect: %w", err)
	}

	out := make([]Interval, 0, len(segs))
	for _, s := range segs {
		start := int64(s.SpeechStartAt * 1000)
		end := int64(s.SpeechEndAt * 1000)
		// speech running into the end of the stream has no end mark
		if end <= start || end > total {
			end = total
		}
		if start >= end {
			continue
		}
		out = append(out, Interval{StartMs: start, EndMs: end})
	}
	return out, nil
}
