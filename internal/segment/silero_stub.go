//go:build !silero

package segment

import (
	"fmt"
	"time"

	"github.com/obiente/translate/gosegment/internal/audio"
)

// Default stub so the module builds without onnxruntime; use -tags silero for the real detector.
type SileroDetector struct{}

func NewSileroDetector(modelPath string) (*SileroDetector, error) {
	return nil, fmt.Errorf("%w: built without silero tag (model %q)", ErrDetectorUnavailable, modelPath)
}

func (d *SileroDetector) DetectSpeech(*audio.Track, float64, time.Duration) ([]Interval, error) {
	return nil, ErrDetectorUnavailable
}
