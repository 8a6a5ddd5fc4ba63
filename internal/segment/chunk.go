package segment

import (
	"encoding/json"
	"fmt"
	"time"
)

// AudioChunk is a half-open [StartMs, EndMs) interval into the source track.
type AudioChunk struct {
	StartMs int64 `json:"start_ms" yaml:"start_ms"`
	EndMs   int64 `json:"end_ms" yaml:"end_ms"`
}

func (c AudioChunk) StartSeconds() float64 { return float64(c.StartMs) / 1000 }
func (c AudioChunk) EndSeconds() float64   { return float64(c.EndMs) / 1000 }

// Duration returns the chunk length.
func (c AudioChunk) Duration() time.Duration {
	return time.Duration(c.EndMs-c.StartMs) * time.Millisecond
}

func (c AudioChunk) String() string {
	return fmt.Sprintf("%.3fs-%.3fs", c.StartSeconds(), c.EndSeconds())
}

// MarshalJSON adds the derived start_s/end_s fields for display on the
// receiving side.
func (c AudioChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartMs int64   `json:"start_ms" yaml:"start_ms"`
		EndMs   int64   `json:"end_ms" yaml:"end_ms"`
		StartS  float64 `json:"start_s"`
		EndS    float64 `json:"end_s"`
	}{c.StartMs, c.EndMs, c.StartSeconds(), c.EndSeconds()})
}

// Interval is a detected non-silent range in milliseconds.
type Interval struct {
	StartMs int64
	EndMs   int64
}
