package segment

import "time"

// Overrides carries optional per-request replacements for Config fields.
// Durations are in milliseconds to match the chunk wire format.
type Overrides struct {
	TargetMs     *int64   `json:"target_ms,omitempty"`
	MinMs        *int64   `json:"min_ms,omitempty"`
	MaxMs        *int64   `json:"max_ms,omitempty"`
	ThresholdDB  *float64 `json:"threshold_db,omitempty"`
	MinSilenceMs *int64   `json:"min_silence_ms,omitempty"`
}

func (o Overrides) Empty() bool {
	return o.TargetMs == nil && o.MinMs == nil && o.MaxMs == nil && o.ThresholdDB == nil && o.MinSilenceMs == nil
}

// Apply returns c with every set override replacing the matching field.
func (o Overrides) Apply(c Config) Config {
	ms := func(v *int64, d *time.Duration) {
		if v != nil {
			*d = time.Duration(*v) * time.Millisecond
		}
	}
	ms(o.TargetMs, &c.TargetDuration)
	ms(o.MinMs, &c.MinDuration)
	ms(o.MaxMs, &c.MaxDuration)
	ms(o.MinSilenceMs, &c.MinSilenceDuration)
	if o.ThresholdDB != nil {
		c.SilenceThresholdDB = *o.ThresholdDB
	}
	return c
}

// With builds a Segmenter sharing s's detector with o applied to its config.
// An empty o returns s itself.
func (s *Segmenter) With(o Overrides) (*Segmenter, error) {
	if o.Empty() {
		return s, nil
	}
	return New(o.Apply(s.cfg), WithDetector(s.detector))
}
