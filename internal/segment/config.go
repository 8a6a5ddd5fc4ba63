package segment

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig wraps every construction-time validation failure.
	ErrInvalidConfig = errors.New("invalid segmenter config")
	// ErrDetectorUnavailable is returned when a detector backend was not compiled in.
	ErrDetectorUnavailable = errors.New("speech detector unavailable")
)

// Config controls chunk lengths and what counts as silence.
type Config struct {
	// TargetDuration is the preferred chunk length.
	TargetDuration time.Duration `yaml:"target_duration" json:"target_duration"`
	// MinDuration is the shortest acceptable chunk. Tracks at or below it are
	// returned as a single chunk.
	MinDuration time.Duration `yaml:"min_duration" json:"min_duration"`
	// MaxDuration is a hard cap on chunk length.
	MaxDuration time.Duration `yaml:"max_duration" json:"max_duration"`
	// SilenceThresholdDB is the RMS level in dBFS at or below which audio is silent.
	SilenceThresholdDB float64 `yaml:"silence_threshold_db" json:"silence_threshold_db"`
	// MinSilenceDuration is the shortest quiet span usable as a cut point.
	MinSilenceDuration time.Duration `yaml:"min_silence_duration" json:"min_silence_duration"`
}

func DefaultConfig() Config {
	return Config{
		TargetDuration:     5 * time.Minute,
		MinDuration:        time.Minute,
		MaxDuration:        10 * time.Minute,
		SilenceThresholdDB: -40,
		MinSilenceDuration: 500 * time.Millisecond,
	}
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.MinDuration < 0:
		return fmt.Errorf("%w: min duration %v is negative", ErrInvalidConfig, c.MinDuration)
	case c.MinDuration >= c.TargetDuration:
		return fmt.Errorf("%w: min duration %v must be below target %v", ErrInvalidConfig, c.MinDuration, c.TargetDuration)
	case c.TargetDuration >= c.MaxDuration:
		return fmt.Errorf("%w: target duration %v must be below max %v", ErrInvalidConfig, c.TargetDuration, c.MaxDuration)
	case c.MinSilenceDuration < time.Millisecond:
		return fmt.Errorf("%w: min silence duration %v must be at least 1ms", ErrInvalidConfig, c.MinSilenceDuration)
	}
	return nil
}
