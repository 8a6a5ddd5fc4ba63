package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout accepted by ApplyFile. Keys left out keep
// the value already in the base Config.
type fileConfig struct {
	TargetDuration     time.Duration `yaml:"target_duration"`
	MinDuration        time.Duration `yaml:"min_duration"`
	MaxDuration        time.Duration `yaml:"max_duration"`
	SilenceThresholdDB float64       `yaml:"silence_threshold_db"`
	MinSilence         time.Duration `yaml:"min_silence_duration"`
	SeekStep           time.Duration `yaml:"seek_step"`
	Detector           string        `yaml:"detector"`
	SileroModelPath    string        `yaml:"silero_model_path"`
	ModelPath          string        `yaml:"whisper_model_path"`
}

// ApplyFile overlays the YAML file at path onto base.
func ApplyFile(base Config, path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config %s: %w", path, err)
	}
	fc := fileConfig{
		TargetDuration:     base.TargetDuration,
		MinDuration:        base.MinDuration,
		MaxDuration:        base.MaxDuration,
		SilenceThresholdDB: base.SilenceThresholdDB,
		MinSilence:         base.MinSilence,
		SeekStep:           base.SeekStep,
		Detector:           base.Detector,
		SileroModelPath:    base.SileroModelPath,
		ModelPath:          base.ModelPath,
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	base.TargetDuration = fc.TargetDuration
	base.MinDuration = fc.MinDuration
	base.MaxDuration = fc.MaxDuration
	base.SilenceThresholdDB = fc.SilenceThresholdDB
	base.MinSilence = fc.MinSilence
	base.SeekStep = fc.SeekStep
	base.Detector = fc.Detector
	base.SileroModelPath = fc.SileroModelPath
	base.ModelPath = fc.ModelPath
	return base, nil
}
