package config

import (
	"os"
	"strconv"
	"time"

	"github.com/obiente/translate/gosegment/internal/segment"
)

type Config struct {
	Addr                 string
	ModelPath            string
	TranscriptionEnabled bool
	MaxUploadBytes       int64

	TargetDuration     time.Duration
	MinDuration        time.Duration
	MaxDuration        time.Duration
	SilenceThresholdDB float64
	MinSilence         time.Duration
	SeekStep           time.Duration
	Detector           string
	SileroModelPath    string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "0", "false", "no", "off", "False", "FALSE":
			return false
		default:
			return true
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getenvDuration accepts Go duration strings ("90s", "5m") or a bare number of milliseconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func Load() Config {
	def := segment.DefaultConfig()
	return Config{
		Addr:                 getenv("GOSEGMENT_ADDR", ":8080"),
		ModelPath:            getenv("WHISPER_MODEL_PATH", "./models/ggml-base.en.bin"),
		TranscriptionEnabled: getenvBool("TRANSCRIPTION_ENABLED", true),
		MaxUploadBytes:       int64(getenvInt("MAX_UPLOAD_BYTES", 512<<20)),

		TargetDuration:     getenvDuration("SEGMENT_TARGET_DURATION", def.TargetDuration),
		MinDuration:        getenvDuration("SEGMENT_MIN_DURATION", def.MinDuration),
		MaxDuration:        getenvDuration("SEGMENT_MAX_DURATION", def.MaxDuration),
		SilenceThresholdDB: getenvFloat("SEGMENT_SILENCE_THRESHOLD_DB", def.SilenceThresholdDB),
		MinSilence:         getenvDuration("SEGMENT_MIN_SILENCE", def.MinSilenceDuration),
		SeekStep:           getenvDuration("SEGMENT_SEEK_STEP", segment.DefaultSeekStep),
		Detector:           getenv("SEGMENT_DETECTOR", "energy"),
		SileroModelPath:    getenv("SILERO_MODEL_PATH", "./models/silero_vad.onnx"),
	}
}

// Segment returns the segmenter options carried by c.
func (c Config) Segment() segment.Config {
	return segment.Config{
		TargetDuration:     c.TargetDuration,
		MinDuration:        c.MinDuration,
		MaxDuration:        c.MaxDuration,
		SilenceThresholdDB: c.SilenceThresholdDB,
		MinSilenceDuration: c.MinSilence,
	}
}

// NewDetector builds the speech detector selected by SEGMENT_DETECTOR.
func (c Config) NewDetector() (segment.SpeechDetector, error) {
	if c.Detector == "silero" {
		return segment.NewSileroDetector(c.SileroModelPath)
	}
	return segment.NewEnergyDetector(c.SeekStep), nil
}

// NewSegmenter validates the segmenter options and wires the configured detector.
func (c Config) NewSegmenter() (*segment.Segmenter, error) {
	det, err := c.NewDetector()
	if err != nil {
		return nil, err
	}
	return segment.New(c.Segment(), segment.WithDetector(det))
}
