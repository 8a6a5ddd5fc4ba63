package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/obiente/translate/gosegment/internal/config"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath  string
	logLevel    string
	output      string
	target      time.Duration
	min         time.Duration
	max         time.Duration
	thresholdDB float64
	minSilence  time.Duration
	seekStep    time.Duration
	detector    string
	sileroModel string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	defaults := config.Load()

	cmd := &cobra.Command{
		Use:           "gosegment",
		Short:         "Split long recordings into chunks at natural pauses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), opts.logLevel)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML file with segmenter settings")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVarP(&opts.output, "output", "o", "json", "Output format: json, yaml, text")
	pf.DurationVar(&opts.target, "target", defaults.TargetDuration, "Preferred chunk length")
	pf.DurationVar(&opts.min, "min", defaults.MinDuration, "Tracks at or below this length stay whole")
	pf.DurationVar(&opts.max, "max", defaults.MaxDuration, "Hard cap on chunk length")
	pf.Float64Var(&opts.thresholdDB, "threshold-db", defaults.SilenceThresholdDB, "RMS level in dBFS at or below which audio is silent")
	pf.DurationVar(&opts.minSilence, "min-silence", defaults.MinSilence, "Shortest pause usable as a cut point")
	pf.DurationVar(&opts.seekStep, "seek-step", defaults.SeekStep, "Step between energy probes")
	pf.StringVar(&opts.detector, "detector", defaults.Detector, "Speech detector: energy or silero")
	pf.StringVar(&opts.sileroModel, "silero-model", defaults.SileroModelPath, "Path to the silero VAD onnx model")

	cmd.AddCommand(newSplitCommand(opts), newTranscribeCommand(opts))
	return cmd
}

func setupLogging(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
	return nil
}

// resolve layers environment, config file and explicitly set flags, in that
// order of increasing precedence.
func (o *options) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load()
	if o.configPath != "" {
		var err error
		if cfg, err = config.ApplyFile(cfg, o.configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("target", func() { cfg.TargetDuration = o.target })
	set("min", func() { cfg.MinDuration = o.min })
	set("max", func() { cfg.MaxDuration = o.max })
	set("threshold-db", func() { cfg.SilenceThresholdDB = o.thresholdDB })
	set("min-silence", func() { cfg.MinSilence = o.minSilence })
	set("seek-step", func() { cfg.SeekStep = o.seekStep })
	set("detector", func() { cfg.Detector = o.detector })
	set("silero-model", func() { cfg.SileroModelPath = o.sileroModel })
	return cfg, nil
}

func (o *options) write(w io.Writer, v any, text func(io.Writer) error) error {
	switch o.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "text":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q", o.output)
	}
}
