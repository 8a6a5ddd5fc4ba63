package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/obiente/translate/gosegment/internal/audio"
	"github.com/obiente/translate/gosegment/internal/transcribe"
	"github.com/obiente/translate/gosegment/internal/whisper"
)

func newTranscribeCommand(opts *options) *cobra.Command {
	var (
		modelPath string
		language  string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Segment a WAV file and transcribe every chunk with whisper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("model") {
				cfg.ModelPath = modelPath
			}
			seg, err := cfg.NewSegmenter()
			if err != nil {
				return err
			}
			track, err := audio.LoadWAVFile(args[0])
			if err != nil {
				return err
			}

			engine, err := whisper.NewEngine(cfg.ModelPath)
			if err != nil {
				return fmt.Errorf("load whisper model: %w", err)
			}
			defer engine.Close()
			engine.SetLanguage(language)

			tr, err := transcribe.New(seg, engine).Run(cmd.Context(), track)
			if err != nil {
				return err
			}
			return opts.write(cmd.OutOrStdout(), tr, func(w io.Writer) error {
				for _, s := range tr.Segments {
					if _, err := fmt.Fprintf(w, "[%9.3f -> %9.3f] %s\n", s.StartS, s.EndS, s.Text); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Whisper ggml model path (defaults to WHISPER_MODEL_PATH)")
	cmd.Flags().StringVar(&language, "language", "auto", "Spoken language, or auto")
	return cmd
}
