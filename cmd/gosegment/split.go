package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/obiente/translate/gosegment/internal/audio"
	"github.com/obiente/translate/gosegment/internal/segment"
)

type chunkRow struct {
	Index   int     `json:"index" yaml:"index"`
	StartMs int64   `json:"start_ms" yaml:"start_ms"`
	EndMs   int64   `json:"end_ms" yaml:"end_ms"`
	StartS  float64 `json:"start_s" yaml:"start_s"`
	EndS    float64 `json:"end_s" yaml:"end_s"`
	File    string  `json:"file,omitempty" yaml:"file,omitempty"`
}

type splitResult struct {
	Source     string     `json:"source" yaml:"source"`
	DurationMs int64      `json:"duration_ms" yaml:"duration_ms"`
	Chunks     []chunkRow `json:"chunks" yaml:"chunks"`
}

func newSplitCommand(opts *options) *cobra.Command {
	var extractDir string

	cmd := &cobra.Command{
		Use:   "split <file.wav>",
		Short: "Print chunk boundaries for a WAV file",
		Long: `Split a WAV file into chunks near the target length, cutting inside
pauses where possible and never exceeding the max length.

With --extract each chunk is also written as a 16-bit mono WAV file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			seg, err := cfg.NewSegmenter()
			if err != nil {
				return err
			}
			res, err := runSplit(seg, args[0], extractDir)
			if err != nil {
				return err
			}
			return opts.write(cmd.OutOrStdout(), res, res.writeText)
		},
	}
	cmd.Flags().StringVar(&extractDir, "extract", "", "Directory to write chunk_NNN.wav files into")
	return cmd
}

func runSplit(seg *segment.Segmenter, path, extractDir string) (*splitResult, error) {
	track, err := audio.LoadWAVFile(path)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	chunks, err := seg.Segment(track)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", path, err)
	}
	log.Info().
		Str("file", path).
		Int64("duration_ms", track.DurationMs()).
		Int("chunks", len(chunks)).
		Dur("took", time.Since(started)).
		Msg("split: done")

	if extractDir != "" {
		if err := os.MkdirAll(extractDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", extractDir, err)
		}
	}

	res := &splitResult{Source: path, DurationMs: track.DurationMs(), Chunks: make([]chunkRow, 0, len(chunks))}
	for i, c := range chunks {
		row := chunkRow{Index: i, StartMs: c.StartMs, EndMs: c.EndMs, StartS: c.StartSeconds(), EndS: c.EndSeconds()}
		if extractDir != "" {
			row.File = filepath.Join(extractDir, fmt.Sprintf("chunk_%03d.wav", i))
			if err := audio.WriteWAVFile(row.File, track.Slice(c.StartMs, c.EndMs)); err != nil {
				return nil, err
			}
			log.Debug().Str("file", row.File).Str("range", c.String()).Msg("split: chunk written")
		}
		res.Chunks = append(res.Chunks, row)
	}
	return res, nil
}

func (r *splitResult) writeText(w io.Writer) error {
	for _, c := range r.Chunks {
		line := fmt.Sprintf("%3d  %10.3f  %10.3f  %8.3fs", c.Index, c.StartS, c.EndS, c.EndS-c.StartS)
		if c.File != "" {
			line += "  " + c.File
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
