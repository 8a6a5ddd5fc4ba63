// Package transcribe runs a whisper engine over every chunk of a segmented
// track and stitches the per-chunk results back onto the source timeline.
package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/gosegment/internal/audio"
	"github.com/obiente/translate/gosegment/internal/segment"
	"github.com/obiente/translate/gosegment/internal/whisper"
)

// Segment is a transcribed span with times on the source track.
type Segment struct {
	Chunk  int     `json:"chunk" yaml:"chunk"`
	StartS float64 `json:"start_s" yaml:"start_s"`
	EndS   float64 `json:"end_s" yaml:"end_s"`
	Text   string  `json:"text" yaml:"text"`
}

type Transcript struct {
	Language  string               `json:"language" yaml:"language"`
	DurationS float64              `json:"duration_s" yaml:"duration_s"`
	Chunks    []segment.AudioChunk `json:"chunks" yaml:"chunks"`
	Segments  []Segment            `json:"segments" yaml:"segments"`
	Text      string               `json:"text" yaml:"text"`
}

// Pipeline segments a track and transcribes each chunk independently.
type Pipeline struct {
	segmenter *segment.Segmenter
	engine    whisper.Engine
}

func New(seg *segment.Segmenter, engine whisper.Engine) *Pipeline {
	return &Pipeline{segmenter: seg, engine: engine}
}

// Run transcribes track chunk by chunk. ctx is checked between chunks; an
// engine call in progress is not interrupted.
func (p *Pipeline) Run(ctx context.Context, track *audio.Track) (*Transcript, error) {
	chunks, err := p.segmenter.Segment(track)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	out := &Transcript{
		DurationS: float64(track.DurationMs()) / 1000,
		Chunks:    chunks,
		Segments:  []Segment{},
	}
	var texts []string
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clip := track.Slice(c.StartMs, c.EndMs)
		if clip.SampleRate != whisper.SampleRate {
			clip = clip.Resample(whisper.SampleRate)
		}

		started := time.Now()
		res, err := p.engine.Transcribe(clip.Samples)
		if err != nil {
			return nil, fmt.Errorf("transcribe chunk %d (%s): %w", i, c, err)
		}
		log.Debug().
			Int("chunk", i).
			Str("range", c.String()).
			Int("segments", len(res.Segments)).
			Dur("took", time.Since(started)).
			Msg("transcribe: chunk done")

		if out.Language == "" {
			out.Language = res.Language
		}
		offset := c.StartSeconds()
		for _, s := range res.Segments {
			out.Segments = append(out.Segments, Segment{
				Chunk:  i,
				StartS: offset + s.Start.Seconds(),
				EndS:   offset + s.End.Seconds(),
				Text:   s.Text,
			})
		}
		if t := res.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	out.Text = strings.Join(texts, " ")
	return out, nil
}
