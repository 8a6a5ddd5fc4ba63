//go:build whisper_cpp

package whisper

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog/log"
)

// EngineCPP is the whisper.cpp-backed implementation of Engine.
type EngineCPP struct {
	model    whisperpkg.Model
	threads  uint
	language string     // configured language ("auto" for auto-detection)
	mu       sync.Mutex // Protect concurrent access to the model
}

func NewEngine(modelPath string) (Engine, error) {
	threads := uint(runtime.NumCPU())
	if v := os.Getenv("WHISPER_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			threads = uint(n)
			log.Info().Int("threads", n).Msg("whisper: using configured thread count")
		}
	} else {
		log.Info().Uint("threads", threads).Msg("whisper: using default thread count (CPU cores)")
	}

	m, err := whisperpkg.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	log.Info().Str("model", modelPath).Msg("whisper: model loaded successfully")
	return &EngineCPP{
		model:    m,
		threads:  threads,
		language: "auto",
	}, nil
}

func (e *EngineCPP) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}

// SetLanguage configures the language for transcription. Use "auto" for auto-detection.
func (e *EngineCPP) SetLanguage(lang string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lang == "" {
		lang = "auto"
	}
	e.language = lang
	log.Info().Str("language", lang).Msg("whisper: language configured")
}

// Transcribe implements Engine. Calls are serialized because whisper.cpp
// crashes when one model is driven from several contexts at once.
func (e *EngineCPP) Transcribe(samples []float32) (Result, error) {
	// under 100ms there is nothing to decode
	if len(samples) < SampleRate/10 {
		log.Debug().Int("samples", len(samples)).Msg("whisper: skipping too-short audio")
		return Result{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, err := e.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("create context: %w", err)
	}
	ctx.SetThreads(e.threads)
	_ = ctx.SetLanguage(e.language)
	ctx.SetSplitOnWord(true)
	ctx.SetTokenTimestamps(true)
	ctx.SetMaxSegmentLength(0)
	ctx.SetMaxTokensPerSegment(0)
	ctx.SetAudioCtx(0)

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		log.Error().Err(err).Int("samples", len(samples)).Msg("whisper: process failed")
		return Result{}, fmt.Errorf("process audio: %w", err)
	}

	var res Result
	for {
		seg, err := ctx.NextSegment()
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Warn().Err(err).Msg("whisper: error reading segment")
			break
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		res.Segments = append(res.Segments, Segment{Start: seg.Start, End: seg.End, Text: text})
	}

	res.Language = ctx.Language()
	if res.Language == "" || res.Language == "auto" {
		res.Language = ctx.DetectedLanguage()
	}

	log.Debug().
		Str("lang", res.Language).
		Int("segments", len(res.Segments)).
		Int("samples", len(samples)).
		Msg("whisper: transcription complete")
	return res, nil
}
