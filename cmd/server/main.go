package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/gosegment/internal/config"
	serverhttp "github.com/obiente/translate/gosegment/internal/http"
	"github.com/obiente/translate/gosegment/internal/metrics"
	"github.com/obiente/translate/gosegment/internal/whisper"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	lvl := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			lvl = l
		}
	}
	log.Logger = log.Level(lvl)

	cfg := config.Load()

	var engine whisper.Engine
	if cfg.TranscriptionEnabled {
		e, err := whisper.NewEngine(cfg.ModelPath)
		if err != nil {
			log.Warn().Err(err).Str("model", cfg.ModelPath).Msg("whisper engine unavailable, transcription disabled")
			cfg.TranscriptionEnabled = false
		} else {
			engine = e
			defer engine.Close()
		}
	}

	handler, err := serverhttp.NewRouter(cfg, engine, metrics.New())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid segmenter configuration")
	}
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", cfg.Addr).
		Dur("target", cfg.TargetDuration).
		Str("detector", cfg.Detector).
		Bool("transcription", cfg.TranscriptionEnabled).
		Msg("gosegment server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}
