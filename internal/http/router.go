package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/gosegment/internal/audio"
	"github.com/obiente/translate/gosegment/internal/config"
	"github.com/obiente/translate/gosegment/internal/metrics"
	"github.com/obiente/translate/gosegment/internal/segment"
	"github.com/obiente/translate/gosegment/internal/transcribe"
	"github.com/obiente/translate/gosegment/internal/whisper"
	"github.com/obiente/translate/gosegment/internal/ws"
)

type handlers struct {
	cfg       config.Config
	segmenter *segment.Segmenter
	engine    whisper.Engine
	metrics   *metrics.Metrics
}

// NewRouter wires the HTTP and websocket endpoints. engine may be nil, in
// which case /v1/transcribe answers 503.
func NewRouter(cfg config.Config, engine whisper.Engine, m *metrics.Metrics) (http.Handler, error) {
	seg, err := cfg.NewSegmenter()
	if err != nil {
		return nil, err
	}
	h := &handlers{cfg: cfg, segmenter: seg, engine: engine, metrics: m}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
	mux.HandleFunc("/v1/segment", h.segment)
	mux.HandleFunc("/v1/transcribe", h.transcribe)
	mux.HandleFunc("/ws/segment", ws.NewServer(seg, m).Handle)
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	return mux, nil
}

type segmentResponse struct {
	RequestID  string               `json:"request_id"`
	DurationMs int64                `json:"duration_ms"`
	SampleRate int                  `json:"sample_rate"`
	Chunks     []segment.AudioChunk `json:"chunks"`
}

func (h *handlers) segment(w http.ResponseWriter, r *http.Request) {
	const path = "http"
	reqID := requestID(w, r)
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST with a wav body")
		return
	}

	seg, track, ok := h.prepare(w, r, path)
	if !ok {
		return
	}

	started := time.Now()
	chunks, err := seg.Segment(track)
	if err != nil {
		log.Error().Err(err).Str("request_id", reqID).Msg("segment failed")
		h.metrics.ObserveError(path, "segment")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if chunks == nil {
		chunks = []segment.AudioChunk{}
	}
	h.metrics.ObserveSegmentation(path, track.DurationMs(), chunks, time.Since(started))

	log.Info().
		Str("request_id", reqID).
		Int64("duration_ms", track.DurationMs()).
		Int("chunks", len(chunks)).
		Dur("took", time.Since(started)).
		Msg("segmented upload")
	writeJSON(w, http.StatusOK, segmentResponse{
		RequestID:  reqID,
		DurationMs: track.DurationMs(),
		SampleRate: track.SampleRate,
		Chunks:     chunks,
	})
}

func (h *handlers) transcribe(w http.ResponseWriter, r *http.Request) {
	const path = "transcribe"
	reqID := requestID(w, r)
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST with a wav body")
		return
	}
	if !h.cfg.TranscriptionEnabled || h.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "transcription disabled")
		return
	}

	seg, track, ok := h.prepare(w, r, path)
	if !ok {
		return
	}

	started := time.Now()
	tr, err := transcribe.New(seg, h.engine).Run(r.Context(), track)
	if err != nil {
		log.Error().Err(err).Str("request_id", reqID).Msg("transcription failed")
		h.metrics.ObserveError(path, "transcribe")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.metrics.ObserveSegmentation(path, track.DurationMs(), tr.Chunks, time.Since(started))
	writeJSON(w, http.StatusOK, tr)
}

// prepare resolves per-request overrides and decodes the body. It writes the
// error response itself and returns ok=false on failure.
func (h *handlers) prepare(w http.ResponseWriter, r *http.Request, path string) (*segment.Segmenter, *audio.Track, bool) {
	o, err := overridesFromQuery(r.URL.Query())
	if err != nil {
		h.metrics.ObserveError(path, "query")
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	seg, err := h.segmenter.With(o)
	if err != nil {
		h.metrics.ObserveError(path, "config")
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		} else {
			writeError(w, http.StatusBadRequest, "read body failed")
		}
		h.metrics.ObserveError(path, "read")
		return nil, nil, false
	}
	track, err := audio.DecodeWAV(bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Msg("audio decode failed")
		h.metrics.ObserveError(path, "decode")
		writeError(w, http.StatusUnsupportedMediaType, "decode audio failed: "+err.Error())
		return nil, nil, false
	}
	return seg, track, true
}

func overridesFromQuery(q url.Values) (segment.Overrides, error) {
	var o segment.Overrides
	ints := []struct {
		key string
		dst **int64
	}{
		{"target_ms", &o.TargetMs},
		{"min_ms", &o.MinMs},
		{"max_ms", &o.MaxMs},
		{"min_silence_ms", &o.MinSilenceMs},
	}
	for _, p := range ints {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return o, errors.New("invalid " + p.key + ": " + v)
		}
		*p.dst = &n
	}
	if v := q.Get("threshold_db"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, errors.New("invalid threshold_db: " + v)
		}
		o.ThresholdDB = &f
	}
	return o, nil
}

func requestID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"type": "error", "detail": detail})
}
