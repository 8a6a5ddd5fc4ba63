package ws

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/gosegment/internal/audio"
	"github.com/obiente/translate/gosegment/internal/metrics"
	"github.com/obiente/translate/gosegment/internal/segment"
)

// SessionSampleRate is the rate every session buffer is kept at.
const SessionSampleRate = 16000

const (
	readTimeout = 60 * time.Second
	// one hour of buffered audio per session
	defaultMaxSamples = 60 * 60 * SessionSampleRate
)

// Server accepts websocket sessions that stream audio in and ask for chunk
// boundaries over everything received so far.
type Server struct {
	segmenter  *segment.Segmenter
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader
	maxSamples int
}

func NewServer(seg *segment.Segmenter, m *metrics.Metrics) *Server {
	return &Server{
		segmenter: seg,
		metrics:   m,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024 * 16,
			WriteBufferSize: 1024 * 16,
		},
		maxSamples: defaultMaxSamples,
	}
}

type session struct {
	id         string
	segmenter  *segment.Segmenter
	sampleRate int
	samples    []float32
}

func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.ActiveWSSessions.Inc()
		defer s.metrics.ActiveWSSessions.Dec()
	}

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(readTimeout)); return nil })

	sess := &session{id: uuid.NewString(), segmenter: s.segmenter}
	logger := log.With().Str("session", sess.id).Logger()
	logger.Info().Msg("ws session opened")
	defer logger.Info().Msg("ws session closed")

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("ws read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if mt != websocket.TextMessage {
			continue
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.WriteJSON(errorEvent("invalid json"))
			continue
		}
		switch msg["type"] {
		case "ping":
			_ = conn.WriteJSON(map[string]any{"type": "pong", "ts": msg["ts"]})
		case "start":
			seg := s.segmenter
			if raw, ok := msg["overrides"]; ok {
				o, err := decodeOverrides(raw)
				if err != nil {
					_ = conn.WriteJSON(errorEvent("invalid overrides"))
					continue
				}
				if seg, err = s.segmenter.With(o); err != nil {
					_ = conn.WriteJSON(errorEvent(err.Error()))
					continue
				}
			}
			sess.segmenter = seg
			sess.sampleRate = int(asFloat(msg["sample_rate"]))
			sess.samples = sess.samples[:0]

			cfg := seg.Config()
			logger.Info().
				Dur("target", cfg.TargetDuration).
				Dur("max", cfg.MaxDuration).
				Int("sample_rate", sess.sampleRate).
				Msg("session started with configuration")
			_ = conn.WriteJSON(map[string]any{"type": "started", "session_id": sess.id, "config": cfg})
		case "chunk":
			b64, _ := msg["data"].(string)
			if b64 == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				_ = conn.WriteJSON(errorEvent("invalid base64 audio"))
				continue
			}

			var (
				pcm []float32
				sr  int
			)
			if mime, _ := msg["mime_type"].(string); mime == "audio/pcm" || mime == "audio/L16" || mime == "audio/pcm16" {
				sr = int(asFloat(msg["sample_rate"]))
				if sr == 0 {
					sr = sess.sampleRate
				}
				pcm, sr, err = audio.DecodePCM16LEToFloat32(raw, sr)
			} else {
				pcm, sr, err = audio.DecodeWAVToFloat32(raw)
			}
			if err != nil {
				logger.Warn().Err(err).Msg("audio decode failed")
				s.metrics.ObserveError("ws", "decode")
				_ = conn.WriteJSON(errorEvent("decode audio failed"))
				continue
			}
			if len(pcm) > 0 && sr > 0 && sr != SessionSampleRate {
				pcm = audio.ResampleLinear(pcm, sr, SessionSampleRate)
			}
			if len(sess.samples)+len(pcm) > s.maxSamples {
				s.metrics.ObserveError("ws", "buffer_full")
				_ = conn.WriteJSON(errorEvent("session buffer full"))
				continue
			}
			sess.samples = append(sess.samples, pcm...)
			logger.Debug().Int("appended", len(pcm)).Int("buffered", len(sess.samples)).Msg("chunk received")
		case "segment":
			s.segment(conn, sess)
		case "reset":
			sess.samples = sess.samples[:0]
			_ = conn.WriteJSON(map[string]any{"type": "reset"})
		case "stop":
			_ = conn.WriteJSON(map[string]any{"type": "stopped"})
			return
		default:
			_ = conn.WriteJSON(errorEvent("unknown message type"))
		}
	}
}

// segment emits one "chunk" event per boundary followed by a "segmented"
// summary. The buffer is kept so later audio extends the same timeline.
func (s *Server) segment(conn *websocket.Conn, sess *session) {
	track := &audio.Track{Samples: sess.samples, SampleRate: SessionSampleRate}
	started := time.Now()
	chunks, err := sess.segmenter.Segment(track)
	if err != nil {
		log.Error().Err(err).Str("session", sess.id).Msg("segment failed")
		s.metrics.ObserveError("ws", "segment")
		_ = conn.WriteJSON(errorEvent(err.Error()))
		return
	}
	s.metrics.ObserveSegmentation("ws", track.DurationMs(), chunks, time.Since(started))

	for i, c := range chunks {
		if err := conn.WriteJSON(map[string]any{
			"type":     "chunk",
			"index":    i,
			"start_ms": c.StartMs,
			"end_ms":   c.EndMs,
		}); err != nil {
			return
		}
	}
	_ = conn.WriteJSON(map[string]any{
		"type":        "segmented",
		"count":       len(chunks),
		"duration_ms": track.DurationMs(),
	})
}

func decodeOverrides(v any) (segment.Overrides, error) {
	var o segment.Overrides
	b, err := json.Marshal(v)
	if err != nil {
		return o, err
	}
	err = json.Unmarshal(b, &o)
	return o, err
}

func errorEvent(detail string) map[string]any {
	return map[string]any{"type": "error", "detail": detail}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	default:
		return 0
	}
}
