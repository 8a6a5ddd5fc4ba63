package segment

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiente/translate/gosegment/internal/audio"
)

const testRate = 8000

// part describes one stretch of a synthetic track.
type part struct {
	ms   int64
	tone bool
}

func buildTrack(parts ...part) *audio.Track {
	var samples []float32
	for _, p := range parts {
		n := int(p.ms * testRate / 1000)
		for i := 0; i < n; i++ {
			if p.tone {
				samples = append(samples, float32(0.5*math.Sin(2*math.Pi*440*float64(i)/testRate)))
			} else {
				samples = append(samples, 0)
			}
		}
	}
	return &audio.Track{Samples: samples, SampleRate: testRate}
}

func tone(ms int64) part    { return part{ms: ms, tone: true} }
func silence(ms int64) part { return part{ms: ms} }

// lengthOnly is a track of the given duration whose contents are irrelevant
// because the detector under test ignores them.
func lengthOnly(ms int64) *audio.Track {
	return &audio.Track{Samples: make([]float32, ms), SampleRate: 1000}
}

type fakeDetector struct {
	intervals []Interval
	err       error
	calls     int
}

func (f *fakeDetector) DetectSpeech(*audio.Track, float64, time.Duration) ([]Interval, error) {
	f.calls++
	return f.intervals, f.err
}

func testConfig() Config {
	return Config{
		TargetDuration:     20 * time.Second,
		MinDuration:        10 * time.Second,
		MaxDuration:        30 * time.Second,
		SilenceThresholdDB: -40,
		MinSilenceDuration: 500 * time.Millisecond,
	}
}

func newTestSegmenter(t *testing.T, opts ...Option) *Segmenter {
	t.Helper()
	s, err := New(testConfig(), opts...)
	require.NoError(t, err)
	return s
}

func assertCovers(t *testing.T, chunks []AudioChunk, total int64, maxMs int64) {
	t.Helper()
	require.NotEmpty(t, chunks)
	assert.Equal(t, int64(0), chunks[0].StartMs)
	assert.Equal(t, total, chunks[len(chunks)-1].EndMs)
	for i, c := range chunks {
		assert.Less(t, c.StartMs, c.EndMs, "chunk %d not increasing", i)
		assert.LessOrEqual(t, c.EndMs-c.StartMs, maxMs, "chunk %d exceeds max", i)
		if i > 0 {
			assert.Equal(t, chunks[i-1].EndMs, c.StartMs, "gap or overlap before chunk %d", i)
		}
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min above target", func(c *Config) { c.MinDuration, c.TargetDuration = 20*time.Second, 10*time.Second }},
		{"min equals target", func(c *Config) { c.MinDuration = c.TargetDuration }},
		{"target equals max", func(c *Config) { c.TargetDuration = c.MaxDuration }},
		{"target above max", func(c *Config) { c.TargetDuration = 40 * time.Second }},
		{"negative min", func(c *Config) { c.MinDuration = -time.Second }},
		{"zero min silence", func(c *Config) { c.MinSilenceDuration = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			s, err := New(cfg)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_DefaultConfigIsValid(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), s.Config())
}

func TestSegment_SplitsInsideSilenceGaps(t *testing.T) {
	track := buildTrack(tone(20000), silence(5000), tone(20000), silence(5000), tone(10000))
	s := newTestSegmenter(t)

	chunks, err := s.Segment(track)
	require.NoError(t, err)

	assert.Equal(t, []AudioChunk{
		{StartMs: 0, EndMs: 22500},
		{StartMs: 22500, EndMs: 47500},
		{StartMs: 47500, EndMs: 60000},
	}, chunks)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.Duration(), 10*time.Second)
		assert.LessOrEqual(t, c.Duration(), 30*time.Second)
	}
}

func TestSegment_ShortTrackIsSingleChunk(t *testing.T) {
	s := newTestSegmenter(t)

	chunks, err := s.Segment(buildTrack(silence(5000)))
	require.NoError(t, err)
	assert.Equal(t, []AudioChunk{{StartMs: 0, EndMs: 5000}}, chunks)

	chunks, err = s.Segment(buildTrack(tone(10000)))
	require.NoError(t, err)
	assert.Equal(t, []AudioChunk{{StartMs: 0, EndMs: 10000}}, chunks, "exactly min duration")
}

func TestSegment_ShortTrackSkipsDetector(t *testing.T) {
	fd := &fakeDetector{}
	s := newTestSegmenter(t, WithDetector(fd))

	_, err := s.Segment(lengthOnly(9000))
	require.NoError(t, err)
	assert.Zero(t, fd.calls)
}

func TestSegment_EmptyTrack(t *testing.T) {
	s := newTestSegmenter(t)
	chunks, err := s.Segment(&audio.Track{SampleRate: testRate})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSegment_ContinuousToneIsForceSplit(t *testing.T) {
	s := newTestSegmenter(t)

	chunks, err := s.Segment(buildTrack(tone(90000)))
	require.NoError(t, err)

	assertCovers(t, chunks, 90000, 30000)
	assert.Equal(t, []AudioChunk{
		{StartMs: 0, EndMs: 18000},
		{StartMs: 18000, EndMs: 36000},
		{StartMs: 36000, EndMs: 54000},
		{StartMs: 54000, EndMs: 72000},
		{StartMs: 72000, EndMs: 90000},
	}, chunks)
}

func TestSegment_ExactlyMaxWithoutSilence(t *testing.T) {
	s := newTestSegmenter(t)

	chunks, err := s.Segment(buildTrack(tone(30000)))
	require.NoError(t, err)
	assertCovers(t, chunks, 30000, 30000)
}

func TestSegment_SilentTrackFallsBackToFixedChunks(t *testing.T) {
	s := newTestSegmenter(t)

	chunks, err := s.Segment(buildTrack(silence(60000)))
	require.NoError(t, err)
	assert.Equal(t, []AudioChunk{
		{StartMs: 0, EndMs: 20000},
		{StartMs: 20000, EndMs: 40000},
		{StartMs: 40000, EndMs: 60000},
	}, chunks)

	chunks, err = s.Segment(buildTrack(silence(60500)))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, AudioChunk{StartMs: 40000, EndMs: 60500}, chunks[2])
}

func TestSegment_ShortGapsAreNotCutPoints(t *testing.T) {
	// 300ms pauses never qualify as silence with a 500ms minimum
	var parts []part
	for i := 0; i < 20; i++ {
		parts = append(parts, tone(4700), silence(300))
	}
	s := newTestSegmenter(t)

	chunks, err := s.Segment(buildTrack(parts...))
	require.NoError(t, err)
	assertCovers(t, chunks, 100000, 30000)
	assert.Len(t, chunks, 6, "100s with no usable silence splits evenly into 6 parts")
}

func TestSegment_TrailingRemainderAbsorbed(t *testing.T) {
	fd := &fakeDetector{intervals: []Interval{{0, 20000}, {20800, 20900}}}
	s := newTestSegmenter(t, WithDetector(fd))

	chunks, err := s.Segment(lengthOnly(21000))
	require.NoError(t, err)
	assert.Equal(t, []AudioChunk{{StartMs: 0, EndMs: 21000}}, chunks)
}

func TestSegment_LongNaturalSpanIsCapped(t *testing.T) {
	fd := &fakeDetector{intervals: []Interval{{0, 70000}, {75000, 80000}}}
	s := newTestSegmenter(t, WithDetector(fd))

	chunks, err := s.Segment(lengthOnly(80000))
	require.NoError(t, err)
	assert.Equal(t, []AudioChunk{
		{StartMs: 0, EndMs: 18125},
		{StartMs: 18125, EndMs: 36250},
		{StartMs: 36250, EndMs: 54375},
		{StartMs: 54375, EndMs: 72500},
		{StartMs: 72500, EndMs: 80000},
	}, chunks)
}

func TestSegment_ForcedSplitsForTail(t *testing.T) {
	// natural split at 22.5s leaves a 42.5s tail: floor(42.5/20)=2 splits
	fd := &fakeDetector{intervals: []Interval{{0, 20000}, {25000, 65000}}}
	s := newTestSegmenter(t, WithDetector(fd))

	chunks, err := s.Segment(lengthOnly(65000))
	require.NoError(t, err)
	assert.Equal(t, []AudioChunk{
		{StartMs: 0, EndMs: 22500},
		{StartMs: 22500, EndMs: 36666},
		{StartMs: 36666, EndMs: 50833},
		{StartMs: 50833, EndMs: 65000},
	}, chunks)
}

func TestSegment_DetectorError(t *testing.T) {
	boom := errors.New("boom")
	s := newTestSegmenter(t, WithDetector(&fakeDetector{err: boom}))

	_, err := s.Segment(lengthOnly(60000))
	assert.ErrorIs(t, err, boom)
}

func TestSegment_Idempotent(t *testing.T) {
	track := buildTrack(tone(20000), silence(2000), tone(35000), silence(1000), tone(40000))
	s := newTestSegmenter(t)

	first, err := s.Segment(track)
	require.NoError(t, err)
	second, err := s.Segment(track)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSegment_ConcurrentCallsAgree(t *testing.T) {
	track := buildTrack(tone(25000), silence(3000), tone(50000), silence(800), tone(12000))
	s := newTestSegmenter(t)
	want, err := s.Segment(track)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]AudioChunk, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Segment(track)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestSegment_InvariantsHoldForRandomSpeech(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := testConfig()

	for iter := 0; iter < 300; iter++ {
		total := int64(10001 + rng.Intn(400000))
		var intervals []Interval
		pos := int64(rng.Intn(3000))
		for pos < total {
			end := pos + 1 + int64(rng.Intn(60000))
			if end > total {
				end = total
			}
			intervals = append(intervals, Interval{pos, end})
			pos = end + int64(rng.Intn(4000))
		}

		s, err := New(cfg, WithDetector(&fakeDetector{intervals: intervals}))
		require.NoError(t, err)
		chunks, err := s.Segment(lengthOnly(total))
		require.NoError(t, err)

		assertCovers(t, chunks, total, cfg.MaxDuration.Milliseconds())
		for i, c := range chunks {
			if len(chunks) > 1 {
				assert.GreaterOrEqual(t, c.EndMs-c.StartMs, int64(minChunkMs), "iter %d chunk %d", iter, i)
			}
		}
		if t.Failed() {
			t.Logf("total=%d intervals=%v chunks=%v", total, intervals, chunks)
			return
		}
	}
}

func TestAudioChunk_JSON(t *testing.T) {
	b, err := json.Marshal(AudioChunk{StartMs: 22500, EndMs: 47500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_ms":22500,"end_ms":47500,"start_s":22.5,"end_s":47.5}`, string(b))

	var back AudioChunk
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, AudioChunk{StartMs: 22500, EndMs: 47500}, back)
	assert.Equal(t, "22.500s-47.500s", back.String())
}
