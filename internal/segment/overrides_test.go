package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestOverrides_Apply(t *testing.T) {
	o := Overrides{TargetMs: ptr(int64(15000)), ThresholdDB: ptr(-30.0)}
	got := o.Apply(testConfig())

	want := testConfig()
	want.TargetDuration = 15 * time.Second
	want.SilenceThresholdDB = -30
	assert.Equal(t, want, got)
	assert.False(t, o.Empty())
	assert.True(t, Overrides{}.Empty())
}

func TestSegmenter_With(t *testing.T) {
	fd := &fakeDetector{}
	s := newTestSegmenter(t, WithDetector(fd))

	same, err := s.With(Overrides{})
	require.NoError(t, err)
	assert.Same(t, s, same)

	tuned, err := s.With(Overrides{MaxMs: ptr(int64(60000))})
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, tuned.Config().MaxDuration)
	_, err = tuned.Segment(lengthOnly(40000))
	require.NoError(t, err)
	assert.Equal(t, 1, fd.calls, "detector is shared")

	_, err = s.With(Overrides{MinMs: ptr(int64(25000))})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
