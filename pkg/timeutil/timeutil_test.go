package timeutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleep_ZeroReturnsImmediately(t *testing.T) {
	start := time.Now()
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestSleep_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep_Waits(t *testing.T) {
	start := time.Now()
	assert.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMillisSequence_StrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	seq := NewMillisSequence(func() time.Time { return fixed })

	first := seq.Next(0)
	second := seq.Next(0)
	third := seq.Next(0)

	assert.Equal(t, fixed.UnixMilli(), first)
	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
}

func TestMillisSequence_RespectsFloor(t *testing.T) {
	fixed := time.UnixMilli(1000)
	seq := NewMillisSequence(func() time.Time { return fixed })

	assert.Equal(t, int64(5001), seq.Next(5000))
	assert.Equal(t, int64(5002), seq.Next(0))
}
