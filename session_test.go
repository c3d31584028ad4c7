package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/sizeconv/units"
)

func TestSessionConvert(t *testing.T) {
	t.Parallel()

	s := newSession("1", units.GB, units.MB)
	assert.False(t, s.Snapshot().HasResult)

	res, err := s.Convert()
	require.NoError(t, err)
	assert.Exactly(t, 1024.0, res.Value)

	state := s.Snapshot()
	assert.True(t, state.HasResult)
	assert.Equal(t, "1 GB = 1,024 MB", state.Result.String())
}

func TestSessionInvalidInputKeepsResult(t *testing.T) {
	t.Parallel()

	s := newSession("2", units.TB, units.GB)
	_, err := s.Convert()
	require.NoError(t, err)

	s.SetInput("two")
	_, err = s.Convert()
	require.ErrorIs(t, err, units.ErrInvalidInput)

	state := s.Snapshot()
	assert.Equal(t, "two", state.Input)
	assert.True(t, state.HasResult)
	assert.Exactly(t, 2048.0, state.Result.Value)

	_, err = s.Adjust(1)
	require.ErrorIs(t, err, units.ErrInvalidInput)
	assert.Equal(t, "two", s.Snapshot().Input)
	assert.Exactly(t, 2048.0, s.Snapshot().Result.Value)
}

func TestSessionAdjust(t *testing.T) {
	t.Parallel()

	s := newSession("1", units.GB, units.MB)

	res, err := s.Adjust(1)
	require.NoError(t, err)
	assert.Equal(t, "2", s.Snapshot().Input)
	assert.Exactly(t, 2048.0, res.Value)

	for i := 0; i < 5; i++ {
		_, err = s.Adjust(-1)
		require.NoError(t, err)
	}
	assert.Equal(t, "0", s.Snapshot().Input)
	assert.Zero(t, s.Snapshot().Result.Value)

	s.SetInput("")
	_, err = s.Adjust(1)
	require.NoError(t, err)
	assert.Equal(t, "1", s.Snapshot().Input)
}

func TestSessionAdjustFrom(t *testing.T) {
	t.Parallel()

	s := newSession("1", units.GB, units.MB)
	_, err := s.Convert()
	require.NoError(t, err)

	_, err = s.AdjustFrom("ten", units.TB, units.GB, 1)
	require.ErrorIs(t, err, units.ErrInvalidInput)

	state := s.Snapshot()
	assert.Equal(t, "1", state.Input)
	assert.Equal(t, units.GB, state.From)
	assert.Equal(t, units.MB, state.To)
	assert.Exactly(t, 1024.0, state.Result.Value)

	res, err := s.AdjustFrom("9", units.TB, units.GB, 1)
	require.NoError(t, err)
	assert.Equal(t, "10 TB = 10,240 GB", res.String())
	assert.Equal(t, "10", s.Snapshot().Input)
}

func TestSessionSetUnits(t *testing.T) {
	t.Parallel()

	s := newSession("1024", units.KB, units.KB)
	s.SetUnits(units.KB, units.MB)

	res, err := s.Convert()
	require.NoError(t, err)
	assert.Exactly(t, 1.0, res.Value)
	assert.Equal(t, units.MB, s.Snapshot().To)
}

func TestSessionConcurrentAdjust(t *testing.T) {
	t.Parallel()

	s := newSession("0", units.B, units.B)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Adjust(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, "50", s.Snapshot().Input)
}
