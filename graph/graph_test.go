package graph

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/erikmagkekse/craftui/history"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func TestUpdaterLazyHandles(t *testing.T) {
	empty := history.NewSeries("radio/rx/rssi", "", 5)
	full := history.NewSeries("radio/rx/rsl", "RSL", 5)
	full.Append(history.Point{At: time.Unix(1000, 0), Value: -42})

	u := NewUpdater(320, 120)
	require.NoError(t, u.Update(empty, full))

	assert.Nil(t, empty.Handle(), "empty series must not get a plot")
	p, ok := PlotOf(full)
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(p.PNG(), pngMagic))
	assert.Equal(t, 1, p.Renders())

	t.Run("unchanged series is not re-rendered", func(t *testing.T) {
		before := p.PNG()
		require.NoError(t, u.Update(empty, full))
		require.NoError(t, u.Update(full))
		assert.Equal(t, 1, p.Renders())
		assert.Equal(t, before, p.PNG())

		again, _ := PlotOf(full)
		assert.Same(t, p, again, "handle is created once")
	})

	t.Run("new point re-renders", func(t *testing.T) {
		full.Append(history.Point{At: time.Unix(1005, 0), Value: -40})
		require.NoError(t, u.Update(full))
		assert.Equal(t, 2, p.Renders())
	})

	t.Run("series populated later gets a handle", func(t *testing.T) {
		empty.Append(history.Point{At: time.Unix(1010, 0), Value: 3})
		require.NoError(t, u.Update(empty))
		_, ok := PlotOf(empty)
		assert.True(t, ok)
	})
}

func TestPlotFlatSeries(t *testing.T) {
	s := history.NewSeries("modem/status/normalizedMse", "", 10)
	base := time.Unix(2000, 0)
	for i := range 4 {
		s.Append(history.Point{At: base.Add(time.Duration(i) * time.Second), Value: 7})
	}

	p := NewPlot(0, 0)
	require.NoError(t, p.Refresh(s))
	assert.True(t, bytes.HasPrefix(p.PNG(), pngMagic))
}

func TestPlotEmptySeries(t *testing.T) {
	p := NewPlot(0, 0)
	require.NoError(t, p.Refresh(history.NewSeries("x", "", 1)))
	assert.Nil(t, p.PNG())
	assert.Zero(t, p.Renders())
}
