package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesEviction(t *testing.T) {
	const n, k = 5, 3
	s := NewSeries("radio/rx/rsl", "", n)
	base := time.Unix(1700000000, 0)

	for i := 0; i < n+k; i++ {
		s.Append(Point{At: base.Add(time.Duration(i) * time.Second), Value: float64(i)})
		assert.LessOrEqual(t, s.Len(), n)
	}

	pts := s.Points()
	require.Len(t, pts, n)
	// oldest k evicted, insertion order kept
	for i, p := range pts {
		assert.Equal(t, float64(i+k), p.Value)
	}
	assert.Equal(t, uint64(n+k), s.Revision())
}

func TestSeriesKeepsDuplicates(t *testing.T) {
	s := NewSeries("modem/mse", "MSE", 3)
	now := time.Now()
	s.Append(Point{At: now, Value: 1})
	s.Append(Point{At: now, Value: 1})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "MSE", s.Title())
}

func TestSeriesMinimumSize(t *testing.T) {
	s := NewSeries("x", "", 0)
	s.Append(Point{Value: 1})
	s.Append(Point{Value: 2})
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 2.0, s.Points()[0].Value)
	assert.Equal(t, "x", s.Title())
}

type countingHandle struct{ n int }

func (h *countingHandle) Refresh(*Series) error { h.n++; return nil }

func TestEnsureHandle(t *testing.T) {
	s := NewSeries("x", "", 2)
	assert.Nil(t, s.Handle())

	created := 0
	create := func(*Series) Handle { created++; return &countingHandle{} }
	h1 := s.EnsureHandle(create)
	h2 := s.EnsureHandle(create)
	assert.Same(t, h1, h2)
	assert.Equal(t, 1, created)
}

func TestSet(t *testing.T) {
	set := NewSet([]Decl{
		{Path: "radio/rx/rssi", Max: 10},
		{Path: "modem/status/normalizedMse"},
		{Path: "radio/rx/rssi", Max: 99},
	}, 50)

	all := set.All()
	require.Len(t, all, 2)
	assert.Equal(t, "radio/rx/rssi", all[0].Path())
	assert.Equal(t, 10, all[0].Max())
	assert.Equal(t, 50, all[1].Max())

	_, ok := set.Get("nope")
	assert.False(t, ok)
}
