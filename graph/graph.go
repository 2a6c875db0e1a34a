package graph

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erikmagkekse/craftui/history"

	"github.com/rs/zerolog/log"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 240
)

// Plot is the rendering handle of one history series. It keeps the last
// rendered PNG and re-renders only when the series revision moves.
type Plot struct {
	width  int
	height int

	mu       sync.RWMutex
	png      []byte
	revision uint64
	renders  int
}

func NewPlot(width, height int) *Plot {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Plot{width: width, height: height}
}

func (p *Plot) Refresh(s *history.Series) error {
	rev := s.Revision()

	p.mu.RLock()
	current := p.png != nil && p.revision == rev
	p.mu.RUnlock()
	if current {
		return nil
	}

	points := s.Points()
	if len(points) == 0 {
		return nil
	}

	data, err := render(s.Title(), points, p.width, p.height)
	if err != nil {
		return fmt.Errorf("render %s: %w", s.Path(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.png = data
	p.revision = rev
	p.renders++
	return nil
}

// PNG returns the last rendered image, nil before the first refresh.
func (p *Plot) PNG() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.png
}

func (p *Plot) Renders() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.renders
}

// PlotOf returns the plot attached to s, if any.
func PlotOf(s *history.Series) (*Plot, bool) {
	p, ok := s.Handle().(*Plot)
	return p, ok
}

func render(title string, points []history.Point, width, height int) ([]byte, error) {
	xs := make([]time.Time, 0, len(points)+1)
	ys := make([]float64, 0, len(points)+1)
	for _, pt := range points {
		xs = append(xs, pt.At)
		ys = append(ys, pt.Value)
	}
	// a single sample has no x-range; draw it as a one second segment
	if len(points) == 1 {
		xs = append(xs, xs[0].Add(time.Second))
		ys = append(ys, ys[0])
	}

	lo, hi := ys[0], ys[0]
	for _, y := range ys[1:] {
		lo = min(lo, y)
		hi = max(hi, y)
	}
	yAxis := chart.YAxis{}
	if lo == hi {
		yAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := chart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("15:04:05")},
		YAxis:      yAxis,
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: 2,
					StrokeColor: drawing.ColorFromHex("1f6feb"),
					DotWidth:    2,
					DotColor:    drawing.ColorFromHex("1f6feb"),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Updater refreshes the plots of every populated series.
type Updater struct {
	Width  int
	Height int
}

func NewUpdater(width, height int) *Updater {
	return &Updater{Width: width, Height: height}
}

// Update attaches a plot to each non-empty series on first use, then
// refreshes it. Empty series get no handle.
func (u *Updater) Update(series ...*history.Series) error {
	var errs []error
	for _, s := range series {
		if s.Len() == 0 {
			continue
		}
		h := s.EnsureHandle(func(*history.Series) history.Handle {
			log.Debug().Str("path", s.Path()).Msg("creating plot")
			return NewPlot(u.Width, u.Height)
		})
		if err := h.Refresh(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
