package history

import (
	"sync"
	"time"
)

type Point struct {
	At    time.Time
	Value float64
}

// Handle is the rendering handle attached to a series once it has data.
type Handle interface {
	Refresh(s *Series) error
}

// Series is a bounded FIFO of timestamped values for one tracked field path.
type Series struct {
	path  string
	title string
	max   int

	mu       sync.RWMutex
	points   []Point
	revision uint64
	handle   Handle
}

func NewSeries(path, title string, max int) *Series {
	if max < 1 {
		max = 1
	}
	if title == "" {
		title = path
	}
	return &Series{path: path, title: title, max: max, points: make([]Point, 0, max)}
}

func (s *Series) Path() string  { return s.path }
func (s *Series) Title() string { return s.title }
func (s *Series) Max() int      { return s.max }

// Append adds a point, evicting the oldest ones beyond max.
func (s *Series) Append(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) == s.max {
		copy(s.points, s.points[1:])
		s.points = s.points[:s.max-1]
	}
	s.points = append(s.points, p)
	s.revision++
}

func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Points returns a copy, oldest first.
func (s *Series) Points() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Revision changes on every Append; plots use it to skip redundant renders.
func (s *Series) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Series) Handle() Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// EnsureHandle attaches the handle built by create unless one already exists.
func (s *Series) EnsureHandle(create func(*Series) Handle) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		s.handle = create(s)
	}
	return s.handle
}

// Set holds the series declared at startup, keyed by field path.
type Set struct {
	order  []string
	series map[string]*Series
}

type Decl struct {
	Path  string
	Title string
	Max   int
}

func NewSet(decls []Decl, defaultMax int) *Set {
	s := &Set{series: make(map[string]*Series, len(decls))}
	for _, d := range decls {
		if _, dup := s.series[d.Path]; dup {
			continue
		}
		max := d.Max
		if max <= 0 {
			max = defaultMax
		}
		s.series[d.Path] = NewSeries(d.Path, d.Title, max)
		s.order = append(s.order, d.Path)
	}
	return s
}

func (s *Set) Get(path string) (*Series, bool) {
	ser, ok := s.series[path]
	return ser, ok
}

// All returns the series in declaration order.
func (s *Set) All() []*Series {
	out := make([]*Series, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.series[p])
	}
	return out
}
