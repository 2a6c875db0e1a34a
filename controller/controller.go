package controller

import (
	"context"
	"sync"
	"time"

	v1 "github.com/erikmagkekse/craftui/craft/api/v1"
	"github.com/erikmagkekse/craftui/dom"
	"github.com/erikmagkekse/craftui/history"
	"github.com/erikmagkekse/craftui/model"
	"github.com/erikmagkekse/craftui/snapshot"
)

// DeviceClient is the part of the craft API the controller needs.
type DeviceClient interface {
	Status(ctx context.Context, peer string, checksum int64) ([]byte, error)
	Configure(ctx context.Context, peer string, req v1.ConfigRequest) (*v1.ConfigResponse, error)
}

type GraphUpdater interface {
	Update(series ...*history.Series) error
}

type Config struct {
	StaticRoot     string
	PeerSuffix     string // used when the layout has no peer input
	PollInterval   time.Duration
	RequestTimeout time.Duration
	SubmitTimeout  time.Duration
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 2 * time.Second
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 10 * time.Second
	}
}

type Option func(*Controller)

// WithClock sets the source of poll timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithNotify registers a hook run after every applied poll and every
// submit state change.
func WithNotify(fn func()) Option {
	return func(c *Controller) { c.notify = fn }
}

// Controller polls the device, renders snapshots into a document and pushes
// configuration changes back.
type Controller struct {
	client  DeviceClient
	doc     dom.Document
	layout  *model.Layout
	history *history.Set
	graphs  GraphUpdater
	cfg     Config
	flat    snapshot.Flattener
	now     func() time.Time
	notify  func()

	mu       sync.Mutex
	gen      uint64
	inflight uint64 // generation of the request in flight, 0 when idle
	checksum int64

	// renderMu keeps one poll outcome from interleaving with another.
	renderMu  sync.Mutex
	connected bool
	lastPoll  time.Time
	lastErr   string
	unhandled []string
}

func New(client DeviceClient, doc dom.Document, layout *model.Layout, hist *history.Set, graphs GraphUpdater, cfg Config, opts ...Option) *Controller {
	cfg.applyDefaults()
	c := &Controller{
		client:  client,
		doc:     doc,
		layout:  layout,
		history: hist,
		graphs:  graphs,
		cfg:     cfg,
		now:     time.Now,
		notify:  func() {},
	}
	c.flat = snapshot.Flattener{Separator: layout.Separator, Leaf: c.isList}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) isList(path string) bool {
	el, ok := c.doc.Element(path)
	return ok && el.Kind() == model.KindList
}

// Run polls on every tick until ctx is done. A tick that finds a request
// still in flight is dropped.
func (c *Controller) Run(ctx context.Context) {
	c.Refresh(ctx)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

func (c *Controller) History() *history.Set { return c.history }

func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != 0
}

type Status struct {
	Connected bool      `json:"connected"`
	Pending   bool      `json:"pending"`
	LastPoll  time.Time `json:"last_poll"`
	LastError string    `json:"last_error,omitempty"`
	Unhandled []string  `json:"unhandled,omitempty"`
	Checksum  int64     `json:"checksum"`
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	pending := c.inflight != 0
	checksum := c.checksum
	c.mu.Unlock()

	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return Status{
		Connected: c.connected,
		Pending:   pending,
		LastPoll:  c.lastPoll,
		LastError: c.lastErr,
		Unhandled: append([]string(nil), c.unhandled...),
		Checksum:  checksum,
	}
}

// peer reads the routing suffix at request time.
func (c *Controller) peer() string {
	if c.layout.PeerInput != "" {
		if v, ok := c.doc.Value(c.layout.PeerInput); ok {
			return v
		}
	}
	return c.cfg.PeerSuffix
}
