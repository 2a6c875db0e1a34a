package controller

import (
	"context"
	"errors"
	"time"

	v1 "github.com/erikmagkekse/craftui/craft/api/v1"
	"github.com/erikmagkekse/craftui/snapshot"

	"github.com/rs/zerolog/log"
)

type pollRequest struct {
	gen      uint64
	checksum int64
	started  time.Time
	done     chan struct{}
}

// Refresh starts a status fetch unless one is already in flight, in which
// case it returns ok=false and nothing happens. done is closed once the
// outcome of the fetch has been rendered or it was abandoned.
func (c *Controller) Refresh(ctx context.Context) (done <-chan struct{}, ok bool) {
	c.mu.Lock()
	if c.inflight != 0 {
		c.mu.Unlock()
		pollsTotal.WithLabelValues("dropped").Inc()
		log.Debug().Msg("poll skipped, previous request still in flight")
		return nil, false
	}
	c.gen++
	req := &pollRequest{
		gen:      c.gen,
		checksum: c.checksum,
		started:  time.Now(),
		done:     make(chan struct{}),
	}
	c.inflight = req.gen
	c.mu.Unlock()

	go c.poll(ctx, req)
	return req.done, true
}

func (c *Controller) poll(ctx context.Context, req *pollRequest) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	// the deadline settles the request even if the client never returns
	var timedOut bool
	fired := make(chan struct{})
	stop := context.AfterFunc(reqCtx, func() {
		defer close(fired)
		if !errors.Is(reqCtx.Err(), context.DeadlineExceeded) || ctx.Err() != nil {
			return
		}
		c.finish(req, func() { c.applyFailure("timeout", reqCtx.Err()) })
		timedOut = true
	})

	body, err := c.client.Status(reqCtx, c.peer(), req.checksum)
	if !stop() {
		<-fired
		if timedOut && errors.Is(err, context.DeadlineExceeded) {
			// already settled as a timeout
			return
		}
	}

	switch {
	case ctx.Err() != nil:
		// shutting down, leave the document as it is
		c.finish(req, func() {})
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		c.finish(req, func() { c.applyFailure("timeout", err) })
	case v1.IsHTTPError(err):
		c.finish(req, func() { c.applyFailure("http_error", err) })
	case err != nil:
		c.finish(req, func() { c.applyFailure("error", err) })
	default:
		c.finish(req, func() { c.applyBody(body) })
	}
}

// finish applies the outcome of req if req is still the request in flight.
// Anything arriving for an older generation is discarded.
func (c *Controller) finish(req *pollRequest, apply func()) {
	if !c.settle(req.gen) {
		pollsTotal.WithLabelValues("stale").Inc()
		log.Debug().Uint64("gen", req.gen).Msg("discarding stale poll response")
		return
	}
	apply()
	pollDuration.Observe(time.Since(req.started).Seconds())
	c.notify()
	close(req.done)
}

func (c *Controller) settle(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != gen {
		return false
	}
	c.inflight = 0
	return true
}

func (c *Controller) applyBody(body []byte) {
	root, fields, err := c.parse(body)
	if err != nil {
		result := "error"
		if snapshot.IsMalformed(err) {
			result = "malformed"
		}
		c.applyFailure(result, err)
		return
	}
	c.applySnapshot(root, fields)
}

func (c *Controller) parse(body []byte) (snapshot.Value, []snapshot.Field, error) {
	root, err := snapshot.Decode(body)
	if err != nil {
		return snapshot.Value{}, nil, err
	}
	fields, err := c.flat.Flatten(root, "")
	if err != nil {
		return snapshot.Value{}, nil, err
	}
	return root, fields, nil
}

func (c *Controller) applySnapshot(root snapshot.Value, fields []snapshot.Field) {
	at := c.now()

	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.unhandled = c.unhandled[:0]
	for _, f := range fields {
		c.renderField(f, at)
	}
	c.renderUnhandled()

	c.setImage(c.layout.Connection.Slot, c.layout.Connection.Connected)
	c.connected = true
	c.lastPoll = at
	c.lastErr = ""
	connectedGauge.Set(1)

	if v, ok := root.Get("checksum"); ok {
		if f, ok := v.Float(); ok {
			c.mu.Lock()
			c.checksum = int64(f)
			c.mu.Unlock()
		}
	}

	if err := c.graphs.Update(c.history.All()...); err != nil {
		log.Warn().Err(err).Msg("failed to update graphs")
	}

	pollsTotal.WithLabelValues("success").Inc()
	log.Debug().Int("fields", len(fields)).Int("unhandled", len(c.unhandled)).Msg("poll applied")
}

// applyFailure marks every subsystem and the connection as disconnected.
// No body is rendered.
func (c *Controller) applyFailure(result string, err error) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	for _, id := range c.layout.IndicatorSlots() {
		c.setImage(id, c.layout.Indicators.Disconnected)
	}
	c.setImage(c.layout.Connection.Slot, c.layout.Connection.Disconnected)
	c.connected = false
	c.lastErr = err.Error()
	connectedGauge.Set(0)

	pollsTotal.WithLabelValues(result).Inc()
	ev := log.Warn().Err(err).Str("result", result)
	if v1.IsUnauthorized(err) {
		ev = ev.Str("hint", "device rejected CRAFT_USERNAME/CRAFT_PASSWORD")
	}
	ev.Msg("status poll failed")
}
