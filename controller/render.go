package controller

import (
	"strings"
	"time"

	"github.com/erikmagkekse/craftui/dom"
	"github.com/erikmagkekse/craftui/history"
	"github.com/erikmagkekse/craftui/snapshot"

	"github.com/rs/zerolog/log"
)

const notAvailable = "N/A"

// renderField writes one flattened field into the element with the same id
// and records it in its history series if the path is tracked.
// Callers hold renderMu.
func (c *Controller) renderField(f snapshot.Field, at time.Time) {
	if s, ok := c.history.Get(f.Path); ok {
		track(s, f, at)
	}

	el, ok := c.doc.Element(f.Path)
	if !ok {
		c.unhandled = append(c.unhandled, f.Path+"="+inline(f.Value))
		return
	}

	if img, ok := el.(dom.Sourcer); ok {
		img.SetSrc(c.assetURL(f.Value.Text()))
		return
	}

	if f.Value.IsComposite() {
		if f.Value.Len() == 0 {
			el.SetText(notAvailable)
			return
		}
		items := make([]dom.ListItem, 0, f.Value.Len())
		for _, e := range f.Value.Entries() {
			items = append(items, dom.ListItem{Key: e.Key, Value: inline(e.Value)})
		}
		el.SetList(items)
		return
	}

	el.SetText(f.Value.Text())
}

func track(s *history.Series, f snapshot.Field, at time.Time) {
	v, ok := f.Value.Float()
	if !ok {
		log.Debug().Str("path", f.Path).Str("value", f.Value.Text()).Msg("tracked value is not numeric, skipping")
		return
	}
	s.Append(history.Point{At: at, Value: v})
}

// renderUnhandled publishes the diagnostic list rebuilt during this poll.
func (c *Controller) renderUnhandled() {
	unhandledFields.Set(float64(len(c.unhandled)))

	var b strings.Builder
	for _, u := range c.unhandled {
		b.WriteString(u)
		b.WriteString("; ")
	}
	if len(c.unhandled) > 0 {
		log.Debug().Strs("fields", c.unhandled).Msg("unhandled fields")
	}

	if c.layout.Unhandled == "" {
		return
	}
	if el, ok := c.doc.Element(c.layout.Unhandled); ok {
		el.SetText(b.String())
	}
}

// setImage points an indicator slot at a static asset. Slots that are not
// images get the asset name as text.
func (c *Controller) setImage(id, asset string) {
	if id == "" {
		return
	}
	el, ok := c.doc.Element(id)
	if !ok {
		return
	}
	if img, ok := el.(dom.Sourcer); ok {
		img.SetSrc(c.assetURL(asset))
		return
	}
	el.SetText(asset)
}

func (c *Controller) assetURL(name string) string {
	return strings.TrimRight(c.cfg.StaticRoot, "/") + "/" + name
}

// inline renders a value on one line; nested objects become {k: v, ...}.
func inline(v snapshot.Value) string {
	if !v.IsComposite() {
		return v.Text()
	}
	if v.Len() == 0 {
		return notAvailable
	}
	parts := make([]string, 0, v.Len())
	for _, e := range v.Entries() {
		parts = append(parts, e.Key+": "+inline(e.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
