package model

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var defaultLayout []byte

type ElementKind string

const (
	KindText    ElementKind = "text"
	KindImage   ElementKind = "image"
	KindList    ElementKind = "list"
	KindInput   ElementKind = "input"
	KindTrigger ElementKind = "trigger"
)

var validKinds = map[ElementKind]bool{
	KindText:    true,
	KindImage:   true,
	KindList:    true,
	KindInput:   true,
	KindTrigger: true,
}

type SubmitMode string

const (
	ModeSet            SubmitMode = "set"
	ModeActivate       SubmitMode = "activate"
	ModeChangePassword SubmitMode = "password"
)

func ParseSubmitMode(s string) (SubmitMode, error) {
	switch m := SubmitMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSet, ModeActivate, ModeChangePassword:
		return m, nil
	case "":
		return ModeSet, nil
	default:
		return "", fmt.Errorf("unknown submit mode %q (want set, activate or password)", s)
	}
}

type ElementDecl struct {
	ID   string      `yaml:"id"`
	Kind ElementKind `yaml:"kind"`
}

type ControlDecl struct {
	Key   string     `yaml:"key"`
	Mode  SubmitMode `yaml:"mode"`
	Label string     `yaml:"label"`
}

type ConnectionDecl struct {
	Slot         string `yaml:"slot"`
	Connected    string `yaml:"connected"`
	Disconnected string `yaml:"disconnected"`
}

type IndicatorDecl struct {
	Prefix       string   `yaml:"prefix"`
	Names        []string `yaml:"names"`
	Disconnected string   `yaml:"disconnected"`
}

type TrackedDecl struct {
	Path  string `yaml:"path"`
	Title string `yaml:"title"`
	Max   int    `yaml:"max"`
}

// Layout declares the document the console renders into: its slots, the
// submit controls, the connectivity indicators and the tracked metrics.
type Layout struct {
	Separator  string         `yaml:"separator"`
	Unhandled  string         `yaml:"unhandled"`
	PeerInput  string         `yaml:"peer_input"`
	Connection ConnectionDecl `yaml:"connection"`
	Indicators IndicatorDecl  `yaml:"indicators"`
	Elements   []ElementDecl  `yaml:"elements"`
	Controls   []ControlDecl  `yaml:"controls"`
	Tracked    []TrackedDecl  `yaml:"tracked"`
}

// LoadLayout reads a layout file; an empty path yields the built-in layout.
func LoadLayout(path string) (*Layout, error) {
	data := defaultLayout
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read layout: %w", err)
		}
		data = b
	}
	l, err := ParseLayout(data)
	if err != nil {
		return nil, err
	}
	if err := ValidateLayout(l); err != nil {
		return nil, err
	}
	return l, nil
}

func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	l.applyDefaults()
	return &l, nil
}

func (l *Layout) applyDefaults() {
	if l.Separator == "" {
		l.Separator = "/"
	}
	for i := range l.Elements {
		if l.Elements[i].Kind == "" {
			l.Elements[i].Kind = KindText
		}
	}
	for i := range l.Controls {
		if m, err := ParseSubmitMode(string(l.Controls[i].Mode)); err == nil {
			l.Controls[i].Mode = m
		}
	}
	if l.Connection.Slot != "" {
		if l.Connection.Connected == "" {
			l.Connection.Connected = "green.gif"
		}
		if l.Connection.Disconnected == "" {
			l.Connection.Disconnected = "red.gif"
		}
	}
	if l.Indicators.Disconnected == "" {
		l.Indicators.Disconnected = "grey.gif"
	}
}

// ValidateLayout performs declarative checks only; it does not mutate l.
func ValidateLayout(l *Layout) error {
	seen := make(map[string]bool, len(l.Elements))
	for _, e := range l.Elements {
		if e.ID == "" {
			return fmt.Errorf("layout: element with empty id")
		}
		if seen[e.ID] {
			return fmt.Errorf("layout: duplicate element %q", e.ID)
		}
		if !validKinds[e.Kind] {
			return fmt.Errorf("layout: element %q has unknown kind %q", e.ID, e.Kind)
		}
		seen[e.ID] = true
	}

	for _, c := range l.Controls {
		if c.Key == "" {
			return fmt.Errorf("layout: control with empty key")
		}
		if _, err := ParseSubmitMode(string(c.Mode)); err != nil {
			return fmt.Errorf("layout: control %q: %w", c.Key, err)
		}
	}

	for _, name := range l.Indicators.Names {
		if name == "" {
			return fmt.Errorf("layout: empty indicator name")
		}
	}

	tracked := make(map[string]bool, len(l.Tracked))
	for _, t := range l.Tracked {
		if t.Path == "" {
			return fmt.Errorf("layout: tracked metric with empty path")
		}
		if tracked[t.Path] {
			return fmt.Errorf("layout: metric %q tracked twice", t.Path)
		}
		if t.Max < 0 {
			return fmt.Errorf("layout: metric %q has negative max", t.Path)
		}
		tracked[t.Path] = true
	}
	return nil
}

// IndicatorSlots lists the subsystem indicator element ids.
func (l *Layout) IndicatorSlots() []string {
	out := make([]string, 0, len(l.Indicators.Names))
	for _, n := range l.Indicators.Names {
		out = append(out, l.Indicators.Prefix+n)
	}
	return out
}

// ControlElements expands a control into the element ids the submitter addresses.
func ControlElements(c ControlDecl) []ElementDecl {
	out := []ElementDecl{}
	switch c.Mode {
	case ModeActivate:
		out = append(out, ElementDecl{ID: c.Key + ActivateSuffix, Kind: KindTrigger})
	case ModeChangePassword:
		out = append(out,
			ElementDecl{ID: c.Key + AdminSuffix, Kind: KindInput},
			ElementDecl{ID: c.Key + NewSuffix, Kind: KindInput},
			ElementDecl{ID: c.Key + ConfirmSuffix, Kind: KindInput},
		)
	default:
		out = append(out, ElementDecl{ID: c.Key, Kind: KindInput})
	}
	return append(out, ElementDecl{ID: c.Key + ResultSuffix, Kind: KindText})
}

// AllElements returns every element of the document in declaration order:
// explicit elements first, then implied ones (controls, indicators, the
// connection slot, the unhandled slot and the peer input). Explicit
// declarations win over implied ones with the same id.
func (l *Layout) AllElements() []ElementDecl {
	seen := map[string]bool{}
	var out []ElementDecl
	add := func(e ElementDecl) {
		if e.ID == "" || seen[e.ID] {
			return
		}
		seen[e.ID] = true
		out = append(out, e)
	}

	for _, e := range l.Elements {
		add(e)
	}
	for _, c := range l.Controls {
		for _, e := range ControlElements(c) {
			add(e)
		}
	}
	for _, id := range l.IndicatorSlots() {
		add(ElementDecl{ID: id, Kind: KindImage})
	}
	add(ElementDecl{ID: l.Connection.Slot, Kind: KindImage})
	add(ElementDecl{ID: l.Unhandled, Kind: KindText})
	add(ElementDecl{ID: l.PeerInput, Kind: KindInput})
	return out
}
