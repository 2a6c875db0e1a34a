package dom

import (
	"fmt"
	"sync"

	"github.com/erikmagkekse/craftui/model"
)

type ListItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Element is a presentation slot addressed by id.
type Element interface {
	ID() string
	Kind() model.ElementKind
	SetText(text string)
	SetList(items []ListItem)
}

// Sourcer is implemented by elements that carry an image source.
// Renderers detect image slots with a type assertion, not by kind.
type Sourcer interface {
	SetSrc(src string)
}

// Document is what the controller renders into and reads inputs from.
type Document interface {
	Element(id string) (Element, bool)
	Value(id string) (string, bool)
}

type ElementState struct {
	ID    string            `json:"id"`
	Kind  model.ElementKind `json:"kind"`
	Text  string            `json:"text,omitempty"`
	Src   string            `json:"src,omitempty"`
	Items []ListItem        `json:"items,omitempty"`
	Value string            `json:"value,omitempty"`
}

type node struct {
	id   string
	kind model.ElementKind

	mu    sync.RWMutex
	text  string
	items []ListItem
}

func (n *node) ID() string              { return n.id }
func (n *node) Kind() model.ElementKind { return n.kind }

// SetText replaces any prior content, list rows included.
func (n *node) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = text
	n.items = nil
}

func (n *node) SetList(items []ListItem) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = ""
	n.items = append([]ListItem(nil), items...)
}

func (n *node) state() ElementState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return ElementState{
		ID:    n.id,
		Kind:  n.kind,
		Text:  n.text,
		Items: append([]ListItem(nil), n.items...),
	}
}

// Block is a text, list or trigger slot.
type Block struct{ node }

type Image struct {
	node
	src string
}

func (i *Image) SetSrc(src string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.src = src
}

func (i *Image) Src() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.src
}

func (i *Image) state() ElementState {
	st := i.node.state()
	st.Src = i.Src()
	return st
}

// Input is a form control; its value is what submissions read.
type Input struct {
	node
	value string
}

func (in *Input) SetValue(v string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = v
}

func (in *Input) Value() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value
}

func (in *Input) state() ElementState {
	st := in.node.state()
	st.Value = in.Value()
	return st
}

type stater interface {
	state() ElementState
}

// Page is an in-memory Document. Writers race freely; the last write to an
// element wins.
type Page struct {
	mu       sync.RWMutex
	order    []string
	elements map[string]Element
}

func NewPage() *Page {
	return &Page{elements: make(map[string]Element)}
}

// FromLayout builds a page holding every element the layout declares or implies.
func FromLayout(l *model.Layout) (*Page, error) {
	p := NewPage()
	for _, e := range l.AllElements() {
		if _, err := p.Add(e.ID, e.Kind); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Page) Add(id string, kind model.ElementKind) (Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.elements[id]; exists {
		return nil, fmt.Errorf("element %q already exists", id)
	}

	var el Element
	switch kind {
	case model.KindImage:
		el = &Image{node: node{id: id, kind: kind}}
	case model.KindInput:
		el = &Input{node: node{id: id, kind: kind}}
	case model.KindText, model.KindList, model.KindTrigger:
		el = &Block{node: node{id: id, kind: kind}}
	default:
		return nil, fmt.Errorf("element %q: unknown kind %q", id, kind)
	}
	p.elements[id] = el
	p.order = append(p.order, id)
	return el, nil
}

func (p *Page) Element(id string) (Element, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, ok := p.elements[id]
	return el, ok
}

// Value reads an input control. ok is false when id is not an input.
func (p *Page) Value(id string) (string, bool) {
	el, ok := p.Element(id)
	if !ok {
		return "", false
	}
	in, ok := el.(*Input)
	if !ok {
		return "", false
	}
	return in.Value(), true
}

func (p *Page) SetValue(id, value string) error {
	el, ok := p.Element(id)
	if !ok {
		return fmt.Errorf("no element %q", id)
	}
	in, ok := el.(*Input)
	if !ok {
		return fmt.Errorf("element %q is not an input", id)
	}
	in.SetValue(value)
	return nil
}

// Text returns the text content of an element, or "" if it has none.
func (p *Page) Text(id string) string {
	st, ok := p.StateOf(id)
	if !ok {
		return ""
	}
	return st.Text
}

func (p *Page) StateOf(id string) (ElementState, bool) {
	el, ok := p.Element(id)
	if !ok {
		return ElementState{}, false
	}
	return el.(stater).state(), true
}

// State snapshots every element in declaration order.
func (p *Page) State() []ElementState {
	p.mu.RLock()
	els := make([]Element, 0, len(p.order))
	for _, id := range p.order {
		els = append(els, p.elements[id])
	}
	p.mu.RUnlock()

	out := make([]ElementState, 0, len(els))
	for _, el := range els {
		out = append(out, el.(stater).state())
	}
	return out
}
