package snapshot

import (
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindComposite:
		return "composite"
	default:
		return "null"
	}
}

// Value is one node of a status snapshot: either a scalar or a composite
// holding its children in wire order.
type Value struct {
	kind    Kind
	scalar  string
	entries []Entry
}

type Entry struct {
	Key   string
	Value Value
}

func String(s string) Value { return Value{kind: KindString, scalar: s} }

// Number keeps the literal as sent so -42 renders as "-42" and not "-42.000000".
func Number(literal string) Value { return Value{kind: KindNumber, scalar: literal} }

func Bool(b bool) Value { return Value{kind: KindBool, scalar: strconv.FormatBool(b)} }

func Null() Value { return Value{kind: KindNull} }

func Composite(entries ...Entry) Value {
	return Value{kind: KindComposite, entries: entries}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsComposite() bool { return v.kind == KindComposite }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) Entries() []Entry  { return v.entries }
func (v Value) Len() int          { return len(v.entries) }

// Text is the presentation of a scalar. Composites have no text of their own.
func (v Value) Text() string {
	switch v.kind {
	case KindComposite:
		return ""
	case KindNull:
		return "null"
	default:
		return v.scalar
	}
}

// Get looks up a direct child of a composite.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Float converts numeric and boolean scalars for graphing.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		f, err := strconv.ParseFloat(v.scalar, 64)
		return f, err == nil
	case KindBool:
		if v.scalar == "true" {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.scalar), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
