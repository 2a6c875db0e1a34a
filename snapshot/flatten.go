package snapshot

const DefaultSeparator = "/"

// Field is one flattened leaf: the path of its presentation slot and its value.
type Field struct {
	Path  string
	Value Value
}

// Flattener walks a snapshot depth-first into Fields.
// Leaf, when set, stops the walk at a composite whose path it accepts and
// emits the composite itself (list slots render whole objects).
type Flattener struct {
	Separator string
	Leaf      func(path string) bool
}

// Flatten uses the default separator and no leaf overrides.
func Flatten(v Value, prefix string) ([]Field, error) {
	return Flattener{}.Flatten(v, prefix)
}

func (f Flattener) Flatten(v Value, prefix string) ([]Field, error) {
	sep := f.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	var out []Field
	if err := f.walk(v, prefix, sep, 0, &out); err != nil {
		return nil, &MalformedError{Err: err}
	}
	return out, nil
}

func (f Flattener) walk(v Value, prefix, sep string, depth int, out *[]Field) error {
	if depth >= MaxDepth {
		return ErrTooDeep
	}
	for _, e := range v.entries {
		path := prefix + e.Key
		switch {
		case e.Value.IsNull():
			// null carries nothing to render
		case e.Value.IsComposite():
			if f.Leaf != nil && f.Leaf(path) {
				*out = append(*out, Field{Path: path, Value: e.Value})
				continue
			}
			if err := f.walk(e.Value, path+sep, sep, depth+1, out); err != nil {
				return err
			}
		default:
			*out = append(*out, Field{Path: path, Value: e.Value})
		}
	}
	return nil
}
