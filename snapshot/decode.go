package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// MaxDepth bounds object/array nesting of a status response.
const MaxDepth = 64

var ErrTooDeep = fmt.Errorf("nesting exceeds %d levels", MaxDepth)

// MalformedError marks a status response that can not be turned into a snapshot.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string { return "malformed snapshot: " + e.Err.Error() }
func (e *MalformedError) Unwrap() error { return e.Err }

func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// Decode parses a status response. Object key order is kept as sent.
// The root must be a JSON object.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Value{}, &MalformedError{Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Value{}, &MalformedError{Err: errors.New("root is not an object")}
	}
	v, err := decodeToken(dec, tok, 0)
	if err != nil {
		return Value{}, &MalformedError{Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, &MalformedError{Err: errors.New("trailing data after object")}
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok, depth)
}

func decodeToken(dec *json.Decoder, tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, ErrTooDeep
		}
		switch t {
		case '{':
			return decodeObject(dec, depth)
		case '[':
			return decodeArray(dec, depth)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	var entries []Entry
	index := map[string]int{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := kt.(string)
		if !ok {
			return Value{}, fmt.Errorf("unexpected object key %v", kt)
		}
		child, err := decodeValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		// duplicate keys: last value wins, first position is kept
		if i, dup := index[key]; dup {
			entries[i].Value = child
			continue
		}
		index[key] = len(entries)
		entries = append(entries, Entry{Key: key, Value: child})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Composite(entries...), nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	var entries []Entry
	for i := 0; dec.More(); i++ {
		child, err := decodeValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, Entry{Key: strconv.Itoa(i), Value: child})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Composite(entries...), nil
}
