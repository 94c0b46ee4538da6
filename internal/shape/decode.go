package shape

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jorgelunams/contratospoc/internal/common"
)

// DecodeError carries the byte offset at which decoding stopped.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v (offset %d)", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == common.ErrDecode }

// Decode parses exactly one JSON document into a Value, preserving key order.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Null, wrapDecode(dec, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return Null, wrapDecode(dec, err)
	}
	return v, nil
}

func wrapDecode(dec *json.Decoder, err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &DecodeError{Offset: se.Offset, Err: err}
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &DecodeError{Offset: dec.InputOffset(), Err: err}
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Null, err
				}
				key, ok := kt.(string)
				if !ok {
					return Null, fmt.Errorf("object key is %T", kt)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Null, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return ObjectValue(obj), nil
		case '[':
			items := []Value{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Null, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return SequenceValue(items...), nil
		default:
			return Null, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return ScalarValue(t), nil
	}
}
