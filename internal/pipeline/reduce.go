package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/llm"
	"github.com/jorgelunams/contratospoc/internal/shape"
)

// decodeWindow is how many bytes of context are kept on each side of a
// decode failure.
const decodeWindow = 50

// DecodeError is a semantic result that could not be reduced to one object.
// Reason is safe to report; it never carries the full payload.
type DecodeError struct {
	Reason  string
	Context string
	Err     error
}

func (e *DecodeError) Error() string { return e.Reason }

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == common.ErrDecode }

// reduce turns the raw semantic output into a single object value.
func reduce(raw string, log *slog.Logger) (shape.Value, error) {
	text := llm.StripFences(raw)

	v, err := shape.Decode([]byte(text))
	if err != nil {
		var de *shape.DecodeError
		offset := int64(0)
		if errors.As(err, &de) {
			offset = de.Offset
		}
		window := errorWindow(text, int(offset))
		log.Error("pipeline.reduce.decode_failed", "error", err, "offset", offset, "context", window)
		return shape.Null, &DecodeError{
			Reason:  fmt.Sprintf("%s: %v near %q", constants.ReasonDecodePrefix, unwrapDecode(err), window),
			Context: window,
			Err:     err,
		}
	}

	switch v.Kind() {
	case shape.KindObject:
		return v, nil
	case shape.KindSequence:
		items := v.Items()
		if len(items) == 0 {
			return shape.Null, &DecodeError{Reason: constants.ReasonEmptyList}
		}
		if items[0].Kind() != shape.KindObject {
			log.Error("pipeline.reduce.invalid_item", "kind", items[0].Kind().String())
			return shape.Null, &DecodeError{Reason: constants.ReasonInvalidStructure}
		}
		log.Warn("pipeline.reduce.list_unwrapped", "items", len(items))
		return items[0], nil
	default:
		log.Error("pipeline.reduce.unexpected_type", "kind", v.Kind().String())
		return shape.Null, &DecodeError{Reason: constants.ReasonUnexpectedType}
	}
}

func unwrapDecode(err error) error {
	var de *shape.DecodeError
	if errors.As(err, &de) && de.Err != nil {
		return de.Err
	}
	return err
}

// errorWindow returns up to decodeWindow bytes either side of offset with a
// <<e>> marker at offset. Bounds are moved to rune starts.
func errorWindow(s string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s) {
		offset = len(s)
	}
	for offset > 0 && offset < len(s) && !utf8.RuneStart(s[offset]) {
		offset--
	}
	start := offset - decodeWindow
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(s[start]) {
		start--
	}
	end := offset + decodeWindow
	if end > len(s) {
		end = len(s)
	}
	for end < len(s) && !utf8.RuneStart(s[end]) {
		end++
	}
	return s[start:offset] + "<<e>>" + s[offset:end]
}
