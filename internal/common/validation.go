package common

import (
	"fmt"
	"strings"
	"time"
)

// FieldError is one rejected setting.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + " " + e.Message }

// FieldErrors matches ErrInvalidInput.
type FieldErrors []FieldError

func (es FieldErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (es FieldErrors) Is(target error) bool { return target == ErrInvalidInput }

// Rule returns a message when value is not acceptable, "" otherwise.
type Rule func(value any) string

// Checks collects the first failing rule of each field.
type Checks struct {
	errs FieldErrors
}

func (c *Checks) Field(name string, value any, rules ...Rule) *Checks {
	for _, rule := range rules {
		if msg := rule(value); msg != "" {
			c.errs = append(c.errs, FieldError{Field: name, Message: msg})
			break
		}
	}
	return c
}

// Err returns nil or a FieldErrors.
func (c *Checks) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func Required(value any) string {
	switch v := value.(type) {
	case nil:
		return "is required"
	case string:
		if strings.TrimSpace(v) == "" {
			return "is required"
		}
	}
	return ""
}

func OneOf(allowed ...string) Rule {
	return func(value any) string {
		s, _ := value.(string)
		for _, a := range allowed {
			if s == a {
				return ""
			}
		}
		return fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, ", "), s)
	}
}

// Positive accepts ints and durations above zero.
func Positive(value any) string {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return ""
		}
	case time.Duration:
		if v > 0 {
			return ""
		}
	}
	return "must be positive"
}
