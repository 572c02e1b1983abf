package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/cursor"
	"github.com/threaded-comments-api/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// invalid wraps a field failure as an InvalidArgument error carrying msg
func invalid(field, msg string, value interface{}) error {
	return apperror.InvalidArgumentWrap(&ValidationError{Field: field, Message: msg, Value: value}, msg)
}

// FieldOf returns the validation failure inside err, if any
func FieldOf(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// Validator checks client input against the configured bounds
type Validator struct {
	maxContentLength int
}

// NewValidator creates a new validator instance. maxContentLength is
// counted in runes after trimming.
func NewValidator(maxContentLength int) *Validator {
	return &Validator{maxContentLength: maxContentLength}
}

// NormalizeContent trims surrounding whitespace and rejects empty or
// oversized content
func (v *Validator) NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("content", "content is required", nil)
	}
	if v.maxContentLength > 0 && utf8.RuneCountInString(content) > v.maxContentLength {
		return "", invalid("content", fmt.Sprintf("content must be at most %d characters", v.maxContentLength), nil)
	}
	return content, nil
}

// ParseLimit reads a page size. An absent limit is the default; a present
// one must be a finite number and is truncated and clamped to the page
// bounds, so "0" and "" both mean 1.
func ParseLimit(raw string, present bool) (int, error) {
	if !present {
		return models.DefaultPageLimit, nil
	}

	raw = strings.TrimSpace(raw)
	f := 0.0
	if raw != "" {
		var err error
		f, err = strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, invalid("limit", "limit must be a number", raw)
		}
	}

	return ClampLimit(f), nil
}

// ClampLimit truncates f toward zero and bounds it to [1, MaxPageLimit]
func ClampLimit(f float64) int {
	f = math.Trunc(f)
	if f < 1 {
		return 1
	}
	if f > models.MaxPageLimit {
		return models.MaxPageLimit
	}
	return int(f)
}

// ParseOrder reads a sort direction, desc when empty
func ParseOrder(raw string) (models.SortOrder, error) {
	order, ok := models.ParseSortOrder(raw)
	if !ok {
		return "", invalid("order", "order must be asc or desc", raw)
	}
	return order, nil
}

// ParseCursor decodes an optional cursor; empty means the first page
func ParseCursor(raw string) (*cursor.Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	c, err := cursor.Decode(raw)
	if err != nil {
		return nil, invalid("cursor", "cursor is invalid", nil)
	}
	return &c, nil
}

// ParsePageRequest validates the three paging parameters of a list view
func ParsePageRequest(limitRaw string, limitPresent bool, orderRaw, cursorRaw string) (models.PageRequest, error) {
	limit, err := ParseLimit(limitRaw, limitPresent)
	if err != nil {
		return models.PageRequest{}, err
	}
	order, err := ParseOrder(orderRaw)
	if err != nil {
		return models.PageRequest{}, err
	}
	c, err := ParseCursor(cursorRaw)
	if err != nil {
		return models.PageRequest{}, err
	}
	return models.PageRequest{Limit: limit, Order: order, Cursor: c}, nil
}

// ParseID reads a positive integer identifier
func ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid(field, fmt.Sprintf("%s must be a positive integer", field), raw)
	}
	return id, nil
}
