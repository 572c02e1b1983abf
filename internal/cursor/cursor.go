// Package cursor encodes keyset pagination positions as opaque strings.
//
// A cursor carries only the (createdAt, id) sort key of the last row a client
// has seen. It is never checked against stored rows: a position past the end
// of the data simply yields an empty page.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidCursor is returned for any string Decode cannot turn back into a Cursor
var ErrInvalidCursor = errors.New("cursor is invalid")

// Cursor is a position in (createdAt, id) order
type Cursor struct {
	CreatedAt string `json:"createdAt"`
	ID        int64  `json:"id"`
}

// wire mirrors Cursor with pointer fields so missing keys are detectable.
// ID stays raw so integral values written as 1.0 or 1e2 are accepted.
type wire struct {
	CreatedAt *string         `json:"createdAt"`
	ID        json.RawMessage `json:"id"`
}

// maxExactID bounds ids given in float form to those a float64 holds exactly
const maxExactID = 1 << 53

// Encode returns the URL-safe opaque form of c. CreatedAt must be valid
// UTF-8, which every FormatTimestamp value is; invalid bytes would be
// replaced by U+FFFD and the cursor would not decode to c.
func Encode(c Cursor) string {
	// Marshal cannot fail for a string and an int64.
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses a string produced by Encode. Padded base64url is accepted.
func Decode(s string) (Cursor, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if s == "" {
		return Cursor{}, ErrInvalidCursor
	}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	// Reject anything but a JSON object before field decoding so that
	// `null` does not decode into an empty wire value.
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Cursor{}, ErrInvalidCursor
	}
	// Unmarshal would silently turn invalid bytes into U+FFFD.
	if !utf8.Valid(trimmed) {
		return Cursor{}, ErrInvalidCursor
	}

	var w wire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if w.CreatedAt == nil {
		return Cursor{}, ErrInvalidCursor
	}
	id, ok := parseID(w.ID)
	if !ok {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{CreatedAt: *w.CreatedAt, ID: id}, nil
}

// parseID accepts a JSON number with an integral value
func parseID(raw json.RawMessage) (int64, bool) {
	s := string(raw)
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactID {
		return 0, false
	}
	return int64(f), true
}

// Before reports whether (createdAt, id) sorts strictly before c
func (c Cursor) Before(createdAt string, id int64) bool {
	if createdAt != c.CreatedAt {
		return createdAt < c.CreatedAt
	}
	return id < c.ID
}

// After reports whether (createdAt, id) sorts strictly after c
func (c Cursor) After(createdAt string, id int64) bool {
	if createdAt != c.CreatedAt {
		return createdAt > c.CreatedAt
	}
	return id > c.ID
}
