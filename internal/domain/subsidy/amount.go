package subsidy

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is the subsidy_max_limit field. Upstream sends it as a number,
// a numeric string, an empty string or nothing; the raw value is kept
// so it can be echoed unchanged.
type Amount struct {
	raw json.RawMessage
}

// UnmarshalJSON stores the raw token. null is treated as absent.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		a.raw = nil
		return nil
	}
	a.raw = append(a.raw[:0], b...)
	return nil
}

// MarshalJSON echoes the raw token, or null when absent.
func (a Amount) MarshalJSON() ([]byte, error) {
	if len(a.raw) == 0 {
		return []byte("null"), nil
	}
	return a.raw, nil
}

// IsSet reports whether the field carried a value. Upstream sends a
// numeric 0 when no limit is published, so it counts as unset; the
// string "0" does not.
func (a Amount) IsSet() bool {
	if len(a.raw) == 0 {
		return false
	}
	var s string
	if json.Unmarshal(a.raw, &s) == nil {
		return strings.TrimSpace(s) != ""
	}
	var n float64
	if json.Unmarshal(a.raw, &n) == nil {
		return n != 0
	}
	return true
}

// Value parses the amount in yen. ok is false when the field is absent or not numeric.
func (a Amount) Value() (float64, bool) {
	if !a.IsSet() {
		return 0, false
	}

	text := string(a.raw)
	var s string
	if json.Unmarshal(a.raw, &s) == nil {
		text = s
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// AmountOf builds an Amount from a raw JSON token. Mainly for tests.
func AmountOf(raw string) Amount {
	var a Amount
	_ = a.UnmarshalJSON([]byte(raw))
	return a
}
